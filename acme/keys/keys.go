// package keys offers utility functions for working with crypto.Signers, JWS,
// JWKs and PEM serialization.
package keys

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"

	jose "github.com/go-jose/go-jose/v4"
)

// SigAlgForSigner returns the JWS signature algorithm appropriate for
// signer's key type.
func SigAlgForSigner(signer crypto.Signer) (jose.SignatureAlgorithm, error) {
	alg := sigAlgForKey(signer)
	if alg == "unknown" {
		return "", fmt.Errorf("unsupported signer type: %T", signer)
	}
	return alg, nil
}

func sigAlgForKey(signer crypto.Signer) jose.SignatureAlgorithm {
	switch signer.(type) {
	case *ecdsa.PrivateKey:
		return jose.ES256
	case *rsa.PrivateKey:
		return jose.RS256
	}
	return "unknown"
}

func algForKey(signer crypto.Signer) string {
	switch signer.(type) {
	case *ecdsa.PrivateKey:
		return "ECDSA"
	case *rsa.PrivateKey:
		return "RSA"
	}
	return "unknown"
}

func JWKThumbprintBytes(signer crypto.Signer) []byte {
	jwk := JWKForSigner(signer)
	thumbBytes, _ := jwk.Thumbprint(crypto.SHA256)
	return thumbBytes
}

func JWKThumbprint(signer crypto.Signer) string {
	thumbprintBytes := JWKThumbprintBytes(signer)
	return base64.RawURLEncoding.EncodeToString(thumbprintBytes)
}

// DNS01KeyAuthorization hashes a plain "token.thumbprint" key authorization
// with SHA-256 and base64url (no padding) encodes it, as required by the
// dns-01 challenge type (RFC 8555 section 8.4).
func DNS01KeyAuthorization(plain string) string {
	digest := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

func JWKForSigner(signer crypto.Signer) jose.JSONWebKey {
	return jose.JSONWebKey{
		Key:       signer.Public(),
		Algorithm: algForKey(signer),
	}
}

func SignerToPEM(signer crypto.Signer) (string, error) {
	var keyBytes []byte
	var keyHeader string
	var err error
	switch k := signer.(type) {
	case *ecdsa.PrivateKey:
		keyBytes, err = x509.MarshalECPrivateKey(k)
		keyHeader = "EC PRIVATE KEY"
	case *rsa.PrivateKey:
		keyBytes = x509.MarshalPKCS1PrivateKey(k)
		keyHeader = "RSA PRIVATE KEY"
	default:
		err = fmt.Errorf("unknown key type: %T", k)
	}
	if err != nil {
		return "", err
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  keyHeader,
		Bytes: keyBytes,
	})
	return string(pemBytes), nil
}

func NewSigner(keyType string) (crypto.Signer, error) {
	var randKey crypto.Signer
	var err error
	switch keyType {
	case "ecdsa":
		randKey, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case "rsa":
		randKey, err = rsa.GenerateKey(rand.Reader, 2048)
	default:
		err = fmt.Errorf("unknown key type: %q", keyType)
	}
	if err != nil {
		return nil, err
	}
	return randKey, nil
}
