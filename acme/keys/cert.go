package keys

import (
	"crypto"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// SaveSignerPEM writes signer's private key to path in PEM form with mode
// 0600, the permission required for all account and domain key material.
func SaveSignerPEM(path string, signer crypto.Signer) error {
	pemStr, err := SignerToPEM(signer)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(pemStr), 0600)
}

// LoadSignerPEM loads a private key previously written by SaveSignerPEM.
func LoadSignerPEM(path string) (crypto.Signer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.Errorf("no PEM block found in %q", path)
	}
	switch block.Type {
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	default:
		return nil, errors.Errorf("unsupported PEM block type %q in %q", block.Type, path)
	}
}

// LoadCertificateChain parses one or more PEM encoded certificates from path,
// in the order they appear in the file. The first certificate is expected to
// be the leaf.
func LoadCertificateChain(path string) ([]*x509.Certificate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCertificateChain(raw)
}

// ParseCertificateChain parses one or more concatenated PEM encoded
// certificates from raw.
func ParseCertificateChain(raw []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	rest := raw
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, errors.Wrap(err, "parsing certificate PEM block")
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, errors.New("no CERTIFICATE PEM blocks found")
	}
	return certs, nil
}

// SaveCertificateChain writes the raw PEM chain bytes returned by the ACME
// server's certificate download to path with mode 0644.
func SaveCertificateChain(path string, pemChain []byte) error {
	return os.WriteFile(path, pemChain, 0644)
}

// LeafDERBase64 returns the base64url (no padding) encoding of the leaf
// certificate's raw DER bytes, the form required in a revocation request's
// "certificate" field.
func LeafDERBase64(certs []*x509.Certificate) (string, error) {
	if len(certs) == 0 {
		return "", errors.New("LeafDERBase64: empty certificate chain")
	}
	return base64.RawURLEncoding.EncodeToString(certs[0].Raw), nil
}

// CertificateIsFresh reports whether the leaf of a previously issued
// certificate chain is still usable without reissuing: it must exist (certs
// non-empty), expire more than minRemaining from now, and cover exactly the
// requested set of DNS names (order independent).
func CertificateIsFresh(certs []*x509.Certificate, names []string, minRemaining time.Duration, now time.Time) bool {
	if len(certs) == 0 {
		return false
	}
	leaf := certs[0]
	if leaf.NotAfter.Before(now.Add(minRemaining)) {
		return false
	}
	return sameNameSet(leaf.DNSNames, names)
}

func sameNameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
