package keys

import (
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSaveLoadSignerPEMRoundTrip(t *testing.T) {
	for _, keyType := range []string{"ecdsa", "rsa"} {
		signer, err := NewSigner(keyType)
		require.NoError(t, err)

		path := filepath.Join(t.TempDir(), "key.pem")
		require.NoError(t, SaveSignerPEM(path, signer))

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0600), info.Mode().Perm())

		restored, err := LoadSignerPEM(path)
		require.NoError(t, err)
		require.Equal(t, JWKThumbprint(signer), JWKThumbprint(restored))
	}
}

func selfSignedChain(t *testing.T, names []string, notAfter time.Time) (der []byte, pemBytes []byte) {
	t.Helper()
	signer, err := NewSigner("ecdsa")
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(7),
		Subject:      pkix.Name{CommonName: names[0]},
		DNSNames:     names,
		NotBefore:    notAfter.Add(-24 * time.Hour),
		NotAfter:     notAfter,
	}
	der, err = x509.CreateCertificate(rand.Reader, tmpl, tmpl, signer.Public(), signer)
	require.NoError(t, err)
	pemBytes = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return der, pemBytes
}

func TestParseAndLeafDERBase64(t *testing.T) {
	der, pemBytes := selfSignedChain(t, []string{"example.com"}, time.Now().Add(90*24*time.Hour))

	certs, err := ParseCertificateChain(pemBytes)
	require.NoError(t, err)
	require.Len(t, certs, 1)

	b64, err := LeafDERBase64(certs)
	require.NoError(t, err)
	require.NotEmpty(t, b64)
	require.Equal(t, der, certs[0].Raw)
}

func TestSaveLoadCertificateChainRoundTrip(t *testing.T) {
	_, pemBytes := selfSignedChain(t, []string{"example.com"}, time.Now().Add(90*24*time.Hour))

	path := filepath.Join(t.TempDir(), "cert.pem")
	require.NoError(t, SaveCertificateChain(path, pemBytes))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0644), info.Mode().Perm())

	certs, err := LoadCertificateChain(path)
	require.NoError(t, err)
	require.Len(t, certs, 1)
}

func TestCertificateIsFresh(t *testing.T) {
	now := time.Now()
	_, freshPEM := selfSignedChain(t, []string{"a.example.com", "b.example.com"}, now.Add(60*24*time.Hour))
	freshCerts, err := ParseCertificateChain(freshPEM)
	require.NoError(t, err)

	require.True(t, CertificateIsFresh(freshCerts, []string{"b.example.com", "a.example.com"}, 30*24*time.Hour, now),
		"fresh cert covering the exact name set (any order) should count as fresh")
	require.False(t, CertificateIsFresh(freshCerts, []string{"a.example.com"}, 30*24*time.Hour, now),
		"a name set that doesn't exactly match must force reissue")

	_, expiringPEM := selfSignedChain(t, []string{"a.example.com", "b.example.com"}, now.Add(10*24*time.Hour))
	expiringCerts, err := ParseCertificateChain(expiringPEM)
	require.NoError(t, err)
	require.False(t, CertificateIsFresh(expiringCerts, []string{"a.example.com", "b.example.com"}, 30*24*time.Hour, now),
		"a cert expiring within minRemaining must force reissue")

	require.False(t, CertificateIsFresh(nil, []string{"a.example.com"}, 30*24*time.Hour, now))
}
