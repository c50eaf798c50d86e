package keys

import (
	"crypto/x509"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateCSRIncludesAllNames(t *testing.T) {
	signer, err := NewSigner("ecdsa")
	require.NoError(t, err)

	der, b64, err := GenerateCSR(signer, []string{"example.com", "www.example.com"})
	require.NoError(t, err)
	require.Equal(t, base64.RawURLEncoding.EncodeToString(der), b64)

	csr, err := x509.ParseCertificateRequest(der)
	require.NoError(t, err)
	require.Equal(t, "example.com", csr.Subject.CommonName)
	require.ElementsMatch(t, []string{"example.com", "www.example.com"}, csr.DNSNames)
	require.NoError(t, csr.CheckSignature())
}

func TestGenerateCSRRejectsEmptyNames(t *testing.T) {
	signer, err := NewSigner("ecdsa")
	require.NoError(t, err)

	_, _, err = GenerateCSR(signer, nil)
	require.Error(t, err)
}
