package client

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeSelfSignedCert(t *testing.T) (path string, der []byte) {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "example.net"},
		DNSNames:     []string{"example.net"},
		NotBefore:    time.Unix(0, 0),
		NotAfter:     time.Unix(0, 0).Add(24 * time.Hour),
	}
	der, err = x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)

	path = filepath.Join(t.TempDir(), "cert.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o644))
	return path, der
}

// Revoking a certificate with a specific CRLReason code.
func TestRevokeCertificate(t *testing.T) {
	certPath, der := writeSelfSignedCert(t)

	mux := http.NewServeMux()
	var seenPayload map[string]any
	mux.HandleFunc("/revoke-cert", func(w http.ResponseWriter, r *http.Request) {
		seenPayload = decodeJWSPayload(t, readBody(t, r))
		w.Header().Set("Replay-Nonce", "revoke-nonce")
		w.WriteHeader(http.StatusOK)
	})

	srv := testDirectory(t, mux, nil)
	session := newTestSession(t, srv)

	require.NoError(t, session.RevokeCertificate(certPath, 1))

	require.Equal(t, float64(1), seenPayload["reason"])
	gotDER, ok := seenPayload["certificate"].(string)
	require.True(t, ok)
	require.Equal(t, base64.RawURLEncoding.EncodeToString(der), gotDER)
}
