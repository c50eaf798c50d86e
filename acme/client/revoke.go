package client

import (
	"net/http"

	"github.com/cpu/uacme/acme/keys"
)

// RevokeCertificate loads the PEM certificate chain at certPath and revokes
// its leaf with the ACME server, using reason as the RFC 5280 CRLReason
// code (0, "unspecified", if the caller doesn't have a more specific one).
func (s *Session) RevokeCertificate(certPath string, reason int) error {
	const op = "revoke"

	certs, err := keys.LoadCertificateChain(certPath)
	if err != nil {
		return newError(KindFilesystem, op, err)
	}

	derB64, err := keys.LeafDERBase64(certs)
	if err != nil {
		return newError(KindProtocol, op, err)
	}

	status, err := s.postToEndpoint(EndpointRevokeCert, map[string]any{
		"certificate": derB64,
		"reason":      reason,
	})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return s.protocolOrProblemError(op, status)
	}

	s.Log.Info().Str("certificate", certPath).Int("reason", reason).Msg("revoked certificate")
	return nil
}
