package client

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Well-known directory entry names.
const (
	EndpointNewNonce   = "newNonce"
	EndpointNewAccount = "newAccount"
	EndpointNewOrder   = "newOrder"
	EndpointRevokeCert = "revokeCert"
)

// Bootstrap fetches the ACME server's directory and its first nonce. It
// must be called once before any signed request is made.
func (s *Session) Bootstrap() error {
	status, err := s.fetch(s.DirectoryURL.String())
	if err != nil {
		return err
	}
	if status != 200 {
		return newError(KindProtocol, "bootstrap",
			errors.Errorf("directory returned status %d, expected 200", status))
	}

	var dir map[string]any
	if err := json.Unmarshal(s.lastBody, &dir); err != nil {
		return newError(KindProtocol, "bootstrap: parse directory", err)
	}
	s.directory = dir
	s.Log.Debug().Str("url", s.DirectoryURL.String()).Msg("fetched directory")

	return s.refreshNonce()
}

// EndpointURL looks up a named entry (e.g. "newAccount") in the cached
// directory.
func (s *Session) EndpointURL(name string) (string, bool) {
	if s.directory == nil {
		return "", false
	}
	v, ok := s.directory[name]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	if !ok || str == "" {
		return "", false
	}
	return str, true
}

// TermsOfServiceURL returns the directory's meta.termsOfService URL, if any.
func (s *Session) TermsOfServiceURL() (string, bool) {
	meta, ok := s.directory["meta"].(map[string]any)
	if !ok {
		return "", false
	}
	tos, ok := meta["termsOfService"].(string)
	if !ok || tos == "" {
		return "", false
	}
	return tos, true
}

func (s *Session) refreshNonce() error {
	nonceURL, ok := s.EndpointURL(EndpointNewNonce)
	if !ok {
		return newError(KindProtocol, "refreshNonce",
			errors.Errorf("directory missing %q entry", EndpointNewNonce))
	}

	prevNonce := s.nonce
	status, err := s.fetch(nonceURL)
	if err != nil {
		return err
	}
	if status != 204 {
		return newError(KindProtocol, "refreshNonce",
			errors.Errorf("newNonce returned status %d, expected 204", status))
	}
	if s.nonce == prevNonce {
		return newError(KindProtocol, "refreshNonce",
			errors.New("newNonce response carried no Replay-Nonce header"))
	}
	s.Log.Debug().Str("nonce", s.nonce).Msg("refreshed nonce")
	return nil
}
