package client

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/cpu/uacme/acme/resources"
)

// Confirmer abstracts asking the operator a yes/no question, used when the
// directory advertises terms of service that must be agreed to before
// account creation.
type Confirmer interface {
	Confirm(prompt string) bool
}

type accountResponse struct {
	Status  string   `json:"status"`
	Contact []string `json:"contact,omitempty"`
}

// CreateAccount registers a brand new account, failing if one already
// exists for the Session's AccountKey. email may be empty. confirm is asked
// to agree to the terms of service only when the directory advertises
// meta.termsOfService.
func (s *Session) CreateAccount(email string, confirm Confirmer) error {
	const op = "createAccount"

	status, err := s.postToEndpoint(EndpointNewAccount, map[string]any{"onlyReturnExisting": true})
	if err != nil {
		return err
	}

	if status == http.StatusOK {
		s.kid = s.lastLocation
		return newError(KindInput, op, errors.Errorf(
			"an account already exists for this key at %q", s.kid))
	}

	if status != http.StatusBadRequest || !s.lastProblem.Is(resources.ErrAccountDoesNotExist) {
		return s.protocolOrProblemError(op, status)
	}

	if tosURL, ok := s.TermsOfServiceURL(); ok {
		if confirm != nil && !confirm.Confirm("Agree to terms of service at "+tosURL+"?") {
			return newError(KindInput, op, errors.New("terms of service not accepted"))
		}
	}

	payload := map[string]any{"termsOfServiceAgreed": true}
	if email != "" {
		payload["contact"] = []string{"mailto:" + email}
	}

	status, err = s.postToEndpoint(EndpointNewAccount, payload)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return s.protocolOrProblemError(op, status)
	}
	if s.lastLocation == "" {
		return newError(KindProtocol, op, errors.New("newAccount response had no Location header"))
	}

	var acctResp accountResponse
	if err := json.Unmarshal(s.lastBody, &acctResp); err != nil {
		return newError(KindProtocol, op, err)
	}
	if acctResp.Status != "valid" {
		return newError(KindProtocol, op, errors.Errorf("account status is %q, expected valid", acctResp.Status))
	}

	s.kid = s.lastLocation
	s.Account = &resources.Account{ID: s.kid, Contact: acctResp.Contact, PrivateKey: s.AccountKey}
	s.Log.Info().Str("kid", s.kid).Msg("created account")
	return nil
}

// RetrieveAccount fetches the existing account associated with the
// Session's AccountKey, populating kid and Account on success.
func (s *Session) RetrieveAccount() error {
	const op = "retrieveAccount"

	status, err := s.postToEndpoint(EndpointNewAccount, map[string]any{"onlyReturnExisting": true})
	if err != nil {
		return err
	}

	if status == http.StatusBadRequest && s.lastProblem.Is(resources.ErrAccountDoesNotExist) {
		return newError(KindInput, op, errors.New("no account exists for this key; run the \"new\" command first"))
	}
	if status != http.StatusOK {
		return s.protocolOrProblemError(op, status)
	}
	if s.lastLocation == "" {
		return newError(KindProtocol, op, errors.New("account response had no Location header"))
	}

	var acctResp accountResponse
	if err := json.Unmarshal(s.lastBody, &acctResp); err != nil {
		return newError(KindProtocol, op, err)
	}
	if acctResp.Status != "valid" {
		return newError(KindProtocol, op, errors.Errorf("account status is %q, expected valid", acctResp.Status))
	}

	s.kid = s.lastLocation
	s.Account = &resources.Account{ID: s.kid, Contact: acctResp.Contact, PrivateKey: s.AccountKey}
	return nil
}

// UpdateAccountEmail changes the account's contact email, if it differs
// from what the server currently has on file (case-insensitively compared
// after the "mailto:" prefix; an empty email clears the contact list).
func (s *Session) UpdateAccountEmail(email string) error {
	const op = "updateAccount"

	if err := s.RetrieveAccount(); err != nil {
		return err
	}

	current := currentCanonicalEmail(s.Account.Contact)
	if strings.EqualFold(current, email) {
		s.Log.Info().Msg("contact already up to date")
		return nil
	}

	payload := map[string]any{"contact": []string{}}
	if email != "" {
		payload["contact"] = []string{"mailto:" + email}
	}

	status, err := s.postToURL(s.kid, payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return s.protocolOrProblemError(op, status)
	}
	s.Log.Info().Str("email", email).Msg("updated account contact")
	return nil
}

// DeactivateAccount irrevocably deactivates the account.
func (s *Session) DeactivateAccount() error {
	const op = "deactivateAccount"

	if s.kid == "" {
		if err := s.RetrieveAccount(); err != nil {
			return err
		}
	}

	status, err := s.postToURL(s.kid, map[string]any{"status": "deactivated"})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return s.protocolOrProblemError(op, status)
	}
	s.Log.Info().Str("kid", s.kid).Msg("deactivated account")
	return nil
}

// currentCanonicalEmail returns the bare email address from the first
// "mailto:" contact, or an empty string if there isn't one.
func currentCanonicalEmail(contacts []string) string {
	for _, c := range contacts {
		if len(c) > len("mailto:") && strings.EqualFold(c[:len("mailto:")], "mailto:") {
			return c[len("mailto:"):]
		}
	}
	return ""
}

// protocolOrProblemError classifies a non-2xx response as either an
// AcmeProblem error (when the server sent a problem document) or a generic
// Protocol error (unexpected status with no problem document). A problem
// document is also logged in full at Warn level.
func (s *Session) protocolOrProblemError(op string, status int) error {
	if s.lastProblem != nil {
		s.Log.Warn().
			Str("type", s.lastProblem.Type).
			Str("detail", s.lastProblem.Detail).
			Int("status", s.lastProblem.Status).
			RawJSON("body", s.lastBody).
			Msg("ACME server returned a problem document")
		return newProblemError(op, s.lastProblem)
	}
	return newError(KindProtocol, op, errors.Errorf("unexpected status %d", status))
}
