package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/cpu/uacme/acme/keys"
	"github.com/cpu/uacme/acme/resources"
)

// HookRunner abstracts invoking the external challenge validator. Begin
// corresponds to the hook ABI's "begin" method: accept reports whether the
// hook provisioned a response for this challenge type (exit code 0), false
// means the hook declined it (exit code > 0), and a non-nil err means the
// hook failed to execute at all (negative exit code sentinel) and the whole
// authorization must abort. Done and Failed correspond to the "done" and
// "failed" cleanup methods; their outcome is not surfaced to the caller,
// matching the hook ABI's "exit code is ignored" rule for cleanup calls.
type HookRunner interface {
	Begin(challengeType, identifier, token, keyAuth string) (accept bool, err error)
	Done(challengeType, identifier, token, keyAuth string)
	Failed(challengeType, identifier, token, keyAuth string)
}

// ProcessAuthorizations walks every authorization URL on the current order,
// satisfying one pending challenge per identifier via hook (when non-nil)
// or via interactive confirmation otherwise.
func (s *Session) ProcessAuthorizations(ctx context.Context, hook HookRunner, confirm Confirmer) error {
	for _, authzURL := range s.Order.Authorizations {
		if err := s.processAuthorization(ctx, authzURL, hook, confirm); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) processAuthorization(ctx context.Context, authzURL string, hook HookRunner, confirm Confirmer) error {
	const op = "authorization"

	status, err := s.postToURL(authzURL, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return s.protocolOrProblemError(op, status)
	}

	var authz resources.Authorization
	if err := json.Unmarshal(s.lastBody, &authz); err != nil {
		return newError(KindProtocol, op, err)
	}
	authz.ID = authzURL

	if authz.Status == "valid" {
		s.Log.Debug().Str("authorization", authzURL).Msg("already valid, skipping")
		return nil
	}
	if authz.Status != "pending" {
		return newError(KindProtocol, op, errors.Errorf("authorization status is %q, expected pending", authz.Status))
	}
	if authz.Identifier.Type != "dns" {
		return newError(KindProtocol, op, errors.Errorf("unsupported identifier type %q", authz.Identifier.Type))
	}

	thumbprint := keys.JWKThumbprint(s.AccountKey)

	for _, chall := range authz.Challenges {
		if chall.Status != "pending" {
			continue
		}

		keyAuth := keyAuthorization(chall.Type, chall.Token, thumbprint)

		accept, err := s.beginChallenge(chall, authz.Identifier.Value, keyAuth, hook, confirm)
		if err != nil {
			return newError(KindHook, op, err)
		}
		if !accept {
			continue
		}

		outcome := s.satisfyChallenge(ctx, &chall)
		if hook != nil {
			if outcome == nil {
				hook.Done(chall.Type, authz.Identifier.Value, chall.Token, keyAuth)
			} else {
				hook.Failed(chall.Type, authz.Identifier.Value, chall.Token, keyAuth)
			}
		}
		return outcome
	}

	return newError(KindProtocol, op, errors.Errorf("no challenge accepted for %q", authz.Identifier.Value))
}

// beginChallenge asks the hook (or the operator) whether to proceed with
// chall. A nil hook falls back to interactive confirmation.
func (s *Session) beginChallenge(chall resources.Challenge, identifier, keyAuth string, hook HookRunner, confirm Confirmer) (bool, error) {
	if hook != nil {
		return hook.Begin(chall.Type, identifier, chall.Token, keyAuth)
	}
	if confirm == nil {
		return false, nil
	}
	prompt := "Provision " + chall.Type + " challenge for " + identifier + " with key authorization " + keyAuth + "?"
	return confirm.Confirm(prompt), nil
}

// satisfyChallenge activates chall and polls it to completion.
func (s *Session) satisfyChallenge(ctx context.Context, chall *resources.Challenge) error {
	const op = "challenge"

	status, err := s.postToURL(chall.URL, map[string]any{})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return s.protocolOrProblemError(op+": activate", status)
	}

	return s.pollStatus(ctx, op+": poll", chall.URL, []string{"pending", "processing"}, "valid", func(body []byte) (string, error) {
		var updated resources.Challenge
		if err := json.Unmarshal(body, &updated); err != nil {
			return "", err
		}
		*chall = updated
		return updated.Status, nil
	})
}

// keyAuthorization computes the challenge's key authorization per RFC 8555
// section 8.1: dns-01 hashes token.thumbprint with SHA-256, every other
// challenge type uses the plain token.thumbprint string.
func keyAuthorization(challengeType, token, thumbprint string) string {
	plain := token + "." + thumbprint
	if challengeType != "dns-01" {
		return plain
	}
	return keys.DNS01KeyAuthorization(plain)
}
