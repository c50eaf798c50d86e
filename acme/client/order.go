package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/cpu/uacme/acme/resources"
)

// NewOrder creates a new Order for the given DNS names, drives any pending
// authorizations to completion via the given hook/confirm, polls until the
// order is ready, finalizes it with a CSR, polls until the certificate is
// issued, and returns the downloaded certificate chain as PEM bytes.
func (s *Session) NewOrder(ctx context.Context, names []string, hook HookRunner, confirm Confirmer) ([]byte, error) {
	if err := s.createOrder(names); err != nil {
		return nil, err
	}

	if s.Order.Status == "pending" {
		if err := s.ProcessAuthorizations(ctx, hook, confirm); err != nil {
			return nil, err
		}
	}

	if err := s.pollOrder(ctx, []string{"pending", "ready"}, "ready"); err != nil {
		return nil, err
	}

	if err := s.finalize(names); err != nil {
		return nil, err
	}

	if err := s.pollOrder(ctx, []string{"processing", "valid"}, "valid"); err != nil {
		return nil, err
	}

	return s.downloadCertificate()
}

const opOrder = "order"

func (s *Session) createOrder(names []string) error {
	payload := resources.IdentifiersRequest{Identifiers: resources.DNSIdentifiers(names)}

	status, err := s.postToEndpoint(EndpointNewOrder, payload)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return s.protocolOrProblemError(opOrder+": create", status)
	}
	if s.lastLocation == "" {
		return newError(KindProtocol, opOrder+": create", errors.New("newOrder response had no Location header"))
	}

	var order resources.Order
	if err := json.Unmarshal(s.lastBody, &order); err != nil {
		return newError(KindProtocol, opOrder+": create", err)
	}
	order.ID = s.lastLocation

	if order.Status != "pending" && order.Status != "ready" {
		return newError(KindProtocol, opOrder+": create",
			errors.Errorf("order status is %q, expected pending or ready", order.Status))
	}

	s.Order = &order
	s.Log.Info().Str("order", order.ID).Strs("names", names).Msg("created order")
	return nil
}

// pollOrder polls the current order until its status equals want, sleeping
// Poll.interval() between attempts, and failing if the status ever falls
// outside of allowed or the poll is cancelled or exhausts Poll.MaxAttempts.
func (s *Session) pollOrder(ctx context.Context, allowed []string, want string) error {
	return s.pollStatus(ctx, opOrder+": poll", s.Order.ID, allowed, want, func(body []byte) (string, error) {
		var order resources.Order
		if err := json.Unmarshal(body, &order); err != nil {
			return "", err
		}
		order.ID = s.Order.ID
		s.Order = &order
		return order.Status, nil
	})
}

func (s *Session) finalize(names []string) error {
	_, b64CSR, err := s.NewCSR(names)
	if err != nil {
		return newError(KindProtocol, opOrder+": finalize", err)
	}

	status, err := s.postToURL(s.Order.Finalize, map[string]string{"csr": b64CSR})
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return s.protocolOrProblemError(opOrder+": finalize", status)
	}

	var order resources.Order
	if err := json.Unmarshal(s.lastBody, &order); err != nil {
		return newError(KindProtocol, opOrder+": finalize", err)
	}
	order.ID = s.Order.ID
	s.Order = &order
	return nil
}

func (s *Session) downloadCertificate() ([]byte, error) {
	if s.Order.Certificate == "" {
		return nil, newError(KindProtocol, opOrder+": download", errors.New("order has no certificate URL"))
	}

	status, err := s.postToURL(s.Order.Certificate, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, s.protocolOrProblemError(opOrder+": download", status)
	}

	return s.lastBody, nil
}

// pollStatus is the shared polling loop used by the order and challenge
// state machines. It POST-as-GETs url, applies update to the
// response body to extract the latest status, and repeats until want is
// reached, an allowed status is violated, ctx is cancelled, or
// Poll.MaxAttempts is exhausted.
func (s *Session) pollStatus(ctx context.Context, opName, url string, allowed []string, want string, update func([]byte) (string, error)) error {
	for attempt := 0; ; attempt++ {
		status, err := s.postToURL(url, nil)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return s.protocolOrProblemError(opName, status)
		}

		current, err := update(s.lastBody)
		if err != nil {
			return newError(KindProtocol, opName, err)
		}

		if current == want {
			return nil
		}
		if !contains(allowed, current) {
			return newError(KindProtocol, opName,
				errors.Errorf("status %q is not one of %v while waiting for %q", current, allowed, want))
		}

		if s.Poll.MaxAttempts > 0 && attempt+1 >= s.Poll.MaxAttempts {
			return newError(KindProtocol, opName, errors.Errorf("exceeded %d poll attempts waiting for %q", s.Poll.MaxAttempts, want))
		}

		select {
		case <-ctx.Done():
			return newError(KindTransport, opName, ctx.Err())
		case <-time.After(s.Poll.interval()):
		}
	}
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
