// Package client implements the ACMEv2 (RFC 8555) protocol state machine:
// a Session holding account/domain keys, directory, nonce and kid, the
// signed-request transport built on it, and the account/order/authorization/
// revocation controllers that drive the protocol to completion.
package client

import (
	"crypto"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cpu/uacme/acme/keys"
	"github.com/cpu/uacme/acme/resources"
	acmenet "github.com/cpu/uacme/net"
)

// PollConfig bounds the polling loops used while waiting for order and
// challenge status transitions. The zero value reproduces
// the original unbounded 5 second poll.
type PollConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

func (p PollConfig) interval() time.Duration {
	if p.Interval <= 0 {
		return 5 * time.Second
	}
	return p.Interval
}

// Session is the sole owner of all mutable ACME protocol state for a single
// CLI invocation: the account and domain keypairs, the server's directory,
// the current nonce, the account's kid, and the latest account/order JSON
// snapshots. It is not safe for concurrent use, nor does it need to be --
// the protocol state machine is strictly sequential.
type Session struct {
	// DirectoryURL is the ACME server's directory endpoint.
	DirectoryURL *url.URL
	// AccountKey signs every request once established.
	AccountKey crypto.Signer
	// DomainKey signs CSRs during order finalization. Populated only by the
	// issue command.
	DomainKey crypto.Signer

	// Account is the most recently fetched/created Account snapshot.
	Account *resources.Account
	// Order is the most recently fetched/created Order snapshot.
	Order *resources.Order

	// Poll bounds the status-polling loops used by the order and
	// authorization controllers.
	Poll PollConfig

	Log zerolog.Logger

	net          *acmenet.Client
	directory    map[string]any
	nonce        string
	kid          string
	lastStatus   int
	lastBody     []byte
	lastLocation string
	lastProblem  *resources.Problem
}

// Config configures a new Session.
type Config struct {
	DirectoryURL string
	CACert       string
	AccountKey   crypto.Signer
	Log          zerolog.Logger
	Poll         PollConfig
}

// NewSession builds a Session bound to the given directory URL and account
// key. It does not perform any network I/O; call Bootstrap to fetch the
// directory and the first nonce.
func NewSession(cfg Config) (*Session, error) {
	dirURL := strings.TrimSpace(cfg.DirectoryURL)
	if dirURL == "" {
		return nil, errors.New("NewSession: DirectoryURL must not be empty")
	}
	parsed, err := url.Parse(dirURL)
	if err != nil {
		return nil, errors.Wrap(err, "NewSession: invalid DirectoryURL")
	}

	netClient, err := acmenet.New(cfg.CACert)
	if err != nil {
		return nil, errors.Wrap(err, "NewSession: building HTTP client")
	}

	if cfg.AccountKey == nil {
		return nil, errors.New("NewSession: AccountKey must not be nil")
	}

	return &Session{
		DirectoryURL: parsed,
		AccountKey:   cfg.AccountKey,
		Poll:         cfg.Poll,
		Log:          cfg.Log,
		net:          netClient,
	}, nil
}

// KID returns the account's canonical URL, or an empty string before an
// account has been established with the server.
func (s *Session) KID() string {
	return s.kid
}

// Nonce implements jose.NonceSource by returning (and consuming) the
// Session's current nonce. signAndSend is the only caller; it always
// refreshes s.nonce from the response before the next call, so a consumed
// nonce is never reused.
func (s *Session) Nonce() (string, error) {
	if s.nonce == "" {
		return "", fmt.Errorf("need a nonce first")
	}
	n := s.nonce
	s.nonce = ""
	return n, nil
}

// NewCSR generates a CSR for names signed by the Session's DomainKey,
// generating a fresh ECDSA P-256 DomainKey first if one hasn't been loaded.
func (s *Session) NewCSR(names []string) (der []byte, b64 string, err error) {
	if s.DomainKey == nil {
		signer, err := keys.NewSigner("ecdsa")
		if err != nil {
			return nil, "", err
		}
		s.DomainKey = signer
	}
	return keys.GenerateCSR(s.DomainKey, names)
}
