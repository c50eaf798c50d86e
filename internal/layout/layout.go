// Package layout computes and creates the on-disk directory structure used
// to store account and domain key material and issued certificates.
package layout

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Layout resolves the filesystem paths used under a configuration
// directory.
type Layout struct {
	ConfDir string
}

// New builds a Layout rooted at confDir.
func New(confDir string) Layout {
	return Layout{ConfDir: confDir}
}

// AccountKeyPath is "<confdir>/private/key.pem".
func (l Layout) AccountKeyPath() string {
	return filepath.Join(l.ConfDir, "private", "key.pem")
}

// DomainKeyPath is "<confdir>/private/<domain>/key.pem".
func (l Layout) DomainKeyPath(domain string) string {
	return filepath.Join(l.ConfDir, "private", domain, "key.pem")
}

// CertPath is "<confdir>/<domain>/cert.pem".
func (l Layout) CertPath(domain string) string {
	return filepath.Join(l.ConfDir, domain, "cert.pem")
}

// EnsureAccountTree creates <confdir> (0755) and <confdir>/private (0700) if
// they don't already exist. Used only by the "new" command.
func (l Layout) EnsureAccountTree() error {
	if err := os.MkdirAll(l.ConfDir, 0755); err != nil {
		return errors.Wrapf(err, "creating %q", l.ConfDir)
	}
	privateDir := filepath.Join(l.ConfDir, "private")
	if err := os.MkdirAll(privateDir, 0700); err != nil {
		return errors.Wrapf(err, "creating %q", privateDir)
	}
	return nil
}

// EnsureDomainTree creates <confdir>/private/<domain> (0700) and
// <confdir>/<domain> (0755), used by "issue" before writing the domain key
// and certificate.
func (l Layout) EnsureDomainTree(domain string) error {
	keyDir := filepath.Join(l.ConfDir, "private", domain)
	if err := os.MkdirAll(keyDir, 0700); err != nil {
		return errors.Wrapf(err, "creating %q", keyDir)
	}
	certDir := filepath.Join(l.ConfDir, domain)
	if err := os.MkdirAll(certDir, 0755); err != nil {
		return errors.Wrapf(err, "creating %q", certDir)
	}
	return nil
}

// RequireAccountKey checks that the account key already exists, the
// condition every subcommand except "new" must satisfy.
func (l Layout) RequireAccountKey() error {
	if _, err := os.Stat(l.AccountKeyPath()); err != nil {
		return errors.Wrapf(err, "account key not found at %q; run \"new\" first", l.AccountKeyPath())
	}
	return nil
}
