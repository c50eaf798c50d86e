package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cpu/uacme/acme/client"
	"github.com/cpu/uacme/acme/keys"
	"github.com/cpu/uacme/internal/cmdutil"
	"github.com/cpu/uacme/internal/confirm"
	"github.com/cpu/uacme/internal/domainvalidate"
	"github.com/cpu/uacme/internal/hook"
	"github.com/cpu/uacme/internal/layout"
)

func newIssueCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "issue DOMAIN [ALTNAME...]",
		Short: "Issue (or reissue) a certificate",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIssue(flags, args)
		},
	}
}

func runIssue(flags *globalFlags, names []string) error {
	for _, name := range names {
		if !domainvalidate.Valid(name) {
			return fmt.Errorf("invalid domain name %q", name)
		}
	}

	if err := requireAccountKey(flags); err != nil {
		return err
	}

	baseDomain := domainvalidate.BaseDomain(names[0])
	l := layout.New(flags.confDir)

	if !flags.force {
		if certs, err := keys.LoadCertificateChain(l.CertPath(baseDomain)); err == nil {
			if keys.CertificateIsFresh(certs, names, time.Duration(flags.days)*24*time.Hour, certNow()) {
				fmt.Println("certificate is still fresh, skipping reissue (use -f to force)")
				return nil
			}
		}
	}

	if !flags.neverCreate {
		if err := l.EnsureDomainTree(baseDomain); err != nil {
			return err
		}
	}

	domainKey, err := keys.LoadSignerPEM(l.DomainKeyPath(baseDomain))
	if err != nil {
		if flags.neverCreate {
			return fmt.Errorf("domain key not found at %q and -n prevents creating one", l.DomainKeyPath(baseDomain))
		}
		domainKey, err = keys.NewSigner("ecdsa")
		if err != nil {
			return err
		}
		if err := keys.SaveSignerPEM(l.DomainKeyPath(baseDomain), domainKey); err != nil {
			return err
		}
	}

	accountKey, err := keys.LoadSignerPEM(l.AccountKeyPath())
	if err != nil {
		return err
	}

	logger := cmdutil.NewLogger(flags.verbosity)
	session, err := client.NewSession(client.Config{
		DirectoryURL: flags.resolveDirectoryURL(),
		CACert:       flags.caCert,
		AccountKey:   accountKey,
		Log:          logger,
	})
	if err != nil {
		return err
	}
	session.DomainKey = domainKey

	if err := session.Bootstrap(); err != nil {
		return err
	}
	if err := session.RetrieveAccount(); err != nil {
		return err
	}

	var hookRunner client.HookRunner
	var confirmer client.Confirmer
	if flags.hook != "" {
		hookRunner = hook.New(flags.hook, logger)
	} else {
		confirmer = confirm.Terminal{In: os.Stdin, Out: os.Stdout}
	}

	ctx, stop := cmdutil.SignalContext()
	defer stop()

	chain, err := session.NewOrder(ctx, names, hookRunner, confirmer)
	if err != nil {
		return err
	}

	return keys.SaveCertificateChain(l.CertPath(baseDomain), chain)
}

// certNow is a seam for certificate freshness comparisons; kept as a
// function rather than a direct time.Now() call so tests can substitute it.
var certNow = func() time.Time { return time.Now() }
