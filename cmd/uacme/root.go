package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cpu/uacme/acme/client"
	"github.com/cpu/uacme/acme/keys"
	"github.com/cpu/uacme/internal/cmdutil"
	"github.com/cpu/uacme/internal/layout"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "uacme",
		Short:         "A minimal ACMEv2 client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if versionRequested(cmd) {
				fmt.Println("uacme", version)
				os.Exit(0)
			}
			return nil
		},
		// A runnable root lets cobra reach PersistentPreRunE for a bare
		// "uacme -V"; without a subcommand it prints the help text.
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	persistent := root.PersistentFlags()
	persistent.StringVarP(&flags.directoryURL, "acme-url", "a", "", "ACME directory URL (overrides -s)")
	persistent.StringVarP(&flags.confDir, "confdir", "c", defaultConfDir, "configuration directory")
	persistent.IntVarP(&flags.days, "days", "d", defaultDays, "reissue if fewer than this many days remain")
	persistent.BoolVarP(&flags.force, "force", "f", false, "force reissue even if the certificate is still fresh")
	persistent.StringVarP(&flags.hook, "hook", "h", "", "path to the challenge validation hook program")
	persistent.BoolVarP(&flags.neverCreate, "never-create", "n", false, "never create directories or keys")
	persistent.BoolVarP(&flags.staging, "staging", "s", false, "use the CA's staging directory")
	persistent.CountVarP(&flags.verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	persistent.BoolVarP(&flags.autoAccept, "yes", "y", false, "automatically accept the terms of service")
	persistent.StringVar(&flags.caCert, "ca-cert", "", "trust this PEM CA bundle instead of the system roots")
	root.Flags().BoolP("version", "V", false, "print the version and exit")

	root.AddCommand(
		newNewCmd(flags),
		newUpdateCmd(flags),
		newDeactivateCmd(flags),
		newIssueCmd(flags),
		newRevokeCmd(flags),
	)

	return root
}

func versionRequested(cmd *cobra.Command) bool {
	v, err := cmd.Flags().GetBool("version")
	return err == nil && v
}

// newSession loads the account key from disk, which must already exist, and
// bootstraps a client Session against the directory. "new", "issue" and
// "revoke" build their own Session instead.
func newSession(flags *globalFlags) (*client.Session, error) {
	l := layout.New(flags.confDir)

	accountKey, err := keys.LoadSignerPEM(l.AccountKeyPath())
	if err != nil {
		return nil, fmt.Errorf("loading account key: %w", err)
	}

	logger := cmdutil.NewLogger(flags.verbosity)

	session, err := client.NewSession(client.Config{
		DirectoryURL: flags.resolveDirectoryURL(),
		CACert:       flags.caCert,
		AccountKey:   accountKey,
		Log:          logger,
	})
	if err != nil {
		return nil, err
	}

	if err := session.Bootstrap(); err != nil {
		return nil, err
	}
	return session, nil
}

// accountKeyPathFor returns the account key path under flags.confDir.
func accountKeyPathFor(flags *globalFlags) string {
	return layout.New(flags.confDir).AccountKeyPath()
}

// requireAccountKey enforces that every subcommand except "new" must have
// an already-established account key before doing any network I/O.
func requireAccountKey(flags *globalFlags) error {
	return layout.New(flags.confDir).RequireAccountKey()
}
