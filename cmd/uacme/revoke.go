package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cpu/uacme/acme/client"
	"github.com/cpu/uacme/acme/keys"
	"github.com/cpu/uacme/internal/cmdutil"
)

// crlReasons maps the names accepted by revoke's --reason flag to their
// RFC 5280 CRLReason codes.
var crlReasons = map[string]int{
	"unspecified":          0,
	"keyCompromise":        1,
	"superseded":           4,
	"cessationOfOperation": 5,
}

func newRevokeCmd(flags *globalFlags) *cobra.Command {
	var reasonName string

	cmd := &cobra.Command{
		Use:   "revoke CERTFILE",
		Short: "Revoke a previously issued certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, ok := crlReasons[reasonName]
			if !ok {
				return fmt.Errorf("unknown revocation reason %q", reasonName)
			}
			return runRevoke(flags, args[0], reason)
		},
	}
	cmd.Flags().StringVar(&reasonName, "reason", "unspecified", "CRL revocation reason")
	return cmd
}

func runRevoke(flags *globalFlags, certPath string, reason int) error {
	if err := requireAccountKey(flags); err != nil {
		return err
	}

	accountKey, err := keys.LoadSignerPEM(accountKeyPathFor(flags))
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
	if err := session.Bootstrap(); err != nil {
		return err
	}

	return session.RevokeCertificate(certPath, reason)
}
