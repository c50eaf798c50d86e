package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cpu/uacme/acme/client"
	"github.com/cpu/uacme/acme/keys"
	"github.com/cpu/uacme/internal/cmdutil"
	"github.com/cpu/uacme/internal/confirm"
	"github.com/cpu/uacme/internal/layout"
)

func newNewCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "new [EMAIL]",
		Short: "Create a new account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := ""
			if len(args) == 1 {
				email = args[0]
			}
			return runNew(flags, email)
		},
	}
}

func runNew(flags *globalFlags, email string) error {
	l := layout.New(flags.confDir)

	if !flags.neverCreate {
		if err := l.EnsureAccountTree(); err != nil {
			return err
		}
	}

	accountKey, err := keys.LoadSignerPEM(l.AccountKeyPath())
	if err != nil {
		if flags.neverCreate {
			return fmt.Errorf("account key not found at %q and -n prevents creating one", l.AccountKeyPath())
		}
		accountKey, err = keys.NewSigner("ecdsa")
		if err != nil {
			return err
		}
		if err := keys.SaveSignerPEM(l.AccountKeyPath(), accountKey); err != nil {
			return err
		}
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

	var confirmer client.Confirmer
	if flags.autoAccept {
		confirmer = confirm.AlwaysYes{}
	} else {
		confirmer = confirm.Terminal{In: os.Stdin, Out: os.Stdout}
	}

	return session.CreateAccount(email, confirmer)
}
