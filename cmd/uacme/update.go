package main

import (
	"github.com/spf13/cobra"
)

func newUpdateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "update [EMAIL]",
		Short: "Update the account's contact email",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := ""
			if len(args) == 1 {
				email = args[0]
			}

			if err := requireAccountKey(flags); err != nil {
				return err
			}
			session, err := newSession(flags)
			if err != nil {
				return err
			}
			return session.UpdateAccountEmail(email)
		},
	}
}
