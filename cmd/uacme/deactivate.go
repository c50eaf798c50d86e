package main

import (
	"github.com/spf13/cobra"
)

func newDeactivateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate",
		Short: "Deactivate the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireAccountKey(flags); err != nil {
				return err
			}
			session, err := newSession(flags)
			if err != nil {
				return err
			}
			return session.DeactivateAccount()
		},
	}
}
