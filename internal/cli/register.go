package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRegisterCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Register the configured identity with the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			called, err := deps.Registrar.EnsureRegistered(cmd.Context())
			if err != nil {
				return fmt.Errorf("registering account: %w", err)
			}
			if called {
				fmt.Fprintln(cmd.OutOrStdout(), "Account registered")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Account already registered")
			}
			return nil
		},
	}
}
