package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"voicecomplaint/internal/domain"
)

func NewPincodeCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "pincode <code>",
		Short: "Resolve a 6-digit pincode to city, district and state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := deps.Resolver.Resolve(cmd.Context(), args[0])
			if errors.Is(err, domain.ErrAddressNotFound) {
				return fmt.Errorf("could not find location details for pincode %s", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to fetch location details: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "City:     %s\n", addr.City)
			fmt.Fprintf(out, "District: %s\n", addr.District)
			fmt.Fprintf(out, "State:    %s\n", addr.State)
			return nil
		},
	}
}
