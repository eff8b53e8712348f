package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicecomplaint/internal/domain"
)

func NewRecordsCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "Show the signed-in account and its previous complaints",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := deps.Identity.Current(cmd.Context()); !ok {
				return domain.ErrNotSignedIn
			}
			record, err := deps.Records.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading records: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s> %s\n", record.Username, record.Email, record.PhoneNumber)
			if len(record.PreviousComplaints) == 0 {
				fmt.Fprintln(out, "No complaints found")
				return nil
			}
			for _, entry := range record.PreviousComplaints {
				fmt.Fprintf(out, "  %s  %s\n", entry.Date.Local().Format("2006-01-02 15:04"), entry.ComplaintID)
			}
			return nil
		},
	}
}
