package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/usecase"
)

func NewSubmitCmd(deps *Dependencies) *cobra.Command {
	var draftPath string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a complaint described by a TOML draft file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			identity, ok := deps.Identity.Current(ctx)
			if !ok {
				return domain.ErrNotSignedIn
			}

			draft, err := loadDraft(ctx, draftPath, deps.Resolver)
			if err != nil {
				return err
			}
			if draft.Name == "" {
				draft.Name = identity.DisplayName
			}
			if err := usecase.ValidateDraft(draft); err != nil {
				return err
			}

			result, err := deps.Pipeline.Submit(ctx, identity, draft)
			if err != nil {
				var submitErr *usecase.SubmissionError
				if errors.As(err, &submitErr) {
					return errors.New(submitErr.Message)
				}
				return err
			}
			// The confirmation mail runs detached; let it finish before exit.
			deps.Pipeline.Wait()

			fmt.Fprintf(cmd.OutOrStdout(), "Complaint %s registered for %s\n", result.Receipt.ComplaintID, result.Receipt.DisplayName)
			return nil
		},
	}

	cmd.Flags().StringVar(&draftPath, "draft", "draft.toml", "path to the complaint draft file")
	return cmd
}
