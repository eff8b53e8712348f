package cli

import (
	"context"

	"github.com/spf13/cobra"

	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/ports"
)

// Submitter runs the submission pipeline outside the wizard.
type Submitter interface {
	Submit(ctx context.Context, identity domain.Identity, draft domain.ComplaintDraft) (domain.SubmissionResult, error)
	Wait()
}

type RecordsLoader interface {
	Load(ctx context.Context) (domain.AccountRecord, error)
}

type Registrar interface {
	EnsureRegistered(ctx context.Context) (bool, error)
}

type Dependencies struct {
	Identity  ports.IdentityProvider
	Resolver  ports.AddressResolver
	Pipeline  Submitter
	Records   RecordsLoader
	Registrar Registrar
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "complaintctl",
		Short:         "File and inspect scam-call complaints",
		Long:          "A command line companion to the complaint desktop app: submit a complaint from a draft file, resolve pincodes, and list previous complaints.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewSubmitCmd(deps))
	rootCmd.AddCommand(NewPincodeCmd(deps))
	rootCmd.AddCommand(NewRecordsCmd(deps))
	rootCmd.AddCommand(NewRegisterCmd(deps))

	return rootCmd
}
