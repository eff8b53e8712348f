package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"voicecomplaint/internal/bootstrap"
	"voicecomplaint/internal/cli"
	"voicecomplaint/internal/domain"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	services, err := bootstrap.Build(consoleEvents{}, consoleNavigator{})
	if err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	defer services.Close()

	deps := &cli.Dependencies{
		Identity:  services.Identity,
		Resolver:  services.Resolver,
		Pipeline:  services.Pipeline,
		Records:   services.Records,
		Registrar: services.Registrar,
	}
	return cli.NewRootCmd(deps).ExecuteContext(context.Background())
}

// consoleEvents logs wizard events; the CLI never drives the wizard itself.
type consoleEvents struct{}

func (consoleEvents) SlotStateChanged(slot domain.SlotID, state domain.CaptureState) {
	log.Debug().Str("slot", string(slot)).Str("state", string(state)).Msg("Slot state changed")
}

func (consoleEvents) TransferProgress(domain.SlotID, int) {}

func (consoleEvents) WizardChanged(domain.WizardSnapshot) {}

func (consoleEvents) Notify(notice domain.Notice) {
	log.Info().Str("code", string(notice.Code)).Str("title", notice.Title).Msg(notice.Message)
}

type consoleNavigator struct{}

func (consoleNavigator) Navigate(domain.Route) {}
