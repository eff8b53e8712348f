package bootstrap

import (
	"voicecomplaint/internal/audio"
	"voicecomplaint/internal/capture"
	"voicecomplaint/internal/config"
	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/logging"
	"voicecomplaint/internal/ports"
	"voicecomplaint/internal/providers/backend"
	"voicecomplaint/internal/providers/identity"
	"voicecomplaint/internal/providers/pincode"
	"voicecomplaint/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Wizard    *usecase.WizardController
	Pipeline  *usecase.SubmissionPipeline
	Registrar *usecase.AccountRegistrar
	Records   *usecase.RecordsQuery
	Resolver  ports.AddressResolver
	Identity  ports.IdentityProvider
	Config    config.Config

	store *audio.TempStore
}

// Close stops the wizard and removes stored audio.
func (s Services) Close() error {
	if s.Wizard != nil {
		s.Wizard.Close()
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink, navigator ports.Navigator) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	logging.Init(cfg.Log.Level, cfg.Log.Pretty)

	client, err := backend.NewClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	})
	if err != nil {
		return Services{}, err
	}

	flags, err := identity.NewFlagStore(cfg.State.Dir)
	if err != nil {
		return Services{}, err
	}

	store, err := audio.NewTempStore("")
	if err != nil {
		return Services{}, err
	}

	who := identity.NewStatic(domain.Identity{
		ID:          cfg.Identity.ID,
		DisplayName: cfg.Identity.DisplayName,
		Phone:       cfg.Identity.Phone,
		Email:       cfg.Identity.Email,
	})
	resolver := pincode.NewClient(pincode.Config{
		BaseURL: cfg.Pincode.BaseURL,
		Timeout: cfg.Pincode.Timeout,
	})
	pipeline := usecase.NewSubmissionPipeline(client, usecase.PipelineConfig{
		NotifyTimeout: cfg.Wizard.NotifyTimeout,
	})

	clock := capture.SystemClock{}
	recorderCfg := capture.RecorderConfig{
		Audio: ports.AudioConfig{
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
			InputFormat: cfg.Audio.InputFormat,
			InputDevice: cfg.Audio.InputDevice,
		},
		ChunkSize: cfg.Audio.ChunkSize,
	}
	newSlot := func(id domain.SlotID) *capture.Slot {
		recorder := capture.NewRecorder(
			audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
			audio.WAVEncoder{},
			audio.NewFFPlayPlayer(cfg.Audio.PlayerCommand),
			store,
			recorderCfg,
		)
		progress := capture.NewProgress(clock, cfg.Transfer.StepPercent, cfg.Transfer.Interval)
		return capture.NewSlot(id, recorder, progress, eventSink, nil)
	}

	wizard := usecase.NewWizardController(
		who,
		resolver,
		pipeline,
		eventSink,
		navigator,
		clock,
		newSlot(domain.SlotVoiceSample),
		newSlot(domain.SlotCallRecording),
		usecase.WizardConfig{RedirectDelay: cfg.Wizard.RedirectDelay},
	)

	return Services{
		Wizard:    wizard,
		Pipeline:  pipeline,
		Registrar: usecase.NewAccountRegistrar(who, client, flags),
		Records:   usecase.NewRecordsQuery(who, client),
		Resolver:  resolver,
		Identity:  who,
		Config:    cfg,
		store:     store,
	}, nil
}
