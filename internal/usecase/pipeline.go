package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/ports"
)

// SubmissionStage names one ordered step of the submission pipeline.
type SubmissionStage string

const (
	StageLookup   SubmissionStage = "lookup"
	StageRegister SubmissionStage = "register"
	StageNotify   SubmissionStage = "notify"
)

const (
	lookupFallbackMessage   = "Failed to fetch user ID"
	registerFallbackMessage = "Failed to submit complaint"
)

// SubmissionError is a fatal pipeline failure. Message is shown to the user.
type SubmissionError struct {
	Stage   SubmissionStage
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// PipelineConfig controls the best-effort confirmation step.
type PipelineConfig struct {
	NotifyTimeout time.Duration
}

// SubmissionPipeline runs lookup -> register -> notify. The notify step is
// started after a successful registration and never affects the result.
type SubmissionPipeline struct {
	backend ports.ComplaintBackend
	cfg     PipelineConfig

	wg sync.WaitGroup
}

func NewSubmissionPipeline(backend ports.ComplaintBackend, cfg PipelineConfig) *SubmissionPipeline {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 15 * time.Second
	}
	return &SubmissionPipeline{backend: backend, cfg: cfg}
}

// Submit registers a complete draft for identity.
func (p *SubmissionPipeline) Submit(ctx context.Context, identity domain.Identity, draft domain.ComplaintDraft) (domain.SubmissionResult, error) {
	log.Info().Str("stage", string(StageLookup)).Msg("Resolving account")
	account, err := p.backend.LookupAccount(ctx, identity.ID)
	if err == nil && account.ID == "" {
		err = domain.ErrUserNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("stage", string(StageLookup)).Msg("Account lookup failed")
		return domain.SubmissionResult{}, &SubmissionError{
			Stage:   StageLookup,
			Message: userMessage(err, lookupFallbackMessage),
			Err:     err,
		}
	}

	log.Info().Str("stage", string(StageRegister)).Str("account_id", account.ID).Msg("Registering complaint")
	receipt, err := p.backend.RegisterComplaint(ctx, ports.ComplaintSubmission{
		AccountID: account.ID,
		Identity:  identity,
		Draft:     draft,
	})
	if err != nil {
		log.Error().Err(err).Str("stage", string(StageRegister)).Str("account_id", account.ID).Msg("Complaint registration failed")
		return domain.SubmissionResult{}, &SubmissionError{
			Stage:   StageRegister,
			Message: userMessage(err, registerFallbackMessage),
			Err:     err,
		}
	}
	if receipt.DisplayName == "" {
		receipt.DisplayName = draft.Name
	}
	if receipt.Email == "" {
		receipt.Email = identity.Email
	}
	log.Info().
		Str("stage", string(StageRegister)).
		Str("account_id", account.ID).
		Str("complaint_id", receipt.ComplaintID).
		Msg("Complaint registered")

	p.wg.Add(1)
	go p.notify(context.WithoutCancel(ctx), receipt)

	return domain.SubmissionResult{AccountID: account.ID, Receipt: receipt}, nil
}

// Wait blocks until every started confirmation has finished.
func (p *SubmissionPipeline) Wait() {
	p.wg.Wait()
}

func (p *SubmissionPipeline) notify(ctx context.Context, receipt domain.ComplaintReceipt) {
	defer p.wg.Done()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.NotifyTimeout)
	defer cancel()

	if err := p.backend.SendConfirmation(ctx, receipt); err != nil {
		log.Warn().
			Err(err).
			Str("stage", string(StageNotify)).
			Str("complaint_id", receipt.ComplaintID).
			Msg("Confirmation notice failed; complaint is registered")
		return
	}
	log.Info().Str("stage", string(StageNotify)).Str("complaint_id", receipt.ComplaintID).Msg("Confirmation notice sent")
}

// userMessage prefers the backend-supplied reason over the fallback.
func userMessage(err error, fallback string) string {
	var backendErr *domain.BackendError
	if errors.As(err, &backendErr) && backendErr.Message != "" {
		return backendErr.Message
	}
	if errors.Is(err, domain.ErrUserNotFound) {
		return "No account found for the signed-in user"
	}
	return fallback
}
