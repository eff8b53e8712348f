package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"voicecomplaint/internal/capture"
	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/ports"
)

// WizardConfig controls post-submission behavior.
type WizardConfig struct {
	RedirectDelay time.Duration
}

// WizardController owns the two-step complaint draft and its capture slots.
// The draft is replaced only through the transition functions in draft.go.
type WizardController struct {
	identity  ports.IdentityProvider
	resolver  ports.AddressResolver
	pipeline  *SubmissionPipeline
	events    ports.EventSink
	navigator ports.Navigator
	clock     ports.Clock
	cfg       WizardConfig
	slots     map[domain.SlotID]*capture.Slot

	// recordMu serializes the microphone check with the start it guards.
	// It is never taken while holding mu.
	recordMu sync.Mutex

	mu         sync.Mutex
	step       domain.WizardStep
	draft      domain.ComplaintDraft
	seeded     bool
	signedIn   bool
	resolving  bool
	lookupSeq  uint64
	submitting bool
	redirect   ports.Timer
}

func NewWizardController(
	identity ports.IdentityProvider,
	resolver ports.AddressResolver,
	pipeline *SubmissionPipeline,
	events ports.EventSink,
	navigator ports.Navigator,
	clock ports.Clock,
	voiceSample *capture.Slot,
	callRecording *capture.Slot,
	cfg WizardConfig,
) *WizardController {
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = time.Second
	}
	if clock == nil {
		clock = capture.SystemClock{}
	}
	w := &WizardController{
		identity:  identity,
		resolver:  resolver,
		pipeline:  pipeline,
		events:    events,
		navigator: navigator,
		clock:     clock,
		cfg:       cfg,
		slots: map[domain.SlotID]*capture.Slot{
			domain.SlotVoiceSample:   voiceSample,
			domain.SlotCallRecording: callRecording,
		},
		step:  domain.Step1,
		draft: NewDraft(),
	}
	voiceSample.SetReadyFunc(w.assetReady)
	callRecording.SetReadyFunc(w.assetReady)
	return w
}

// RefreshIdentity reads the identity collaborator. Name and phone are seeded
// the first time an identity is available and never again until a
// successful submission resets the draft.
func (w *WizardController) RefreshIdentity(ctx context.Context) bool {
	identity, ok := w.identity.Current(ctx)

	w.mu.Lock()
	changed := w.signedIn != ok
	w.signedIn = ok
	if ok && !w.seeded {
		w.draft = withSeed(w.draft, identity)
		w.seeded = true
		changed = true
	}
	w.mu.Unlock()

	if changed {
		w.emit()
	}
	return ok
}

// Snapshot returns the current wizard state.
func (w *WizardController) Snapshot() domain.WizardSnapshot {
	w.mu.Lock()
	snapshot := domain.WizardSnapshot{
		Step:          w.step,
		Draft:         draftView(w.draft),
		AddressLocked: w.resolving,
		Submitting:    w.submitting,
		SignedIn:      w.signedIn,
	}
	w.mu.Unlock()

	snapshot.Slots = make(map[domain.SlotID]domain.CaptureState, len(w.slots))
	for id, slot := range w.slots {
		snapshot.Slots[id] = slot.State()
	}
	return snapshot
}

// Draft returns a copy of the current draft.
func (w *WizardController) Draft() domain.ComplaintDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// SetField edits one text field. Pincode edits go through SetPincode.
func (w *WizardController) SetField(ctx context.Context, field domain.Field, value string) error {
	if field == domain.FieldPincode {
		return w.SetPincode(ctx, value)
	}

	w.mu.Lock()
	if field.Derived() && w.resolving {
		w.mu.Unlock()
		return domain.ErrFieldLocked
	}
	next, err := withField(w.draft, field, value)
	if err != nil {
		w.mu.Unlock()
		w.events.Notify(domain.Notice{
			Code:    domain.NoticeInvalidValue,
			Level:   domain.NoticeError,
			Title:   "Invalid value",
			Message: strings.TrimPrefix(err.Error(), domain.ErrInvalidValue.Error()+": "),
		})
		return err
	}
	w.draft = next
	w.mu.Unlock()

	w.emit()
	return nil
}

// SetPincode updates the pincode and resolves the address once it has
// exactly six characters. The derived fields stay locked until the lookup
// settles; a newer edit supersedes an in-flight lookup.
func (w *WizardController) SetPincode(ctx context.Context, pincode string) error {
	w.mu.Lock()
	w.draft = withPincode(w.draft, pincode)
	w.lookupSeq++
	seq := w.lookupSeq
	w.resolving = pincodeComplete(pincode)
	resolving := w.resolving
	w.mu.Unlock()

	w.emit()
	if !resolving {
		return nil
	}

	addr, err := w.resolver.Resolve(ctx, pincode)

	w.mu.Lock()
	if seq != w.lookupSeq {
		w.mu.Unlock()
		log.Debug().Str("pincode", pincode).Msg("Discarding superseded address lookup")
		return nil
	}
	w.resolving = false
	if err != nil {
		w.draft = withoutAddress(w.draft)
	} else {
		w.draft = withAddress(w.draft, addr)
	}
	w.mu.Unlock()

	w.emit()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrAddressNotFound):
		w.events.Notify(domain.Notice{
			Code:    domain.NoticeInvalidPincode,
			Level:   domain.NoticeError,
			Title:   "Invalid Pincode",
			Message: "Could not find location details for this pincode",
		})
	default:
		log.Error().Err(err).Str("pincode", pincode).Msg("Address lookup failed")
		w.events.Notify(domain.Notice{
			Code:    domain.NoticePincodeLookupFailed,
			Level:   domain.NoticeError,
			Title:   "Error",
			Message: "Failed to fetch location details",
		})
	}
	return err
}

// Next advances from step 1 to step 2 when step 1 is complete and no
// address lookup is in flight.
func (w *WizardController) Next() error {
	w.mu.Lock()
	if w.step != domain.Step1 {
		w.mu.Unlock()
		return domain.ErrWrongStep
	}
	if w.resolving {
		w.mu.Unlock()
		return domain.ErrAddressResolving
	}
	missing := MissingFields(w.draft, domain.Step1)
	if len(missing) > 0 {
		w.mu.Unlock()
		w.notifyMissing(missingStepOneMessage)
		return missingFieldsError(missing)
	}
	w.step = domain.Step2
	w.mu.Unlock()

	w.emit()
	return nil
}

// Back returns to step 1, keeping every value entered so far.
func (w *WizardController) Back() {
	w.mu.Lock()
	changed := w.step != domain.Step1
	w.step = domain.Step1
	w.mu.Unlock()

	if changed {
		w.emit()
	}
}

// Submit validates step 2 and runs the submission pipeline. On success the
// draft is reset, slots are cleared and the records view is opened once
// after the redirect delay. On failure the draft is kept as is.
func (w *WizardController) Submit(ctx context.Context) (domain.SubmissionResult, error) {
	identity, ok := w.identity.Current(ctx)
	if !ok {
		w.events.Notify(domain.Notice{
			Code:    domain.NoticeNotSignedIn,
			Level:   domain.NoticeError,
			Title:   "Error",
			Message: "Please sign in to submit a complaint",
		})
		return domain.SubmissionResult{}, domain.ErrNotSignedIn
	}

	w.mu.Lock()
	if w.submitting {
		w.mu.Unlock()
		return domain.SubmissionResult{}, domain.ErrSubmissionInProgress
	}
	if w.step != domain.Step2 {
		w.mu.Unlock()
		return domain.SubmissionResult{}, domain.ErrWrongStep
	}
	if w.resolving {
		w.mu.Unlock()
		return domain.SubmissionResult{}, domain.ErrAddressResolving
	}
	missing := append(MissingFields(w.draft, domain.Step1), MissingFields(w.draft, domain.Step2)...)
	if len(missing) > 0 {
		w.mu.Unlock()
		w.notifyMissing(missingStepTwoMessage)
		return domain.SubmissionResult{}, missingFieldsError(missing)
	}
	w.submitting = true
	draft := w.draft
	w.mu.Unlock()
	w.emit()

	result, err := w.pipeline.Submit(ctx, identity, draft)
	if err != nil {
		w.mu.Lock()
		w.submitting = false
		w.mu.Unlock()
		w.emit()

		message := registerFallbackMessage
		var submissionErr *SubmissionError
		if errors.As(err, &submissionErr) && submissionErr.Message != "" {
			message = submissionErr.Message
		}
		w.events.Notify(domain.Notice{
			Code:    domain.NoticeSubmissionFailed,
			Level:   domain.NoticeError,
			Title:   "Error",
			Message: message,
		})
		return domain.SubmissionResult{}, err
	}

	w.mu.Lock()
	w.submitting = false
	w.step = domain.Step1
	w.draft = seedDraft(identity, true)
	w.seeded = true
	w.resolving = false
	w.lookupSeq++
	w.mu.Unlock()

	w.events.Notify(domain.Notice{
		Code:    domain.NoticeSubmitted,
		Level:   domain.NoticeInfo,
		Title:   "Success",
		Message: "Your complaint has been submitted successfully. Redirecting to records...",
	})
	for _, slot := range w.orderedSlots() {
		slot.Clear()
	}
	w.emit()
	w.scheduleRedirect()
	return result, nil
}

// StartRecording starts the microphone on one slot. Only one slot may
// record at a time.
func (w *WizardController) StartRecording(ctx context.Context, id domain.SlotID) error {
	slot, err := w.slot(id)
	if err != nil {
		return err
	}

	w.recordMu.Lock()
	defer w.recordMu.Unlock()
	for otherID, other := range w.slots {
		if otherID != id && other.State() == domain.CaptureStateRecording {
			w.events.Notify(domain.Notice{
				Code:    domain.NoticeMicrophoneBusy,
				Level:   domain.NoticeError,
				Title:   "Recording error",
				Message: "Another recording is in progress. Stop it first.",
				Slot:    id,
			})
			return domain.ErrMicrophoneBusy
		}
	}
	return slot.StartRecording(ctx)
}

func (w *WizardController) StopRecording(id domain.SlotID) error {
	slot, err := w.slot(id)
	if err != nil {
		return err
	}
	return slot.StopRecording()
}

func (w *WizardController) Play(ctx context.Context, id domain.SlotID) error {
	slot, err := w.slot(id)
	if err != nil {
		return err
	}
	return slot.Play(ctx)
}

func (w *WizardController) Pause(id domain.SlotID) error {
	slot, err := w.slot(id)
	if err != nil {
		return err
	}
	return slot.Pause()
}

// AcceptFile hands a selected or dropped file to a slot.
func (w *WizardController) AcceptFile(id domain.SlotID, name string, mimeType string, data []byte) error {
	slot, err := w.slot(id)
	if err != nil {
		return err
	}
	return slot.AcceptFile(name, mimeType, data)
}

// ClearSlot discards the slot's asset and unsets its draft field.
func (w *WizardController) ClearSlot(id domain.SlotID) error {
	slot, err := w.slot(id)
	if err != nil {
		return err
	}
	slot.Clear()

	w.mu.Lock()
	changed := draftAsset(w.draft, id) != nil
	w.draft = withoutAsset(w.draft, id)
	w.mu.Unlock()

	if changed {
		w.emit()
	}
	return nil
}

// Close stops a pending redirect and releases both slots.
func (w *WizardController) Close() {
	w.mu.Lock()
	redirect := w.redirect
	w.redirect = nil
	w.mu.Unlock()

	if redirect != nil {
		redirect.Stop()
	}
	for _, slot := range w.orderedSlots() {
		slot.Clear()
	}
}

func (w *WizardController) assetReady(id domain.SlotID, asset domain.AudioAsset) {
	w.mu.Lock()
	w.draft = withAsset(w.draft, id, asset)
	w.mu.Unlock()

	log.Debug().Str("slot", string(id)).Str("asset_id", asset.ID()).Msg("Draft asset set")
	w.emit()
}

func (w *WizardController) scheduleRedirect() {
	timer := w.clock.AfterFunc(w.cfg.RedirectDelay, func() {
		w.navigator.Navigate(domain.RouteRecords)
	})

	w.mu.Lock()
	previous := w.redirect
	w.redirect = timer
	w.mu.Unlock()

	if previous != nil {
		previous.Stop()
	}
}

func (w *WizardController) slot(id domain.SlotID) (*capture.Slot, error) {
	slot, ok := w.slots[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown slot %q", domain.ErrInvalidValue, id)
	}
	return slot, nil
}

func (w *WizardController) orderedSlots() []*capture.Slot {
	return []*capture.Slot{w.slots[domain.SlotVoiceSample], w.slots[domain.SlotCallRecording]}
}

func (w *WizardController) notifyMissing(message string) {
	w.events.Notify(domain.Notice{
		Code:    domain.NoticeMissingFields,
		Level:   domain.NoticeError,
		Title:   "Error",
		Message: message,
	})
}

func (w *WizardController) emit() {
	w.events.WizardChanged(w.Snapshot())
}

func draftAsset(d domain.ComplaintDraft, id domain.SlotID) *domain.AudioAsset {
	switch id {
	case domain.SlotVoiceSample:
		return d.VoiceSample
	case domain.SlotCallRecording:
		return d.CallRecording
	}
	return nil
}
