package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"voicecomplaint/internal/bootstrap"
	"voicecomplaint/internal/domain"
)

const (
	eventSlot     = "complaint:slot"
	eventProgress = "complaint:progress"
	eventNotice   = "complaint:notice"
	eventWizard   = "complaint:wizard"
	eventNavigate = "complaint:navigate"
)

const maxUploadBytes = 100 << 20

var audioDialogFilter = []runtime.FileFilter{
	{
		DisplayName: "Audio files",
		Pattern:     "*.wav;*.mp3;*.m4a;*.aac;*.ogg;*.oga;*.opus;*.flac;*.webm;*.amr",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App is the Wails application root.
type App struct {
	ctx context.Context

	services *bootstrap.Services
	bootErr  error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, a)
	if err != nil {
		a.bootErr = err
		a.Notify(domain.Notice{
			Code:    domain.NoticeStartupFailed,
			Level:   domain.NoticeError,
			Title:   "Startup failed",
			Message: err.Error(),
		})
		return
	}
	a.services = &services

	go func() {
		services.Wizard.RefreshIdentity(ctx)
		if _, err := services.Registrar.EnsureRegistered(ctx); errors.Is(err, domain.ErrNotSignedIn) {
			log.Debug().Msg("Skipping account registration while signed out")
		}
	}()
}

func (a *App) shutdown(_ context.Context) {
	if a.services == nil {
		return
	}
	a.services.Pipeline.Wait()
	if err := a.services.Close(); err != nil {
		log.Warn().Err(err).Msg("Cleanup failed")
	}
}

// GetSnapshot returns the wizard state for the current view.
func (a *App) GetSnapshot() (domain.WizardSnapshot, error) {
	if err := a.requireReady(); err != nil {
		return domain.WizardSnapshot{}, err
	}
	a.services.Wizard.RefreshIdentity(a.ctx)
	return a.services.Wizard.Snapshot(), nil
}

// SetField updates one text field of the draft.
func (a *App) SetField(field string, value string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Wizard.SetField(a.ctx, domain.Field(field), value)
}

// SetPincode updates the pincode and resolves the address when complete.
func (a *App) SetPincode(pincode string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Wizard.SetPincode(a.ctx, pincode)
}

func (a *App) Next() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Wizard.Next()
}

func (a *App) Back() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.services.Wizard.Back()
	return nil
}

// Submit runs the submission pipeline for the current draft.
func (a *App) Submit() (domain.SubmissionResult, error) {
	if err := a.requireReady(); err != nil {
		return domain.SubmissionResult{}, err
	}
	return a.services.Wizard.Submit(a.ctx)
}

func (a *App) StartRecording(slot string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Wizard.StartRecording(a.ctx, domain.SlotID(slot))
}

func (a *App) StopRecording(slot string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Wizard.StopRecording(domain.SlotID(slot))
}

func (a *App) Play(slot string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Wizard.Play(a.ctx, domain.SlotID(slot))
}

func (a *App) Pause(slot string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Wizard.Pause(domain.SlotID(slot))
}

func (a *App) ClearSlot(slot string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.services.Wizard.ClearSlot(domain.SlotID(slot))
}

// UploadFile accepts a file read by the frontend, as plain base64 or a data URL.
func (a *App) UploadFile(slot string, name string, mimeType string, payload string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	data, declared, err := decodeUpload(payload)
	if err != nil {
		return err
	}
	if mimeType == "" {
		mimeType = declared
	}
	return a.services.Wizard.AcceptFile(domain.SlotID(slot), name, mimeType, data)
}

// PickFile opens a native dialog and feeds the chosen file into slot.
// Cancelling the dialog is not an error.
func (a *App) PickFile(slot string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	path, err := runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title:   dialogTitle(domain.SlotID(slot)),
		Filters: audioDialogFilter,
	})
	if err != nil {
		return err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	data, err := readUpload(path)
	if err != nil {
		return err
	}
	return a.services.Wizard.AcceptFile(domain.SlotID(slot), filepath.Base(path), mime.TypeByExtension(filepath.Ext(path)), data)
}

// GetRecords returns the signed-in account and its previous complaints.
func (a *App) GetRecords() (domain.AccountRecord, error) {
	if err := a.requireReady(); err != nil {
		return domain.AccountRecord{}, err
	}
	return a.services.Records.Load(a.ctx)
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.services == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// SlotStateChanged emits capture slot transitions to the frontend.
func (a *App) SlotStateChanged(slot domain.SlotID, state domain.CaptureState) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSlot, map[string]string{
		"slot":  string(slot),
		"state": string(state),
		"label": stateLabel(state),
	})
}

// TransferProgress emits upload progress percentages.
func (a *App) TransferProgress(slot domain.SlotID, percent int) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventProgress, map[string]any{
		"slot":    string(slot),
		"percent": percent,
	})
}

func (a *App) WizardChanged(snapshot domain.WizardSnapshot) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventWizard, snapshot)
}

// Notify emits a toast notice.
func (a *App) Notify(notice domain.Notice) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventNotice, notice)
}

// Navigate asks the frontend router to switch views.
func (a *App) Navigate(route domain.Route) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventNavigate, map[string]string{"route": string(route)})
}

func stateLabel(state domain.CaptureState) string {
	switch state {
	case domain.CaptureStateEmpty:
		return "No audio yet"
	case domain.CaptureStateRecording:
		return "Recording..."
	case domain.CaptureStateUploading:
		return "Uploading..."
	case domain.CaptureStateCaptured:
		return "Ready"
	case domain.CaptureStatePlaying:
		return "Playing"
	case domain.CaptureStatePaused:
		return "Paused"
	default:
		return ""
	}
}

func dialogTitle(slot domain.SlotID) string {
	switch slot {
	case domain.SlotVoiceSample:
		return "Select voice sample"
	case domain.SlotCallRecording:
		return "Select call recording"
	default:
		return "Select audio file"
	}
}

// decodeUpload accepts "data:<mime>;base64,<payload>" or bare base64 and
// returns the bytes plus any MIME type carried by the data URL.
func decodeUpload(payload string) ([]byte, string, error) {
	payload = strings.TrimSpace(payload)
	declared := ""
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		header, body, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return nil, "", errors.New("unsupported data URL")
		}
		declared = strings.TrimSuffix(header, ";base64")
		payload = body
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > maxUploadBytes {
		return nil, "", errors.New("file is too large")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid upload payload: %w", err)
	}
	return data, declared, nil
}

func readUpload(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > maxUploadBytes {
		return nil, errors.New("file is too large")
	}
	return os.ReadFile(path)
}
