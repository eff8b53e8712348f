package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/ports"
)

// ReadyFunc receives each finalized asset of a slot exactly once.
type ReadyFunc func(slot domain.SlotID, asset domain.AudioAsset)

// Slot is one record-or-upload control. Both paths converge on a single
// AudioAsset handed to the holder's ReadyFunc.
type Slot struct {
	id       domain.SlotID
	recorder *Recorder
	progress *Progress
	events   ports.EventSink
	onReady  ReadyFunc

	// transferMu spans accepting a file through starting its transfer, and
	// all of Clear. Progress callbacks never take it.
	transferMu sync.Mutex

	mu          sync.Mutex
	uploading   bool
	lastReadyID string
}

func NewSlot(id domain.SlotID, recorder *Recorder, progress *Progress, events ports.EventSink, onReady ReadyFunc) *Slot {
	s := &Slot{
		id:       id,
		recorder: recorder,
		progress: progress,
		events:   events,
		onReady:  onReady,
	}
	recorder.OnPlaybackEnded(s.emitState)
	return s
}

func (s *Slot) ID() domain.SlotID { return s.id }

// SetReadyFunc replaces the holder callback. Must be called before use.
func (s *Slot) SetReadyFunc(fn ReadyFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReady = fn
}

// State returns the slot state; Uploading overrides the recorder state.
func (s *Slot) State() domain.CaptureState {
	s.mu.Lock()
	uploading := s.uploading
	s.mu.Unlock()
	if uploading {
		return domain.CaptureStateUploading
	}
	return s.recorder.State()
}

// Asset returns the current finalized asset, if any.
func (s *Slot) Asset() (domain.AudioAsset, bool) {
	return s.recorder.Asset()
}

// Progress returns the transfer progress percentage.
func (s *Slot) Progress() int {
	return s.progress.Percent()
}

// AcceptFile validates and starts the simulated transfer of a selected or
// dropped file. Non-audio input is rejected without any state change.
func (s *Slot) AcceptFile(name string, mimeType string, data []byte) error {
	resolved, ok := AudioMIMEType(mimeType, data)
	if !ok {
		s.notify(domain.Notice{
			Code:    domain.NoticeInvalidFileType,
			Level:   domain.NoticeError,
			Title:   "Invalid file type",
			Message: "Please upload an audio file",
		})
		return domain.ErrInvalidFileType
	}

	s.transferMu.Lock()
	defer s.transferMu.Unlock()

	s.mu.Lock()
	if s.recorder.State() == domain.CaptureStateRecording {
		s.mu.Unlock()
		s.notifyBusy()
		return domain.ErrSlotBusy
	}
	s.uploading = true
	s.mu.Unlock()

	asset := domain.NewAudioAsset(domain.OriginUploaded, name, resolved, data)
	log.Debug().Str("slot", string(s.id)).Str("file", name).Int("bytes", asset.Size()).Msg("Upload accepted")

	s.emitState()
	s.events.TransferProgress(s.id, 0)
	s.progress.Begin(asset, s.transferProgressed, s.transferFinished)
	return nil
}

// StartRecording begins microphone capture for this slot.
func (s *Slot) StartRecording(ctx context.Context) error {
	s.mu.Lock()
	if s.uploading {
		s.mu.Unlock()
		s.notifyBusy()
		return domain.ErrSlotBusy
	}
	err := s.recorder.StartRecording(ctx)
	s.mu.Unlock()

	if err != nil {
		s.notifyRecordingError(err)
		return err
	}
	s.emitState()
	return nil
}

// StopRecording finalizes the recording and delivers the asset.
// It is a no-op when not recording.
func (s *Slot) StopRecording() error {
	asset, ok, err := s.recorder.StopRecording()
	if err != nil {
		s.emitState()
		s.notify(domain.Notice{
			Code:    domain.NoticeRecordingError,
			Level:   domain.NoticeError,
			Title:   "Recording error",
			Message: "Nothing was recorded. Please try again.",
		})
		return err
	}
	if !ok {
		return nil
	}
	s.emitState()
	s.deliver(asset)
	return nil
}

// TogglePlayback pauses when playing, otherwise plays.
func (s *Slot) TogglePlayback(ctx context.Context) error {
	if s.recorder.State() == domain.CaptureStatePlaying {
		return s.Pause()
	}
	return s.Play(ctx)
}

// Play starts or resumes playback of the current asset.
func (s *Slot) Play(ctx context.Context) error {
	if err := s.recorder.Play(ctx); err != nil {
		if !errors.Is(err, domain.ErrNoAsset) {
			s.notify(domain.Notice{
				Code:    domain.NoticePlaybackError,
				Level:   domain.NoticeError,
				Title:   "Playback error",
				Message: "Could not play the audio.",
			})
		}
		return err
	}
	s.emitState()
	return nil
}

// Pause pauses playback.
func (s *Slot) Pause() error {
	if err := s.recorder.Pause(); err != nil {
		return err
	}
	s.emitState()
	return nil
}

// Clear discards the current asset and any recording or transfer in
// progress. Clearing an empty slot emits nothing.
func (s *Slot) Clear() {
	s.transferMu.Lock()
	defer s.transferMu.Unlock()

	cancelled := s.progress.Cancel()

	s.mu.Lock()
	wasUploading := s.uploading
	s.uploading = false
	s.mu.Unlock()

	discarded := s.recorder.Clear()
	if !cancelled && !wasUploading && !discarded {
		return
	}
	if cancelled || wasUploading {
		s.events.TransferProgress(s.id, 0)
	}
	s.emitState()
}

func (s *Slot) transferProgressed(percent int) {
	s.events.TransferProgress(s.id, percent)
}

func (s *Slot) transferFinished(asset domain.AudioAsset) {
	stored, err := s.recorder.Adopt(asset)

	s.mu.Lock()
	s.uploading = false
	s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Str("slot", string(s.id)).Msg("Failed to finalize upload")
		s.emitState()
		s.notify(domain.Notice{
			Code:    domain.NoticeRecordingError,
			Level:   domain.NoticeError,
			Title:   "Upload failed",
			Message: fmt.Sprintf("%s could not be stored.", asset.Name()),
		})
		return
	}

	s.emitState()
	s.notify(domain.Notice{
		Code:    domain.NoticeUploadComplete,
		Level:   domain.NoticeInfo,
		Title:   "Upload successful!",
		Message: fmt.Sprintf("%s has been uploaded successfully.", stored.Name()),
	})
	s.deliver(stored)
}

// deliver hands an asset to the holder, at most once per asset.
func (s *Slot) deliver(asset domain.AudioAsset) {
	s.mu.Lock()
	if asset.ID() == s.lastReadyID {
		s.mu.Unlock()
		return
	}
	s.lastReadyID = asset.ID()
	onReady := s.onReady
	s.mu.Unlock()

	if onReady != nil {
		onReady(s.id, asset)
	}
}

func (s *Slot) emitState() {
	s.events.SlotStateChanged(s.id, s.State())
}

func (s *Slot) notify(notice domain.Notice) {
	notice.Slot = s.id
	s.events.Notify(notice)
}

func (s *Slot) notifyBusy() {
	s.notify(domain.Notice{
		Code:    domain.NoticeSlotBusy,
		Level:   domain.NoticeError,
		Title:   "Busy",
		Message: "Finish the current recording or upload first.",
	})
}

func (s *Slot) notifyRecordingError(err error) {
	if errors.Is(err, domain.ErrSlotBusy) {
		s.notifyBusy()
		return
	}
	message := "Could not start recording. Please check your microphone permissions."
	if errors.Is(err, domain.ErrDeviceUnavailable) {
		message = "Could not start recording. No microphone is available."
	}
	log.Warn().Err(err).Str("slot", string(s.id)).Msg("Recording could not start")
	s.notify(domain.Notice{
		Code:    domain.NoticeRecordingError,
		Level:   domain.NoticeError,
		Title:   "Recording error",
		Message: message,
	})
}
