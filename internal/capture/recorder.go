package capture

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/ports"
)

const recordingName = "recording.wav"

// RecorderConfig controls microphone capture.
type RecorderConfig struct {
	Audio     ports.AudioConfig
	ChunkSize int
}

// Recorder owns the microphone and the player for one slot. It holds at
// most one current asset; replacing or clearing it releases its local
// reference immediately.
type Recorder struct {
	capture ports.AudioCapture
	encoder ports.RecordingEncoder
	player  ports.AudioPlayer
	store   ports.AssetStore
	cfg     RecorderConfig

	mu       sync.Mutex
	state    domain.CaptureState
	active   *recording
	asset    *domain.AudioAsset
	playback ports.Playback

	onPlaybackEnded func()
}

type recording struct {
	cancel  context.CancelFunc
	session ports.AudioSession
	pcm     bytes.Buffer
	pumpErr error
	done    chan struct{}
}

func NewRecorder(
	capture ports.AudioCapture,
	encoder ports.RecordingEncoder,
	player ports.AudioPlayer,
	store ports.AssetStore,
	cfg RecorderConfig,
) *Recorder {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = defaultChunkSize
	}
	return &Recorder{
		capture: capture,
		encoder: encoder,
		player:  player,
		store:   store,
		cfg:     cfg,
		state:   domain.CaptureStateEmpty,
	}
}

// OnPlaybackEnded registers a callback fired when playback finishes on its own.
func (r *Recorder) OnPlaybackEnded(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onPlaybackEnded = fn
}

// State returns the current capture state.
func (r *Recorder) State() domain.CaptureState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Asset returns the current asset, if any.
func (r *Recorder) Asset() (domain.AudioAsset, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.asset == nil {
		return domain.AudioAsset{}, false
	}
	return *r.asset, true
}

// StartRecording acquires the microphone and begins buffering audio.
// On failure the state is unchanged.
func (r *Recorder) StartRecording(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == domain.CaptureStateRecording {
		return domain.ErrSlotBusy
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	session, err := r.capture.Start(sessionCtx, r.cfg.Audio)
	if err != nil {
		cancel()
		return err
	}

	r.stopPlaybackLocked()

	active := &recording{cancel: cancel, session: session, done: make(chan struct{})}
	r.active = active
	r.state = domain.CaptureStateRecording
	go pumpAudioChunks(session, &active.pcm, r.cfg.ChunkSize, &active.pumpErr, active.done)

	log.Debug().Int("sample_rate", r.cfg.Audio.SampleRate).Msg("Recording started")
	return nil
}

// StopRecording finalizes the recording into a new asset and releases the
// microphone. ok is false when no recording was in progress.
func (r *Recorder) StopRecording() (asset domain.AudioAsset, ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != domain.CaptureStateRecording || r.active == nil {
		return domain.AudioAsset{}, false, nil
	}

	active := r.active
	r.releaseMicrophoneLocked()
	r.state = r.restingStateLocked()

	if active.pumpErr != nil {
		log.Warn().Err(active.pumpErr).Msg("Recording ended with a capture error")
	}
	if active.pcm.Len() == 0 {
		return domain.AudioAsset{}, false, domain.ErrNoAsset
	}

	data, mimeType, err := r.encoder.Encode(active.pcm.Bytes(), r.cfg.Audio)
	if err != nil {
		return domain.AudioAsset{}, false, fmt.Errorf("failed to encode recording: %w", err)
	}

	stored, err := r.adoptLocked(domain.NewAudioAsset(domain.OriginRecorded, recordingName, mimeType, data))
	if err != nil {
		return domain.AudioAsset{}, false, err
	}

	log.Info().Str("asset_id", stored.ID()).Int("bytes", stored.Size()).Msg("Recording captured")
	return stored, true, nil
}

// Adopt makes an externally produced asset (an upload) the current one.
func (r *Recorder) Adopt(asset domain.AudioAsset) (domain.AudioAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == domain.CaptureStateRecording {
		return domain.AudioAsset{}, domain.ErrSlotBusy
	}
	return r.adoptLocked(asset)
}

// Play starts playback of the current asset, resumes a paused one, or
// restarts from the beginning after a previous playback ended.
func (r *Recorder) Play(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case domain.CaptureStatePlaying:
		return nil
	case domain.CaptureStatePaused:
		if err := r.playback.Resume(); err != nil {
			return fmt.Errorf("failed to resume playback: %w", err)
		}
		r.state = domain.CaptureStatePlaying
		return nil
	case domain.CaptureStateCaptured:
	default:
		return domain.ErrNoAsset
	}

	playback, err := r.player.Play(ctx, r.asset.LocalRef())
	if err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	r.playback = playback
	r.state = domain.CaptureStatePlaying
	go r.watchPlayback(playback)
	return nil
}

// Pause pauses playback. It is a no-op unless playing.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != domain.CaptureStatePlaying {
		return nil
	}
	if err := r.playback.Pause(); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}
	r.state = domain.CaptureStatePaused
	return nil
}

// Clear stops recording or playback, releases the current asset and
// returns to Empty. It reports whether anything was discarded.
func (r *Recorder) Clear() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == domain.CaptureStateEmpty && r.asset == nil && r.active == nil {
		return false
	}

	if r.active != nil {
		r.releaseMicrophoneLocked()
	}
	r.stopPlaybackLocked()
	r.releaseAssetLocked()
	r.state = domain.CaptureStateEmpty
	return true
}

func (r *Recorder) adoptLocked(asset domain.AudioAsset) (domain.AudioAsset, error) {
	ref, err := r.store.Put(asset.Name(), asset.Bytes())
	if err != nil {
		return domain.AudioAsset{}, fmt.Errorf("failed to store audio: %w", err)
	}
	stored := asset.WithLocalRef(ref)

	r.stopPlaybackLocked()
	r.releaseAssetLocked()
	r.asset = &stored
	r.state = domain.CaptureStateCaptured
	return stored, nil
}

// releaseMicrophoneLocked stops the capture session and waits for the
// pump to drain, so the device is free when it returns.
func (r *Recorder) releaseMicrophoneLocked() {
	active := r.active
	r.active = nil
	if err := active.session.Stop(); err != nil {
		log.Warn().Err(err).Msg("Failed to stop audio capture cleanly")
	}
	<-active.done
	active.cancel()
}

func (r *Recorder) stopPlaybackLocked() {
	if r.playback == nil {
		return
	}
	playback := r.playback
	r.playback = nil
	if err := playback.Stop(); err != nil {
		log.Warn().Err(err).Msg("Failed to stop playback")
	}
}

func (r *Recorder) releaseAssetLocked() {
	if r.asset == nil {
		return
	}
	if err := r.store.Release(r.asset.LocalRef()); err != nil {
		log.Warn().Err(err).Str("asset_id", r.asset.ID()).Msg("Failed to release audio reference")
	}
	r.asset = nil
}

func (r *Recorder) restingStateLocked() domain.CaptureState {
	if r.asset != nil {
		return domain.CaptureStateCaptured
	}
	return domain.CaptureStateEmpty
}

func (r *Recorder) watchPlayback(playback ports.Playback) {
	<-playback.Done()

	r.mu.Lock()
	if r.playback != playback {
		r.mu.Unlock()
		return
	}
	r.playback = nil
	if r.state == domain.CaptureStatePlaying || r.state == domain.CaptureStatePaused {
		r.state = domain.CaptureStateCaptured
	}
	notify := r.onPlaybackEnded
	r.mu.Unlock()

	if notify != nil {
		notify()
	}
}
