package ports

import (
	"context"
	"io"
	"time"

	"voicecomplaint/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions. Start fails with
// domain.ErrPermissionDenied or domain.ErrDeviceUnavailable when access
// is refused or no device exists.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// RecordingEncoder wraps raw captured PCM into a playable container.
type RecordingEncoder interface {
	Encode(pcm []byte, cfg AudioConfig) (data []byte, mimeType string, err error)
}

// Playback is one running playback of a stored asset.
type Playback interface {
	Pause() error
	Resume() error
	Stop() error
	// Done is closed when playback ends, naturally or by Stop.
	Done() <-chan struct{}
}

// AudioPlayer plays stored assets by local reference.
type AudioPlayer interface {
	Play(ctx context.Context, localRef string) (Playback, error)
}

// AssetStore holds playable local copies of audio assets.
type AssetStore interface {
	Put(name string, data []byte) (string, error)
	Release(localRef string) error
}

// Ticker is a stoppable periodic tick source.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Timer is a stoppable one-shot callback.
type Timer interface {
	Stop() bool
}

// Clock creates tickers and timers.
type Clock interface {
	NewTicker(d time.Duration) Ticker
	AfterFunc(d time.Duration, fn func()) Timer
}

// IdentityProvider yields the signed-in identity, if any.
type IdentityProvider interface {
	Current(ctx context.Context) (domain.Identity, bool)
}

// AddressResolver maps a 6-digit pincode to its locality.
// It returns domain.ErrAddressNotFound for unknown pincodes.
type AddressResolver interface {
	Resolve(ctx context.Context, pincode string) (domain.Address, error)
}

// ComplaintSubmission is the full payload registered with the backend.
type ComplaintSubmission struct {
	AccountID string
	Identity  domain.Identity
	Draft     domain.ComplaintDraft
}

// ComplaintBackend is the external registration API.
type ComplaintBackend interface {
	LookupAccount(ctx context.Context, identityID string) (domain.AccountRecord, error)
	RegisterComplaint(ctx context.Context, submission ComplaintSubmission) (domain.ComplaintReceipt, error)
	SendConfirmation(ctx context.Context, receipt domain.ComplaintReceipt) error
	RegisterUser(ctx context.Context, identity domain.Identity) error
}

// RegistrationFlags remembers identities already registered with the backend.
type RegistrationFlags interface {
	IsRegistered(identityID string) bool
	MarkRegistered(identityID string) error
}

// Navigator moves the UI to another view.
type Navigator interface {
	Navigate(route domain.Route)
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	SlotStateChanged(slot domain.SlotID, state domain.CaptureState)
	TransferProgress(slot domain.SlotID, percent int)
	WizardChanged(snapshot domain.WizardSnapshot)
	Notify(notice domain.Notice)
}
