package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"voicecomplaint/internal/capture"
	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/ports"
)

type fakeIdentity struct {
	mu       sync.Mutex
	identity domain.Identity
	signedIn bool
}

func (f *fakeIdentity) Current(_ context.Context) (domain.Identity, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identity, f.signedIn
}

func (f *fakeIdentity) set(identity domain.Identity, signedIn bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identity = identity
	f.signedIn = signedIn
}

type fakeResolver struct {
	mu      sync.Mutex
	results map[string]domain.Address
	err     error
	gate    chan struct{}
	entered chan string
	calls   []string
}

func (f *fakeResolver) Resolve(ctx context.Context, pincode string) (domain.Address, error) {
	f.mu.Lock()
	f.calls = append(f.calls, pincode)
	gate := f.gate
	entered := f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- pincode
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.Address{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Address{}, f.err
	}
	addr, ok := f.results[pincode]
	if !ok {
		return domain.Address{}, domain.ErrAddressNotFound
	}
	return addr, nil
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeBackend struct {
	mu sync.Mutex

	account     domain.AccountRecord
	lookupErr   error
	receipt     domain.ComplaintReceipt
	registerErr error
	notifyErr   error
	registerUsr error

	calls         []string
	submissions   []ports.ComplaintSubmission
	confirmations []domain.ComplaintReceipt
	registered    []domain.Identity
}

func (f *fakeBackend) LookupAccount(_ context.Context, identityID string) (domain.AccountRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "lookup:"+identityID)
	if f.lookupErr != nil {
		return domain.AccountRecord{}, f.lookupErr
	}
	return f.account, nil
}

func (f *fakeBackend) RegisterComplaint(_ context.Context, submission ports.ComplaintSubmission) (domain.ComplaintReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "register:"+submission.AccountID)
	f.submissions = append(f.submissions, submission)
	if f.registerErr != nil {
		return domain.ComplaintReceipt{}, f.registerErr
	}
	return f.receipt, nil
}

func (f *fakeBackend) SendConfirmation(_ context.Context, receipt domain.ComplaintReceipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "notify:"+receipt.ComplaintID)
	f.confirmations = append(f.confirmations, receipt)
	return f.notifyErr
}

func (f *fakeBackend) RegisterUser(_ context.Context, identity domain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "register-user:"+identity.ID)
	f.registered = append(f.registered, identity)
	return f.registerUsr
}

func (f *fakeBackend) snapshotCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeFlags struct {
	mu      sync.Mutex
	flagged map[string]bool
	err     error
}

func (f *fakeFlags) IsRegistered(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flagged[id]
}

func (f *fakeFlags) MarkRegistered(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.flagged == nil {
		f.flagged = make(map[string]bool)
	}
	f.flagged[id] = true
	return nil
}

type fakeNavigator struct {
	mu     sync.Mutex
	routes []domain.Route
}

func (f *fakeNavigator) Navigate(route domain.Route) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes = append(f.routes, route)
}

func (f *fakeNavigator) snapshot() []domain.Route {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Route(nil), f.routes...)
}

// fakeClock records timers and fires them only on demand. Tickers are
// never needed here because assets arrive through the recording path.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) NewTicker(_ time.Duration) ports.Ticker {
	return &idleTicker{ch: make(chan time.Time)}
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) ports.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &fakeTimer{delay: d, fn: fn}
	c.timers = append(c.timers, timer)
	return timer
}

func (c *fakeClock) snapshotTimers() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*fakeTimer(nil), c.timers...)
}

type fakeTimer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

func (t *fakeTimer) fire() {
	t.mu.Lock()
	if t.stopped || t.fired {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.mu.Unlock()
	t.fn()
}

type idleTicker struct {
	ch chan time.Time
}

func (t *idleTicker) C() <-chan time.Time { return t.ch }
func (t *idleTicker) Stop()               {}

type fakeEventSink struct {
	mu        sync.Mutex
	notices   []domain.Notice
	snapshots []domain.WizardSnapshot
}

func (f *fakeEventSink) SlotStateChanged(_ domain.SlotID, _ domain.CaptureState) {}

func (f *fakeEventSink) TransferProgress(_ domain.SlotID, _ int) {}

func (f *fakeEventSink) WizardChanged(snapshot domain.WizardSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, snapshot)
}

func (f *fakeEventSink) Notify(notice domain.Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice)
}

func (f *fakeEventSink) snapshotNotices() []domain.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Notice(nil), f.notices...)
}

func (f *fakeEventSink) snapshotCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

func (f *fakeEventSink) resetNotices() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = nil
}

type fakeAudioCapture struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeAudioCapture) Start(_ context.Context, _ ports.AudioConfig) (ports.AudioSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return newFakeAudioSession(fmt.Sprintf("pcm-%d", f.calls)), nil
}

type fakeAudioSession struct {
	mu      sync.Mutex
	chunks  [][]byte
	stopped chan struct{}
	once    sync.Once
}

func newFakeAudioSession(chunks ...string) *fakeAudioSession {
	s := &fakeAudioSession{stopped: make(chan struct{})}
	for _, chunk := range chunks {
		s.chunks = append(s.chunks, []byte(chunk))
	}
	return s
}

func (f *fakeAudioSession) Read(p []byte) (int, error) {
	f.mu.Lock()
	if len(f.chunks) > 0 {
		n := copy(p, f.chunks[0])
		f.chunks = f.chunks[1:]
		f.mu.Unlock()
		return n, nil
	}
	f.mu.Unlock()
	<-f.stopped
	return 0, io.EOF
}

func (f *fakeAudioSession) Close() error { return f.Stop() }

func (f *fakeAudioSession) Stop() error {
	f.once.Do(func() { close(f.stopped) })
	return nil
}

type fakeEncoder struct{}

func (fakeEncoder) Encode(pcm []byte, _ ports.AudioConfig) ([]byte, string, error) {
	return append([]byte(nil), pcm...), "audio/wav", nil
}

type fakeStore struct {
	mu   sync.Mutex
	next int
}

func (s *fakeStore) Put(name string, _ []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return fmt.Sprintf("ref-%d-%s", s.next, name), nil
}

func (s *fakeStore) Release(_ string) error { return nil }

type fakePlayer struct{}

func (fakePlayer) Play(_ context.Context, _ string) (ports.Playback, error) {
	return nil, errors.New("playback not available in tests")
}

type wizardHarness struct {
	identity  *fakeIdentity
	resolver  *fakeResolver
	backend   *fakeBackend
	events    *fakeEventSink
	navigator *fakeNavigator
	clock     *fakeClock
	pipeline  *SubmissionPipeline
	wizard    *WizardController
}

func newWizardHarness() *wizardHarness {
	h := &wizardHarness{
		identity: &fakeIdentity{
			identity: domain.Identity{ID: "clerk-1", DisplayName: " Jane Doe ", Phone: "+91 98765-43210", Email: "j@x.com"},
			signedIn: true,
		},
		resolver: &fakeResolver{results: map[string]domain.Address{
			"400001": {City: "Mumbai", District: "Mumbai", State: "Maharashtra"},
		}},
		backend: &fakeBackend{
			account: domain.AccountRecord{ID: "u1"},
			receipt: domain.ComplaintReceipt{ComplaintID: "c1", DisplayName: "Jane", Email: "j@x.com"},
		},
		events:    &fakeEventSink{},
		navigator: &fakeNavigator{},
		clock:     &fakeClock{},
	}
	h.pipeline = NewSubmissionPipeline(h.backend, PipelineConfig{})
	h.wizard = NewWizardController(
		h.identity,
		h.resolver,
		h.pipeline,
		h.events,
		h.navigator,
		h.clock,
		h.newSlot(domain.SlotVoiceSample),
		h.newSlot(domain.SlotCallRecording),
		WizardConfig{RedirectDelay: time.Second},
	)
	return h
}

func (h *wizardHarness) newSlot(id domain.SlotID) *capture.Slot {
	recorder := capture.NewRecorder(&fakeAudioCapture{}, fakeEncoder{}, fakePlayer{}, &fakeStore{}, capture.RecorderConfig{})
	progress := capture.NewProgress(h.clock, 10, time.Millisecond)
	return capture.NewSlot(id, recorder, progress, h.events, nil)
}

func (h *wizardHarness) record(t *testing.T, id domain.SlotID) {
	t.Helper()
	if err := h.wizard.StartRecording(context.Background(), id); err != nil {
		t.Fatalf("start recording %s failed: %v", id, err)
	}
	if err := h.wizard.StopRecording(id); err != nil {
		t.Fatalf("stop recording %s failed: %v", id, err)
	}
}

func (h *wizardHarness) set(t *testing.T, field domain.Field, value string) {
	t.Helper()
	if err := h.wizard.SetField(context.Background(), field, value); err != nil {
		t.Fatalf("set %s failed: %v", field, err)
	}
}

// completeStepOne fills every step 1 requirement and advances.
func (h *wizardHarness) completeStepOne(t *testing.T) {
	t.Helper()
	h.wizard.RefreshIdentity(context.Background())
	h.set(t, domain.FieldPincode, "400001")
	h.set(t, domain.FieldStreet, "12 Marine Drive")
	h.record(t, domain.SlotVoiceSample)
	if err := h.wizard.Next(); err != nil {
		t.Fatalf("next failed: %v", err)
	}
}

func (h *wizardHarness) completeStepTwo(t *testing.T) {
	t.Helper()
	h.set(t, domain.FieldScammerPhone, "9000000000")
	h.set(t, domain.FieldSubject, "Fake bank call")
	h.set(t, domain.FieldDescription, "Caller asked for my OTP")
	h.set(t, domain.FieldAmountScammed, "2500")
	h.set(t, domain.FieldCallFrequency, "3")
	h.set(t, domain.FieldDate, "2024-05-01")
	h.record(t, domain.SlotCallRecording)
}

func noticeCodes(notices []domain.Notice) []domain.NoticeCode {
	codes := make([]domain.NoticeCode, 0, len(notices))
	for _, n := range notices {
		codes = append(codes, n.Code)
	}
	return codes
}
