package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/ports"
)

type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (c *fakeClock) NewTicker(_ time.Duration) ports.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) AfterFunc(_ time.Duration, fn func()) ports.Timer {
	return &fakeTimer{fn: fn}
}

func (c *fakeClock) ticker(t *testing.T, index int) *fakeTicker {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= len(c.tickers) {
		t.Fatalf("ticker %d was never created", index)
	}
	return c.tickers[index]
}

type fakeTicker struct {
	ch       chan time.Time
	stopOnce sync.Once
	stopped  chan struct{}
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
}

// Tick delivers one tick; false means the ticker was stopped.
func (t *fakeTicker) Tick() bool {
	select {
	case <-t.stopped:
		return false
	default:
	}
	select {
	case t.ch <- time.Now():
		return true
	case <-t.stopped:
		return false
	}
}

func (t *fakeTicker) isStopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

type fakeTimer struct {
	fn func()
}

func (t *fakeTimer) Stop() bool { return true }

type fakeAudioCapture struct {
	mu       sync.Mutex
	sessions []*fakeAudioSession
	err      error
	calls    int
}

func (f *fakeAudioCapture) Start(_ context.Context, _ ports.AudioConfig) (ports.AudioSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.sessions) {
		return nil, errors.New("no audio session configured")
	}
	session := f.sessions[f.calls]
	f.calls++
	return session, nil
}

// fakeAudioSession yields its chunks and then blocks until stopped, like a
// live microphone.
type fakeAudioSession struct {
	mu        sync.Mutex
	chunks    [][]byte
	index     int
	stopCalls int
	stopped   chan struct{}
	once      sync.Once
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
	if f.index < len(f.chunks) {
		n := copy(p, f.chunks[f.index])
		f.index++
		f.mu.Unlock()
		return n, nil
	}
	f.mu.Unlock()
	<-f.stopped
	return 0, io.EOF
}

func (f *fakeAudioSession) Close() error { return f.Stop() }

func (f *fakeAudioSession) Stop() error {
	f.mu.Lock()
	f.stopCalls++
	f.mu.Unlock()
	f.once.Do(func() { close(f.stopped) })
	return nil
}

func (f *fakeAudioSession) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

type fakeEncoder struct{}

func (fakeEncoder) Encode(pcm []byte, _ ports.AudioConfig) ([]byte, string, error) {
	return append([]byte("WAV:"), pcm...), "audio/wav", nil
}

type fakeStore struct {
	mu       sync.Mutex
	next     int
	live     map[string][]byte
	released []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{live: make(map[string][]byte)}
}

func (s *fakeStore) Put(name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	ref := fmt.Sprintf("ref-%d-%s", s.next, name)
	s.live[ref] = data
	return ref, nil
}

func (s *fakeStore) Release(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.live, ref)
	s.released = append(s.released, ref)
	return nil
}

func (s *fakeStore) snapshot() (live int, released []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live), append([]string(nil), s.released...)
}

type fakePlayer struct {
	mu        sync.Mutex
	playbacks []*fakePlayback
	refs      []string
}

func (p *fakePlayer) Play(_ context.Context, ref string) (ports.Playback, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pb := &fakePlayback{done: make(chan struct{})}
	p.playbacks = append(p.playbacks, pb)
	p.refs = append(p.refs, ref)
	return pb, nil
}

func (p *fakePlayer) last() *fakePlayback {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playbacks[len(p.playbacks)-1]
}

func (p *fakePlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.playbacks)
}

type fakePlayback struct {
	mu      sync.Mutex
	pauses  int
	resumes int
	stops   int
	once    sync.Once
	done    chan struct{}
}

func (p *fakePlayback) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauses++
	return nil
}

func (p *fakePlayback) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resumes++
	return nil
}

func (p *fakePlayback) resumeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resumes
}

func (p *fakePlayback) Stop() error {
	p.mu.Lock()
	p.stops++
	p.mu.Unlock()
	p.finish()
	return nil
}

func (p *fakePlayback) Done() <-chan struct{} { return p.done }

func (p *fakePlayback) finish() {
	p.once.Do(func() { close(p.done) })
}

type stateEvent struct {
	slot  domain.SlotID
	state domain.CaptureState
}

type fakeEventSink struct {
	mu       sync.Mutex
	states   []stateEvent
	progress []int
	notices  []domain.Notice

	// onState runs after a state change is recorded, outside mu.
	onState func(state domain.CaptureState)
}

func (f *fakeEventSink) SlotStateChanged(slot domain.SlotID, state domain.CaptureState) {
	f.mu.Lock()
	f.states = append(f.states, stateEvent{slot: slot, state: state})
	hook := f.onState
	f.mu.Unlock()
	if hook != nil {
		hook(state)
	}
}

func (f *fakeEventSink) TransferProgress(_ domain.SlotID, percent int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, percent)
}

func (f *fakeEventSink) WizardChanged(_ domain.WizardSnapshot) {}

func (f *fakeEventSink) Notify(notice domain.Notice) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, notice)
}

func (f *fakeEventSink) snapshotStates() []stateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]stateEvent(nil), f.states...)
}

func (f *fakeEventSink) snapshotNotices() []domain.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Notice(nil), f.notices...)
}

func (f *fakeEventSink) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.states) + len(f.progress) + len(f.notices)
}

type readyRecorder struct {
	mu     sync.Mutex
	assets []domain.AudioAsset
	ch     chan domain.AudioAsset
}

func newReadyRecorder() *readyRecorder {
	return &readyRecorder{ch: make(chan domain.AudioAsset, 16)}
}

func (r *readyRecorder) onReady(_ domain.SlotID, asset domain.AudioAsset) {
	r.mu.Lock()
	r.assets = append(r.assets, asset)
	r.mu.Unlock()
	r.ch <- asset
}

func (r *readyRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.assets)
}

func (r *readyRecorder) wait(t *testing.T) domain.AudioAsset {
	t.Helper()
	select {
	case asset := <-r.ch:
		return asset
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for ready event")
		return domain.AudioAsset{}
	}
}

type slotHarness struct {
	clock   *fakeClock
	capture *fakeAudioCapture
	store   *fakeStore
	player  *fakePlayer
	events  *fakeEventSink
	ready   *readyRecorder
	slot    *Slot
}

func newSlotHarness(sessions ...*fakeAudioSession) *slotHarness {
	h := &slotHarness{
		clock:   &fakeClock{},
		capture: &fakeAudioCapture{sessions: sessions},
		store:   newFakeStore(),
		player:  &fakePlayer{},
		events:  &fakeEventSink{},
		ready:   newReadyRecorder(),
	}
	recorder := NewRecorder(h.capture, fakeEncoder{}, h.player, h.store, RecorderConfig{})
	progress := NewProgress(h.clock, 10, time.Millisecond)
	h.slot = NewSlot(domain.SlotVoiceSample, recorder, progress, h.events, h.ready.onReady)
	return h
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
