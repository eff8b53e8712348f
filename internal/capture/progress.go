package capture

import (
	"sync"
	"time"

	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/ports"
)

const (
	DefaultProgressStep     = 10
	DefaultProgressInterval = 200 * time.Millisecond
)

// Progress drives the perceived-progress indicator for an accepted file.
// It is not tied to any network transfer. One transfer runs at a time.
//
// Callbacks run on the ticker goroutine while deliverMu is held, so Cancel
// returning guarantees no callback of the cancelled transfer is running or
// will run. Callbacks must not call back into the same Progress.
type Progress struct {
	clock    ports.Clock
	step     int
	interval time.Duration

	deliverMu sync.Mutex

	mu      sync.Mutex
	active  *transfer
	percent int
}

type transfer struct {
	asset      domain.AudioAsset
	ticker     ports.Ticker
	stop       chan struct{}
	onProgress func(percent int)
	onReady    func(asset domain.AudioAsset)
}

func NewProgress(clock ports.Clock, step int, interval time.Duration) *Progress {
	if clock == nil {
		clock = SystemClock{}
	}
	if step <= 0 || step > 100 {
		step = DefaultProgressStep
	}
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &Progress{clock: clock, step: step, interval: interval}
}

// Begin cancels any running transfer and starts a new one from 0.
func (p *Progress) Begin(asset domain.AudioAsset, onProgress func(int), onReady func(domain.AudioAsset)) {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	t := &transfer{
		asset:      asset,
		ticker:     p.clock.NewTicker(p.interval),
		stop:       make(chan struct{}),
		onProgress: onProgress,
		onReady:    onReady,
	}

	p.mu.Lock()
	p.cancelLocked()
	p.active = t
	p.mu.Unlock()

	go p.run(t)
}

// Cancel stops the running transfer, if any, and resets progress to 0.
// It reports whether a transfer was running. Safe to call repeatedly.
func (p *Progress) Cancel() bool {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelLocked()
}

// Percent returns the progress of the current or last transfer.
func (p *Progress) Percent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.percent
}

// Active reports whether a transfer is running.
func (p *Progress) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

func (p *Progress) cancelLocked() bool {
	p.percent = 0
	if p.active == nil {
		return false
	}
	p.active.ticker.Stop()
	close(p.active.stop)
	p.active = nil
	return true
}

func (p *Progress) run(t *transfer) {
	for {
		select {
		case <-t.stop:
			return
		case <-t.ticker.C():
		}
		if finished := p.tick(t); finished {
			return
		}
	}
}

func (p *Progress) tick(t *transfer) bool {
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	p.mu.Lock()
	if p.active != t {
		p.mu.Unlock()
		return true
	}
	p.percent += p.step
	if p.percent > 100 {
		p.percent = 100
	}
	percent := p.percent
	finished := percent == 100
	if finished {
		t.ticker.Stop()
		close(t.stop)
		p.active = nil
	}
	p.mu.Unlock()

	if t.onProgress != nil {
		t.onProgress(percent)
	}
	if finished && t.onReady != nil {
		t.onReady(t.asset)
	}
	return finished
}
