package capture

import (
	"time"

	"voicecomplaint/internal/ports"
)

// SystemClock implements ports.Clock on top of the time package.
type SystemClock struct{}

func (SystemClock) NewTicker(d time.Duration) ports.Ticker {
	return &systemTicker{ticker: time.NewTicker(d)}
}

func (SystemClock) AfterFunc(d time.Duration, fn func()) ports.Timer {
	return time.AfterFunc(d, fn)
}

type systemTicker struct {
	ticker *time.Ticker
}

func (t *systemTicker) C() <-chan time.Time { return t.ticker.C }
func (t *systemTicker) Stop()               { t.ticker.Stop() }
