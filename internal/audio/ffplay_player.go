package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/rs/zerolog/log"

	"voicecomplaint/internal/ports"
)

// ErrPauseUnsupported is returned where the platform cannot suspend ffplay.
var ErrPauseUnsupported = errors.New("pause is not supported on this platform")

// FFPlayPlayer plays stored assets with a headless ffplay process.
type FFPlayPlayer struct {
	command string
}

func NewFFPlayPlayer(command string) *FFPlayPlayer {
	if command == "" {
		command = "ffplay"
	}
	return &FFPlayPlayer{command: command}
}

func (p *FFPlayPlayer) Play(ctx context.Context, localRef string) (ports.Playback, error) {
	if localRef == "" {
		return nil, errors.New("no local audio reference")
	}
	if _, err := os.Stat(localRef); err != nil {
		return nil, fmt.Errorf("audio file unavailable: %w", err)
	}

	// Playback outlives the request that started it; Stop ends it.
	cmd := exec.CommandContext(context.WithoutCancel(ctx), p.command,
		"-nodisp",
		"-autoexit",
		"-loglevel", "quiet",
		localRef,
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffplay: %w", err)
	}

	pb := &ffplayPlayback{process: cmd.Process, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		if err := ignoreExitStatus(err); err != nil {
			log.Warn().Err(err).Msg("ffplay exited with an error")
		}
		close(pb.done)
	}()
	return pb, nil
}

type ffplayPlayback struct {
	process *os.Process
	done    chan struct{}

	mu     sync.Mutex
	paused bool
}

func (p *ffplayPlayback) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused || p.finished() {
		return nil
	}
	if err := suspendProcess(p.process); err != nil {
		return err
	}
	p.paused = true
	return nil
}

func (p *ffplayPlayback) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused || p.finished() {
		return nil
	}
	if err := resumeProcess(p.process); err != nil {
		return err
	}
	p.paused = false
	return nil
}

func (p *ffplayPlayback) Stop() error {
	p.mu.Lock()
	paused := p.paused
	p.paused = false
	p.mu.Unlock()

	if p.finished() {
		return nil
	}
	if paused {
		_ = resumeProcess(p.process)
	}
	if err := p.process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	<-p.done
	return nil
}

func (p *ffplayPlayback) Done() <-chan struct{} { return p.done }

func (p *ffplayPlayback) finished() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}
