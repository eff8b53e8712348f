package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// TempStore keeps playable copies of audio assets as files in a private
// directory. The file path is the local reference handed to the player.
type TempStore struct {
	dir string

	mu   sync.Mutex
	refs map[string]struct{}
}

// NewTempStore creates a private directory under base (the system temp dir
// when empty).
func NewTempStore(base string) (*TempStore, error) {
	dir, err := os.MkdirTemp(base, "voicecomplaint-audio-")
	if err != nil {
		return nil, fmt.Errorf("failed to create audio store: %w", err)
	}
	return &TempStore{dir: dir, refs: make(map[string]struct{})}, nil
}

func (s *TempStore) Dir() string { return s.dir }

func (s *TempStore) Put(name string, data []byte) (string, error) {
	pattern := "asset-*" + safeExt(name)
	f, err := os.CreateTemp(s.dir, pattern)
	if err != nil {
		return "", fmt.Errorf("failed to create audio file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to close audio file: %w", err)
	}

	s.mu.Lock()
	s.refs[f.Name()] = struct{}{}
	s.mu.Unlock()
	return f.Name(), nil
}

// Release removes a stored file. Unknown or already released refs are ignored.
func (s *TempStore) Release(ref string) error {
	s.mu.Lock()
	_, ok := s.refs[ref]
	delete(s.refs, ref)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := os.Remove(ref); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove audio file: %w", err)
	}
	return nil
}

// Close removes the store directory and every file still in it.
func (s *TempStore) Close() error {
	s.mu.Lock()
	s.refs = make(map[string]struct{})
	s.mu.Unlock()
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove audio store: %w", err)
	}
	log.Debug().Str("dir", s.dir).Msg("Audio store removed")
	return nil
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
