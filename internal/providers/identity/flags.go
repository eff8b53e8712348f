package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voicecomplaint/internal/ports"
)

// FlagStore remembers registered identities as marker files under dir.
type FlagStore struct {
	dir string
}

func NewFlagStore(dir string) (*FlagStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("state directory is not configured")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FlagStore{dir: dir}, nil
}

var _ ports.RegistrationFlags = (*FlagStore)(nil)

func (s *FlagStore) IsRegistered(identityID string) bool {
	if strings.TrimSpace(identityID) == "" {
		return false
	}
	_, err := os.Stat(s.path(identityID))
	return err == nil
}

func (s *FlagStore) MarkRegistered(identityID string) error {
	if strings.TrimSpace(identityID) == "" {
		return errors.New("identity id is empty")
	}
	if err := os.WriteFile(s.path(identityID), []byte(identityID+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write registration flag: %w", err)
	}
	return nil
}

// Identity ids come from an external provider; hashing keeps them path-safe.
func (s *FlagStore) path(identityID string) string {
	sum := sha256.Sum256([]byte(identityID))
	return filepath.Join(s.dir, "registered-"+hex.EncodeToString(sum[:8]))
}
