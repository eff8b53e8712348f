package identity

import (
	"context"
	"strings"

	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/ports"
)

// Static serves a fixed identity from configuration. It is signed in only
// when an id is present.
type Static struct {
	identity domain.Identity
}

func NewStatic(identity domain.Identity) *Static {
	identity.ID = strings.TrimSpace(identity.ID)
	identity.Email = strings.TrimSpace(identity.Email)
	return &Static{identity: identity}
}

var _ ports.IdentityProvider = (*Static)(nil)

func (s *Static) Current(_ context.Context) (domain.Identity, bool) {
	if s.identity.ID == "" {
		return domain.Identity{}, false
	}
	return s.identity, true
}
