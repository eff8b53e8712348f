package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"voicecomplaint/internal/domain"
	"voicecomplaint/internal/ports"
)

// AccountRegistrar makes sure the signed-in identity exists on the backend.
type AccountRegistrar struct {
	identity ports.IdentityProvider
	backend  ports.ComplaintBackend
	flags    ports.RegistrationFlags
}

func NewAccountRegistrar(identity ports.IdentityProvider, backend ports.ComplaintBackend, flags ports.RegistrationFlags) *AccountRegistrar {
	return &AccountRegistrar{identity: identity, backend: backend, flags: flags}
}

// EnsureRegistered registers the current identity once. It reports whether
// a registration call was made.
func (r *AccountRegistrar) EnsureRegistered(ctx context.Context) (bool, error) {
	identity, ok := r.identity.Current(ctx)
	if !ok {
		return false, domain.ErrNotSignedIn
	}
	if r.flags.IsRegistered(identity.ID) {
		return false, nil
	}

	if err := r.backend.RegisterUser(ctx, identity); err != nil {
		log.Warn().Err(err).Str("identity_id", identity.ID).Msg("User registration failed")
		return true, fmt.Errorf("failed to register user: %w", err)
	}
	if err := r.flags.MarkRegistered(identity.ID); err != nil {
		log.Warn().Err(err).Str("identity_id", identity.ID).Msg("Failed to remember registration")
	}
	log.Info().Str("identity_id", identity.ID).Msg("User registered")
	return true, nil
}
