package hub

import (
	"context"
	"errors"
	"time"

	"wisefido-vitals-hub/internal/models"
)

var errNoVerifier = errors.New("no token verifier configured")

// TokenVerifier resolves a session token to a user identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (models.Identity, error)
}

// SessionGate tracks the single active user that persisted readings are
// attributed to. Verify may run on any goroutine; the remaining methods
// belong to the hub worker.
type SessionGate struct {
	verifier TokenVerifier
	timeout  time.Duration
	active   *models.Identity
}

func NewSessionGate(verifier TokenVerifier, timeout time.Duration) *SessionGate {
	return &SessionGate{verifier: verifier, timeout: timeout}
}

// Verify checks a token without touching the active session.
func (g *SessionGate) Verify(ctx context.Context, token string) (models.Identity, error) {
	if g.verifier == nil {
		return models.Identity{}, errNoVerifier
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return g.verifier.Verify(ctx, token)
}

// Activate makes id the active user (last writer wins).
func (g *SessionGate) Activate(id models.Identity) {
	g.active = &id
}

func (g *SessionGate) IsActive() bool {
	return g.active != nil
}

func (g *SessionGate) Active() (models.Identity, bool) {
	if g.active == nil {
		return models.Identity{}, false
	}
	return *g.active, true
}

// DeactivateIfEmpty clears the active user once no observer is left and
// reports whether a user was cleared.
func (g *SessionGate) DeactivateIfEmpty(observerCount int) bool {
	if observerCount > 0 || g.active == nil {
		return false
	}
	g.active = nil
	return true
}
