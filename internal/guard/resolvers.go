package guard

import (
	"context"
	"net/http"

	"github.com/crawdale/hotel/internal/auth"
	"github.com/crawdale/hotel/internal/repository"
	"github.com/crawdale/hotel/internal/services/identity"
	"go.uber.org/zap"
)

// SessionResolver answers "who is making this request".
type SessionResolver interface {
	// ResolveSession returns the identity, or false when there is none.
	ResolveSession(r *http.Request) (identity.Identity, bool)
}

// RoleResolver maps an identity to its application role.
type RoleResolver interface {
	// ResolveRole never fails: lookup errors and missing profiles yield RoleGuest.
	ResolveRole(ctx context.Context, identityID string) auth.Role
}

// CookieSessionResolver resolves the session cookie through the identity provider.
type CookieSessionResolver struct {
	provider identity.Provider
	logger   *zap.Logger
}

// NewCookieSessionResolver creates a SessionResolver backed by provider.
func NewCookieSessionResolver(provider identity.Provider, logger *zap.Logger) *CookieSessionResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CookieSessionResolver{provider: provider, logger: logger}
}

// ResolveSession treats every provider error exactly like an absent session.
func (s *CookieSessionResolver) ResolveSession(r *http.Request) (identity.Identity, bool) {
	token := auth.SessionTokenFromRequest(r)
	if token == "" {
		return identity.Identity{}, false
	}

	ident, err := s.provider.CurrentIdentity(r.Context(), token)
	if err != nil || ident == nil {
		s.logger.Debug("session not resolved", zap.Error(err))
		return identity.Identity{}, false
	}
	return *ident, true
}

// ProfileRoleResolver reads the role from the profiles table.
type ProfileRoleResolver struct {
	profiles repository.ProfileRepository
	logger   *zap.Logger
}

// NewProfileRoleResolver creates a RoleResolver backed by profiles.
func NewProfileRoleResolver(profiles repository.ProfileRepository, logger *zap.Logger) *ProfileRoleResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileRoleResolver{profiles: profiles, logger: logger}
}

// ResolveRole fails closed to RoleGuest.
func (p *ProfileRoleResolver) ResolveRole(ctx context.Context, identityID string) auth.Role {
	profile, err := p.profiles.GetByID(ctx, identityID)
	if err != nil {
		p.logger.Debug("profile lookup failed, using guest role",
			zap.String("identity_id", identityID), zap.Error(err))
		return auth.RoleGuest
	}
	return auth.ParseRole(profile.Role)
}
