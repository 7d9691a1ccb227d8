package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/crawdale/hotel/internal/auth"
	"github.com/crawdale/hotel/internal/db/models"
	"github.com/crawdale/hotel/internal/repository"
	"github.com/crawdale/hotel/internal/services/mail"
	"go.uber.org/zap"
)

var (
	// ErrNoSession means the request carries no usable session.
	ErrNoSession = errors.New("no session")
	// ErrInvalidCode means a magic-link code failed verification.
	ErrInvalidCode = errors.New("invalid login code")
	// ErrCodeUsed means a magic-link code was already exchanged.
	ErrCodeUsed = errors.New("login code already used")
	// ErrInvalidEmail means the address cannot receive a magic link.
	ErrInvalidEmail = errors.New("invalid email address")
)

// LastUsedResolution bounds how often resolving a session writes last_used_at.
// Resolves within this window of the previous touch are read-only.
const LastUsedResolution = time.Minute

// Identity is the authenticated user behind a session.
type Identity struct {
	ID        string
	Email     string
	SessionID string
}

// Session is returned by a successful code exchange. Token goes into the cookie.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Identity  Identity
}

// ClientInfo is recorded on new sessions.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// Provider is the identity provider contract used by the web layer.
type Provider interface {
	CurrentIdentity(ctx context.Context, token string) (*Identity, error)
	SignInWithEmail(ctx context.Context, email, redirectTo string) error
	ExchangeAuthCode(ctx context.Context, code string, client ClientInfo) (*Session, error)
	SignOut(ctx context.Context, token string) error
}

// Options configures a Service.
type Options struct {
	Identities repository.IdentityRepository
	Sessions   repository.SessionRepository
	LoginCodes repository.LoginCodeRepository
	Codes      *CodeIssuer
	Mailer     mail.Sender
	SessionTTL time.Duration
	Logger     *zap.Logger
}

// Service implements Provider with magic-link codes and database sessions.
type Service struct {
	identities repository.IdentityRepository
	sessions   repository.SessionRepository
	loginCodes repository.LoginCodeRepository
	codes      *CodeIssuer
	mailer     mail.Sender
	sessionTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

var _ Provider = (*Service)(nil)

// NewService creates the identity provider.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		identities: opts.Identities,
		sessions:   opts.Sessions,
		loginCodes: opts.LoginCodes,
		codes:      opts.Codes,
		mailer:     opts.Mailer,
		sessionTTL: opts.SessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CurrentIdentity resolves a session token to its identity.
// Any failure (missing, unknown, expired, revoked) is reported as ErrNoSession
// wrapped around the cause.
func (s *Service) CurrentIdentity(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	session, err := s.sessions.GetByTokenHash(ctx, auth.HashSessionToken(token))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if err := auth.ValidateSession(session.ExpiresAt, session.Revoked, s.now()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	ident, err := s.identities.GetByID(ctx, session.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	if s.now().Sub(session.LastUsedAt) >= LastUsedResolution {
		if err := s.sessions.UpdateLastUsed(ctx, session.ID); err != nil {
			s.logger.Warn("failed to touch session", zap.String("session_id", session.ID), zap.Error(err))
		}
	}

	return &Identity{ID: ident.ID, Email: ident.Email, SessionID: session.ID}, nil
}

// SignInWithEmail sends a magic link for email. redirectTo is the absolute
// callback URL; the code is appended as the "code" query parameter.
func (s *Service) SignInWithEmail(ctx context.Context, email, redirectTo string) error {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") || strings.ContainsAny(email, " \t\r\n") {
		return ErrInvalidEmail
	}

	callback, err := url.Parse(redirectTo)
	if err != nil {
		return fmt.Errorf("parse redirect target: %w", err)
	}

	code, _, err := s.codes.Issue(email)
	if err != nil {
		return err
	}
	q := callback.Query()
	q.Set("code", code)
	callback.RawQuery = q.Encode()

	msg, err := mail.MagicLinkMessage(email, callback.String(), s.codes.TTL().String())
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("deliver magic link: %w", err)
	}

	s.logger.Info("magic link sent", zap.String("email", email))
	return nil
}

// ExchangeAuthCode verifies a code, burns its jti, finds or creates the
// identity, and opens a session.
func (s *Service) ExchangeAuthCode(ctx context.Context, code string, client ClientInfo) (*Session, error) {
	claims, err := s.codes.Verify(code)
	if err != nil {
		return nil, err
	}

	fresh, err := s.loginCodes.Consume(ctx, &models.ConsumedLoginCode{
		JTI:   claims.ID,
		Email: claims.Email,
		Exp:   claims.ExpiresAt.Time.UTC(),
	})
	if err != nil {
		return nil, err
	}
	if !fresh {
		return nil, ErrCodeUsed
	}

	ident, err := s.findOrCreateIdentity(ctx, claims.Email)
	if err != nil {
		return nil, err
	}

	token, tokenHash, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &models.Session{
		IdentityID: ident.ID,
		TokenHash:  tokenHash,
		ExpiresAt:  auth.CalculateExpiry(now, s.sessionTTL),
		CreatedAt:  now,
		LastUsedAt: now,
	}
	if client.UserAgent != "" {
		session.UserAgent = &client.UserAgent
	}
	if client.IPAddress != "" {
		session.IPAddress = &client.IPAddress
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session created", zap.String("identity_id", ident.ID), zap.String("session_id", session.ID))
	return &Session{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		Identity:  Identity{ID: ident.ID, Email: ident.Email, SessionID: session.ID},
	}, nil
}

func (s *Service) findOrCreateIdentity(ctx context.Context, email string) (*models.Identity, error) {
	ident, err := s.identities.GetByEmail(ctx, email)
	if err == nil {
		return ident, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	ident = &models.Identity{Email: email}
	if err := s.identities.Create(ctx, ident); err != nil {
		// lost a race with a concurrent exchange for the same address
		if existing, getErr := s.identities.GetByEmail(ctx, email); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return ident, nil
}

// SignOut revokes the session behind token. Unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	session, err := s.sessions.GetByTokenHash(ctx, auth.HashSessionToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.sessions.Revoke(ctx, session.ID)
}
