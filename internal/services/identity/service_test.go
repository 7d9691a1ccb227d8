package identity

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/crawdale/hotel/internal/auth"
	"github.com/crawdale/hotel/internal/db/bunx"
	"github.com/crawdale/hotel/internal/migrations"
	"github.com/crawdale/hotel/internal/repository"
	"github.com/crawdale/hotel/internal/services/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-signing-key-0123456789abcdef"

type fixture struct {
	svc      *Service
	outbox   *mail.Outbox
	codes    *CodeIssuer
	sessions *repository.BunSessionRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := bunx.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })
	_, err = migrations.Apply(context.Background(), db)
	require.NoError(t, err)

	outbox := mail.NewOutbox()
	codes := NewCodeIssuer(testKey, 15*time.Minute)
	sessions := repository.NewBunSessionRepository(db)
	svc := NewService(Options{
		Identities: repository.NewBunIdentityRepository(db),
		Sessions:   sessions,
		LoginCodes: repository.NewBunLoginCodeRepository(db),
		Codes:      codes,
		Mailer:     outbox,
		SessionTTL: time.Hour,
	})
	return &fixture{svc: svc, outbox: outbox, codes: codes, sessions: sessions}
}

var linkPattern = regexp.MustCompile(`http\S+`)

// codeFromOutbox extracts the code from the last magic link sent.
func (f *fixture) codeFromOutbox(t *testing.T) (string, *url.URL) {
	t.Helper()
	msg, ok := f.outbox.Last()
	require.True(t, ok, "no mail sent")
	link := linkPattern.FindString(msg.Text)
	require.NotEmpty(t, link)
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("code"), u
}

func TestSignInWithEmail_SendsCallbackLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.SignInWithEmail(ctx, "  Staff@Crawdale.TEST ", "http://localhost:8080/auth/callback?next=%2Fadmin%2Frooms")
	require.NoError(t, err)

	msg, _ := f.outbox.Last()
	assert.Equal(t, "staff@crawdale.test", msg.To)

	code, link := f.codeFromOutbox(t)
	assert.NotEmpty(t, code)
	assert.Equal(t, "/auth/callback", link.Path)
	assert.Equal(t, "/admin/rooms", link.Query().Get("next"))
}

func TestSignInWithEmail_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.SignInWithEmail(ctx, "   ", "http://x/auth/callback"), ErrInvalidEmail)
	assert.ErrorIs(t, f.svc.SignInWithEmail(ctx, "not-an-email", "http://x/auth/callback"), ErrInvalidEmail)

	f.outbox.FailWith(errors.New("mailbox full"))
	err := f.svc.SignInWithEmail(ctx, "guest@crawdale.test", "http://x/auth/callback")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailbox full")
}

func TestExchangeAuthCode_CreatesSessionOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SignInWithEmail(ctx, "staff@crawdale.test", "http://x/auth/callback"))
	code, _ := f.codeFromOutbox(t)

	session, err := f.svc.ExchangeAuthCode(ctx, code, ClientInfo{UserAgent: "test", IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "staff@crawdale.test", session.Identity.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)

	ident, err := f.svc.CurrentIdentity(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Identity.ID, ident.ID)
	assert.Equal(t, session.Identity.SessionID, ident.SessionID)

	_, err = f.svc.ExchangeAuthCode(ctx, code, ClientInfo{})
	assert.ErrorIs(t, err, ErrCodeUsed)

	// a second sign-in reuses the identity
	require.NoError(t, f.svc.SignInWithEmail(ctx, "staff@crawdale.test", "http://x/auth/callback"))
	code2, _ := f.codeFromOutbox(t)
	session2, err := f.svc.ExchangeAuthCode(ctx, code2, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, session.Identity.ID, session2.Identity.ID)
	assert.NotEqual(t, session.Token, session2.Token)
}

func TestExchangeAuthCode_RejectsBadCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ExchangeAuthCode(ctx, "garbage", ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidCode)

	other := NewCodeIssuer("another-signing-key-0123456789", time.Minute)
	forged, _, err := other.Issue("admin@crawdale.test")
	require.NoError(t, err)
	_, err = f.svc.ExchangeAuthCode(ctx, forged, ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidCode)

	expiredIssuer := NewCodeIssuer(testKey, time.Minute)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _, err := expiredIssuer.Issue("admin@crawdale.test")
	require.NoError(t, err)
	_, err = f.svc.ExchangeAuthCode(ctx, expired, ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestCurrentIdentity_NoSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CurrentIdentity(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = f.svc.CurrentIdentity(ctx, "unknown-token")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCurrentIdentity_TouchesSessionAtMostOncePerResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SignInWithEmail(ctx, "staff@crawdale.test", "http://x/auth/callback"))
	code, _ := f.codeFromOutbox(t)
	session, err := f.svc.ExchangeAuthCode(ctx, code, ClientInfo{})
	require.NoError(t, err)

	lastUsed := func() time.Time {
		stored, err := f.sessions.GetByTokenHash(ctx, auth.HashSessionToken(session.Token))
		require.NoError(t, err)
		return stored.LastUsedAt
	}
	created := lastUsed()

	for i := 0; i < 3; i++ {
		_, err := f.svc.CurrentIdentity(ctx, session.Token)
		require.NoError(t, err)
	}
	assert.True(t, created.Equal(lastUsed()), "resolves inside the window must not write")

	f.svc.now = func() time.Time { return time.Now().Add(2 * LastUsedResolution) }
	_, err = f.svc.CurrentIdentity(ctx, session.Token)
	require.NoError(t, err)
	assert.True(t, lastUsed().After(created))
}

func TestSignOut_RevokesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SignInWithEmail(ctx, "guest@crawdale.test", "http://x/auth/callback"))
	code, _ := f.codeFromOutbox(t)
	session, err := f.svc.ExchangeAuthCode(ctx, code, ClientInfo{})
	require.NoError(t, err)

	require.NoError(t, f.svc.SignOut(ctx, session.Token))
	_, err = f.svc.CurrentIdentity(ctx, session.Token)
	assert.ErrorIs(t, err, ErrNoSession)

	assert.NoError(t, f.svc.SignOut(ctx, "unknown"))
	assert.NoError(t, f.svc.SignOut(ctx, ""))
}

func TestCurrentIdentity_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SignInWithEmail(ctx, "guest@crawdale.test", "http://x/auth/callback"))
	code, _ := f.codeFromOutbox(t)
	session, err := f.svc.ExchangeAuthCode(ctx, code, ClientInfo{})
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = f.svc.CurrentIdentity(ctx, session.Token)
	assert.ErrorIs(t, err, ErrNoSession)
}
