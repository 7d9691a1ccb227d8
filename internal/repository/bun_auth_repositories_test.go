package repository

import (
	"context"
	"testing"
	"time"

	"github.com/crawdale/hotel/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBunIdentityRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunIdentityRepository(db)
	ctx := context.Background()

	identity := &models.Identity{Email: "staff@crawdale.test"}
	require.NoError(t, repo.Create(ctx, identity))
	require.NotEmpty(t, identity.ID)

	byID, err := repo.GetByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "staff@crawdale.test", byID.Email)

	byEmail, err := repo.GetByEmail(ctx, "staff@crawdale.test")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, byEmail.ID)

	_, err = repo.GetByEmail(ctx, "nobody@crawdale.test")
	assert.ErrorIs(t, err, ErrNotFound)

	// email is unique
	assert.Error(t, repo.Create(ctx, &models.Identity{Email: "staff@crawdale.test"}))
}

func TestBunProfileRepository(t *testing.T) {
	db := setupTestDB(t)
	identities := NewBunIdentityRepository(db)
	profiles := NewBunProfileRepository(db)
	ctx := context.Background()

	identity := &models.Identity{Email: "admin@crawdale.test"}
	require.NoError(t, identities.Create(ctx, identity))

	_, err := profiles.GetByID(ctx, identity.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, profiles.Upsert(ctx, &models.Profile{ID: identity.ID, Role: "staff"}))
	p, err := profiles.GetByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "staff", p.Role)

	require.NoError(t, profiles.Upsert(ctx, &models.Profile{ID: identity.ID, Role: "admin"}))
	p, err = profiles.GetByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", p.Role)

	list, err := profiles.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ProfileSummary{ID: identity.ID, Email: "admin@crawdale.test", Role: "admin"}, list[0])

	// profile must reference an identity
	assert.Error(t, profiles.Upsert(ctx, &models.Profile{ID: "dangling", Role: "staff"}))
}

func TestBunSessionRepository(t *testing.T) {
	db := setupTestDB(t)
	identities := NewBunIdentityRepository(db)
	sessions := NewBunSessionRepository(db)
	ctx := context.Background()

	identity := &models.Identity{Email: "guest@crawdale.test"}
	require.NoError(t, identities.Create(ctx, identity))

	session := &models.Session{
		IdentityID: identity.ID,
		TokenHash:  "hash-1",
		ExpiresAt:  time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, sessions.Create(ctx, session))

	got, err := sessions.GetByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.False(t, got.Revoked)

	require.NoError(t, sessions.UpdateLastUsed(ctx, session.ID))
	require.NoError(t, sessions.Revoke(ctx, session.ID))
	got, err = sessions.GetByTokenHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.True(t, got.Revoked)

	_, err = sessions.GetByTokenHash(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	expired := &models.Session{
		IdentityID: identity.ID,
		TokenHash:  "hash-2",
		ExpiresAt:  time.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, sessions.Create(ctx, expired))
	n, err := sessions.DeleteExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, sessions.RevokeByIdentity(ctx, identity.ID))
}

func TestBunLoginCodeRepository_ConsumeOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunLoginCodeRepository(db)
	ctx := context.Background()

	code := func() *models.ConsumedLoginCode {
		return &models.ConsumedLoginCode{
			JTI:   "jti-1",
			Email: "staff@crawdale.test",
			Exp:   time.Now().UTC().Add(time.Minute),
		}
	}

	first, err := repo.Consume(ctx, code())
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.Consume(ctx, code())
	require.NoError(t, err)
	assert.False(t, second)

	require.NoError(t, repo.DeleteExpired(ctx, 0))
}
