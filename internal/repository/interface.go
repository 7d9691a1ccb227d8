package repository

import (
	"context"
	"errors"
	"time"

	"github.com/crawdale/hotel/internal/db/models"
)

var (
	// ErrNotFound is returned when a lookup or targeted write matches no row.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied is returned when row-level policy rejects an operation.
	ErrPermissionDenied = errors.New("permission denied")
)

// IdentityRepository exposes persistence operations for identities.
type IdentityRepository interface {
	Create(ctx context.Context, identity *models.Identity) error
	GetByID(ctx context.Context, id string) (*models.Identity, error)
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
}

// ProfileRepository exposes persistence operations for profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	List(ctx context.Context) ([]ProfileSummary, error)
}

// ProfileSummary joins a profile with its identity's email.
type ProfileSummary struct {
	ID    string `bun:"id"`
	Email string `bun:"email"`
	Role  string `bun:"role"`
}

// SessionRepository exposes persistence operations for browser sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)
	UpdateLastUsed(ctx context.Context, id string) error
	Revoke(ctx context.Context, id string) error
	RevokeByIdentity(ctx context.Context, identityID string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// LoginCodeRepository records exchanged magic-link codes.
type LoginCodeRepository interface {
	// Consume marks the code as used. Returns false if it was already consumed.
	Consume(ctx context.Context, code *models.ConsumedLoginCode) (bool, error)
	DeleteExpired(ctx context.Context, gracePeriod time.Duration) error
}

// RoomRepository exposes persistence operations for rooms.
type RoomRepository interface {
	List(ctx context.Context, filter RoomFilter) ([]models.Room, error)
	GetByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, id string, patch models.RoomPatch) error
	Delete(ctx context.Context, id string) error
	ToggleActive(ctx context.Context, id string) error
}

// RoomFilter narrows a room listing. Zero value lists every room.
type RoomFilter struct {
	HotelID *string
	Status  *string
	Active  *bool
}
