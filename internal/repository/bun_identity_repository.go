package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/crawdale/hotel/internal/db/bunx"
	"github.com/crawdale/hotel/internal/db/models"
	"github.com/uptrace/bun"
)

// BunIdentityRepository implements IdentityRepository using Bun ORM
type BunIdentityRepository struct {
	db *bun.DB
}

// NewBunIdentityRepository creates a new Bun-based identity repository
func NewBunIdentityRepository(db *bun.DB) *BunIdentityRepository {
	return &BunIdentityRepository{db: db}
}

// Create inserts a new identity
func (r *BunIdentityRepository) Create(ctx context.Context, identity *models.Identity) error {
	if identity.ID == "" {
		identity.ID = bunx.NewUUIDv7()
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now().UTC()
	}

	if _, err := r.db.NewInsert().Model(identity).Exec(ctx); err != nil {
		return fmt.Errorf("create identity: %w", err)
	}
	return nil
}

// GetByID retrieves an identity by ID
func (r *BunIdentityRepository) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	identity := new(models.Identity)
	err := r.db.NewSelect().
		Model(identity).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("identity %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return identity, nil
}

// GetByEmail retrieves an identity by email
func (r *BunIdentityRepository) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	identity := new(models.Identity)
	err := r.db.NewSelect().
		Model(identity).
		Where("email = ?", email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("identity with email %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("get identity by email: %w", err)
	}
	return identity, nil
}
