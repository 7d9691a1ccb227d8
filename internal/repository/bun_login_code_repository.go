package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/crawdale/hotel/internal/db/models"
	"github.com/uptrace/bun"
)

// BunLoginCodeRepository implements LoginCodeRepository using Bun ORM
type BunLoginCodeRepository struct {
	db *bun.DB
}

// NewBunLoginCodeRepository creates a new Bun-based consumed login code repository
func NewBunLoginCodeRepository(db *bun.DB) *BunLoginCodeRepository {
	return &BunLoginCodeRepository{db: db}
}

// Consume inserts the jti; a conflicting row means the code was already exchanged
func (r *BunLoginCodeRepository) Consume(ctx context.Context, code *models.ConsumedLoginCode) (bool, error) {
	if code.ConsumedAt.IsZero() {
		code.ConsumedAt = time.Now().UTC()
	}

	res, err := r.db.NewInsert().
		Model(code).
		On("CONFLICT (jti) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("consume login code: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume login code rows affected: %w", err)
	}
	return n == 1, nil
}

// DeleteExpired removes consumed codes where exp < now() - grace period
// Used for periodic cleanup to prevent table bloat
func (r *BunLoginCodeRepository) DeleteExpired(ctx context.Context, gracePeriod time.Duration) error {
	cutoff := time.Now().UTC().Add(-gracePeriod)

	_, err := r.db.NewDelete().
		Model((*models.ConsumedLoginCode)(nil)).
		Where("exp < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete expired login codes: %w", err)
	}
	return nil
}
