package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/crawdale/hotel/internal/db/bunx"
	"github.com/crawdale/hotel/internal/db/models"
	"github.com/uptrace/bun"
)

// BunRoomRepository implements RoomRepository using Bun ORM.
// It performs no authorization; wrap it in a PolicyRoomRepository.
type BunRoomRepository struct {
	db *bun.DB
}

// NewBunRoomRepository creates a new Bun-based room repository
func NewBunRoomRepository(db *bun.DB) *BunRoomRepository {
	return &BunRoomRepository{db: db}
}

// List returns rooms newest first
func (r *BunRoomRepository) List(ctx context.Context, filter RoomFilter) ([]models.Room, error) {
	var rooms []models.Room
	q := r.db.NewSelect().
		Model(&rooms).
		Column("id", "hotel_id", "room_number", "room_type", "capacity", "base_price_cents", "status", "is_active", "created_at")

	if filter.HotelID != nil {
		q = q.Where("hotel_id = ?", *filter.HotelID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.Active != nil {
		q = q.Where("is_active = ?", *filter.Active)
	}

	if err := q.Order("created_at DESC", "id DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// GetByID retrieves a room by ID
func (r *BunRoomRepository) GetByID(ctx context.Context, id string) (*models.Room, error) {
	room := new(models.Room)
	err := r.db.NewSelect().
		Model(room).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

// Create inserts a room. ID and CreatedAt are assigned when unset.
func (r *BunRoomRepository) Create(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = bunx.NewUUIDv7()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}

	if _, err := r.db.NewInsert().Model(room).Exec(ctx); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

// Update writes only the fields set in patch. An empty patch writes nothing
// but still reports ErrNotFound for an unknown id.
func (r *BunRoomRepository) Update(ctx context.Context, id string, patch models.RoomPatch) error {
	if patch.IsEmpty() {
		exists, err := r.db.NewSelect().
			Model((*models.Room)(nil)).
			Where("id = ?", id).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("check room: %w", err)
		}
		if !exists {
			return fmt.Errorf("room %s: %w", id, ErrNotFound)
		}
		return nil
	}

	fields := patch.Fields()
	columns := make([]string, 0, len(fields))
	for col := range fields {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	q := r.db.NewUpdate().Model((*models.Room)(nil))
	for _, col := range columns {
		q = q.Set("? = ?", bun.Ident(col), fields[col])
	}

	res, err := q.Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	return requireRow(res, "room", id)
}

// Delete removes a room. Deleting a missing room is not an error.
func (r *BunRoomRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().
		Model((*models.Room)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// ToggleActive flips is_active in a single statement, independent of any
// value the caller may have read earlier.
func (r *BunRoomRepository) ToggleActive(ctx context.Context, id string) error {
	res, err := r.db.NewUpdate().
		Model((*models.Room)(nil)).
		Set("is_active = NOT is_active").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("toggle room active: %w", err)
	}
	return requireRow(res, "room", id)
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
