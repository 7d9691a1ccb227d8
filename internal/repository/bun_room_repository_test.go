package repository

import (
	"context"
	"testing"
	"time"

	"github.com/crawdale/hotel/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func newRoom(number string) *models.Room {
	return &models.Room{
		RoomNumber:     number,
		RoomType:       "queen",
		Capacity:       2,
		BasePriceCents: 15000,
		Status:         models.RoomStatusAvailable,
		IsActive:       true,
	}
}

func TestBunRoomRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunRoomRepository(db)
	ctx := context.Background()

	room := newRoom("101")
	require.NoError(t, repo.Create(ctx, room))
	assert.NotEmpty(t, room.ID)
	assert.False(t, room.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "101", got.RoomNumber)
	assert.Equal(t, "queen", got.RoomType)
	assert.Equal(t, 2, got.Capacity)
	assert.Equal(t, int64(15000), got.BasePriceCents)
	assert.Equal(t, models.RoomStatusAvailable, got.Status)
	assert.True(t, got.IsActive)
	assert.Nil(t, got.HotelID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBunRoomRepository_CheckConstraints(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunRoomRepository(db)
	ctx := context.Background()

	t.Run("invalid status", func(t *testing.T) {
		room := newRoom("201")
		room.Status = "flooded"
		assert.Error(t, repo.Create(ctx, room))
	})

	t.Run("zero capacity", func(t *testing.T) {
		room := newRoom("202")
		room.Capacity = 0
		assert.Error(t, repo.Create(ctx, room))
	})

	t.Run("negative price", func(t *testing.T) {
		room := newRoom("203")
		room.BasePriceCents = -1
		assert.Error(t, repo.Create(ctx, room))
	})
}

func TestBunRoomRepository_ListNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunRoomRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, number := range []string{"101", "102", "103"} {
		room := newRoom(number)
		room.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if number == "102" {
			room.Status = models.RoomStatusMaintenance
			room.IsActive = false
		}
		require.NoError(t, repo.Create(ctx, room))
	}

	rooms, err := repo.List(ctx, RoomFilter{})
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	assert.Equal(t, "103", rooms[0].RoomNumber)
	assert.Equal(t, "102", rooms[1].RoomNumber)
	assert.Equal(t, "101", rooms[2].RoomNumber)

	rooms, err = repo.List(ctx, RoomFilter{Status: ptr(models.RoomStatusMaintenance)})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "102", rooms[0].RoomNumber)

	rooms, err = repo.List(ctx, RoomFilter{Active: ptr(true)})
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestBunRoomRepository_UpdatePreservesUnspecifiedColumns(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunRoomRepository(db)
	ctx := context.Background()

	room := newRoom("101")
	room.Capacity = 3
	require.NoError(t, repo.Create(ctx, room))

	err := repo.Update(ctx, room.ID, models.RoomPatch{
		RoomType: ptr("king"),
		Status:   ptr(models.RoomStatusMaintenance),
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, "king", got.RoomType)
	assert.Equal(t, models.RoomStatusMaintenance, got.Status)
	assert.Equal(t, "101", got.RoomNumber)
	assert.Equal(t, 3, got.Capacity)
	assert.Equal(t, int64(15000), got.BasePriceCents)
	assert.True(t, got.IsActive)

	t.Run("empty patch is a no-op", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, room.ID, models.RoomPatch{}))
		after, err := repo.GetByID(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, got, after)
	})

	t.Run("missing room", func(t *testing.T) {
		err := repo.Update(ctx, "missing", models.RoomPatch{Capacity: ptr(4)})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty patch on missing room", func(t *testing.T) {
		err := repo.Update(ctx, "missing", models.RoomPatch{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestBunRoomRepository_ToggleTwiceRestores(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunRoomRepository(db)
	ctx := context.Background()

	room := newRoom("101")
	require.NoError(t, repo.Create(ctx, room))

	require.NoError(t, repo.ToggleActive(ctx, room.ID))
	got, err := repo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	require.NoError(t, repo.ToggleActive(ctx, room.ID))
	got, err = repo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	assert.ErrorIs(t, repo.ToggleActive(ctx, "missing"), ErrNotFound)
}

func TestBunRoomRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunRoomRepository(db)
	ctx := context.Background()

	room := newRoom("101")
	require.NoError(t, repo.Create(ctx, room))
	require.NoError(t, repo.Delete(ctx, room.ID))

	_, err := repo.GetByID(ctx, room.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// idempotent
	assert.NoError(t, repo.Delete(ctx, room.ID))
}
