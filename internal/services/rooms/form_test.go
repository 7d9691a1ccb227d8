package rooms

import (
	"net/url"
	"testing"

	"github.com/crawdale/hotel/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeForm(t *testing.T) {
	form, err := DecodeForm(url.Values{
		"room_number": {"101"},
		"is_active":   {"off", "on"},
		"unrelated":   {"x"},
	})
	require.NoError(t, err)

	require.NotNil(t, form.RoomNumber)
	assert.Equal(t, "101", *form.RoomNumber)
	require.NotNil(t, form.IsActive)
	assert.Equal(t, "on", *form.IsActive, "last value wins")
	assert.Nil(t, form.RoomType)
	assert.Nil(t, form.Capacity)
}

func TestToRoom(t *testing.T) {
	v := NewValidator()

	t.Run("defaults", func(t *testing.T) {
		form, err := DecodeForm(url.Values{
			"room_number": {"101"},
			"room_type":   {"queen"},
			"base_price":  {"150.00"},
		})
		require.NoError(t, err)

		room, err := form.ToRoom(v)
		require.NoError(t, err)
		assert.Equal(t, "101", room.RoomNumber)
		assert.Equal(t, "queen", room.RoomType)
		assert.Equal(t, int64(15000), room.BasePriceCents)
		assert.Equal(t, models.DefaultRoomCapacity, room.Capacity)
		assert.Equal(t, models.RoomStatusAvailable, room.Status)
		assert.True(t, room.IsActive)
		assert.Nil(t, room.HotelID)
	})

	t.Run("explicit values", func(t *testing.T) {
		form, err := DecodeForm(url.Values{
			"hotel_id":    {"h-1"},
			"room_number": {" 202 "},
			"room_type":   {"suite"},
			"capacity":    {"4.7"},
			"base_price":  {"149.99"},
			"status":      {"maintenance"},
			"is_active":   {"off"},
		})
		require.NoError(t, err)

		room, err := form.ToRoom(v)
		require.NoError(t, err)
		require.NotNil(t, room.HotelID)
		assert.Equal(t, "h-1", *room.HotelID)
		assert.Equal(t, "202", room.RoomNumber)
		assert.Equal(t, 4, room.Capacity)
		assert.Equal(t, int64(14999), room.BasePriceCents)
		assert.Equal(t, models.RoomStatusMaintenance, room.Status)
		assert.False(t, room.IsActive)
	})

	t.Run("missing required fields", func(t *testing.T) {
		form, err := DecodeForm(url.Values{"room_number": {"  "}, "base_price": {"abc"}})
		require.NoError(t, err)

		_, err = form.ToRoom(v)
		require.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "missing required fields: room_number, room_type, base_price")
	})

	t.Run("invalid values", func(t *testing.T) {
		tests := []struct {
			name   string
			values url.Values
			field  string
		}{
			{"zero price", url.Values{"base_price": {"0"}}, "base_price"},
			{"zero capacity", url.Values{"base_price": {"10"}, "capacity": {"0"}}, "capacity"},
			{"unknown status", url.Values{"base_price": {"10"}, "status": {"closed"}}, "status"},
			{"price beyond int64 cents", url.Values{"base_price": {"184467440737095517.00"}}, "base_price"},
			{"capacity beyond integer column", url.Values{"base_price": {"10"}, "capacity": {"18446744073709551619"}}, "capacity"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				tt.values.Set("room_number", "1")
				tt.values.Set("room_type", "single")
				form, err := DecodeForm(tt.values)
				require.NoError(t, err)

				_, err = form.ToRoom(v)
				require.ErrorIs(t, err, ErrInvalidInput)
				assert.Contains(t, err.Error(), tt.field)
			})
		}
	})
}

func TestToPatch(t *testing.T) {
	v := NewValidator()

	t.Run("only present fields", func(t *testing.T) {
		form, err := DecodeForm(url.Values{"id": {"r1"}, "room_type": {"king"}})
		require.NoError(t, err)

		patch, err := form.ToPatch(v)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"room_type": "king"}, patch.Fields())
	})

	t.Run("blank and non-numeric values are skipped", func(t *testing.T) {
		form, err := DecodeForm(url.Values{
			"id":         {"r1"},
			"room_type":  {"   "},
			"capacity":   {""},
			"base_price": {"n/a"},
			"status":     {""},
		})
		require.NoError(t, err)

		patch, err := form.ToPatch(v)
		require.NoError(t, err)
		assert.True(t, patch.IsEmpty())
	})

	t.Run("is_active only when present", func(t *testing.T) {
		form, err := DecodeForm(url.Values{"id": {"r1"}, "is_active": {"off"}})
		require.NoError(t, err)

		patch, err := form.ToPatch(v)
		require.NoError(t, err)
		require.NotNil(t, patch.IsActive)
		assert.False(t, *patch.IsActive)
	})

	t.Run("price zero allowed, negative rejected", func(t *testing.T) {
		form, err := DecodeForm(url.Values{"base_price": {"0"}})
		require.NoError(t, err)
		patch, err := form.ToPatch(v)
		require.NoError(t, err)
		require.NotNil(t, patch.BasePriceCents)
		assert.Equal(t, int64(0), *patch.BasePriceCents)

		form, err = DecodeForm(url.Values{"base_price": {"-1"}})
		require.NoError(t, err)
		_, err = form.ToPatch(v)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("out of range numbers are skipped", func(t *testing.T) {
		form, err := DecodeForm(url.Values{
			"id":         {"r1"},
			"capacity":   {"18446744073709551619"},
			"base_price": {"184467440737095517.00"},
		})
		require.NoError(t, err)

		patch, err := form.ToPatch(v)
		require.NoError(t, err)
		assert.True(t, patch.IsEmpty())
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		form, err := DecodeForm(url.Values{"status": {"closed"}})
		require.NoError(t, err)
		_, err = form.ToPatch(v)
		require.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "status")
	})
}

func TestRoomID(t *testing.T) {
	form, err := DecodeForm(url.Values{"id": {" r1 "}})
	require.NoError(t, err)
	id, err := form.RoomID()
	require.NoError(t, err)
	assert.Equal(t, "r1", id)

	form, err = DecodeForm(url.Values{})
	require.NoError(t, err)
	_, err = form.RoomID()
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "missing room id")
}
