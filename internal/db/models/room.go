package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Room statuses. There is no transition graph between them.
const (
	RoomStatusAvailable    = "available"
	RoomStatusMaintenance  = "maintenance"
	RoomStatusOutOfService = "out_of_service"
)

// DefaultRoomCapacity is applied when a room is created without a capacity.
const DefaultRoomCapacity = 2

// RoomStatuses lists the valid status values in display order.
var RoomStatuses = []string{RoomStatusAvailable, RoomStatusMaintenance, RoomStatusOutOfService}

// Room is a bookable unit managed from the admin panel.
type Room struct {
	bun.BaseModel `bun:"table:rooms,alias:rm"`

	ID             string    `bun:"id,pk,type:varchar(36)" json:"id"`
	HotelID        *string   `bun:"hotel_id,type:varchar(36)" json:"hotel_id,omitempty"`
	RoomNumber     string    `bun:"room_number,notnull" json:"room_number"`
	RoomType       string    `bun:"room_type,notnull" json:"room_type"`
	Capacity       int       `bun:"capacity,notnull,default:2" json:"capacity"`
	BasePriceCents int64     `bun:"base_price_cents,notnull,default:0" json:"base_price_cents"`
	Status         string    `bun:"status,notnull,default:'available'" json:"status"`
	IsActive       bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt      time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// RoomPatch is a sparse update: nil fields are left untouched.
type RoomPatch struct {
	HotelID        *string
	RoomNumber     *string
	RoomType       *string
	Capacity       *int
	BasePriceCents *int64
	Status         *string
	IsActive       *bool
}

// IsEmpty reports whether the patch would write nothing.
func (p RoomPatch) IsEmpty() bool {
	return p.HotelID == nil && p.RoomNumber == nil && p.RoomType == nil &&
		p.Capacity == nil && p.BasePriceCents == nil && p.Status == nil && p.IsActive == nil
}

// Fields returns the patch as column -> value, for an UPDATE ... SET list.
func (p RoomPatch) Fields() map[string]any {
	fields := make(map[string]any)
	if p.HotelID != nil {
		fields["hotel_id"] = *p.HotelID
	}
	if p.RoomNumber != nil {
		fields["room_number"] = *p.RoomNumber
	}
	if p.RoomType != nil {
		fields["room_type"] = *p.RoomType
	}
	if p.Capacity != nil {
		fields["capacity"] = *p.Capacity
	}
	if p.BasePriceCents != nil {
		fields["base_price_cents"] = *p.BasePriceCents
	}
	if p.Status != nil {
		fields["status"] = *p.Status
	}
	if p.IsActive != nil {
		fields["is_active"] = *p.IsActive
	}
	return fields
}

// Attributes exposes the room as a flat map for filter expressions.
func (r *Room) Attributes() map[string]any {
	hotelID := ""
	if r.HotelID != nil {
		hotelID = *r.HotelID
	}
	return map[string]any{
		"id":               r.ID,
		"hotel_id":         hotelID,
		"room_number":      r.RoomNumber,
		"room_type":        r.RoomType,
		"capacity":         r.Capacity,
		"base_price_cents": r.BasePriceCents,
		"status":           r.Status,
		"is_active":        r.IsActive,
	}
}
