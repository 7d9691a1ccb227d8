package auth

// Object names used in row-level policies
const (
	// ObjectRooms is the rooms table
	ObjectRooms = "rooms"
)

// Row-level actions on rooms
const (
	RoomRead   = "read"
	RoomCreate = "create"
	RoomUpdate = "update"
	RoomDelete = "delete"
)

// RoomActions lists every action a room policy can grant.
var RoomActions = []string{RoomRead, RoomCreate, RoomUpdate, RoomDelete}
