package room

import "context"

// RoomRepository resolves room references.
type RoomRepository interface {
	// FindByID returns the room or a NotFound error.
	FindByID(ctx context.Context, id int64) (*Room, error)
	Save(ctx context.Context, room *Room) error
}
