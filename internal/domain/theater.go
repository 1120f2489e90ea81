package domain

import (
	"context"
	"strings"
)

type Room struct {
	ID          int
	TheaterName string
	RoomName    string
	RoomType    string
}

func (r Room) Supports(format string) bool {
	return strings.EqualFold(strings.TrimSpace(r.RoomType), format)
}

// RoomLookup lists a theater's rooms from the theater service. An empty result means the rooms
// could not be confirmed.
type RoomLookup interface {
	FetchRoomsByTheater(ctx context.Context, theaterID int) []Room
}
