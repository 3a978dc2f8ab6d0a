package clients

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/HastyAy/RoomManagementSystem/internal/models"
)

// RoomClient reads room reference data from the room service.
type RoomClient struct {
	*Client
}

// NewRoomClient constructs a room service client.
func NewRoomClient(baseURL string, logger *zerolog.Logger) *RoomClient {
	return &RoomClient{Client: New(baseURL, logger)}
}

// GetRoom fetches a room snapshot by id. A missing or inactive room yields
// (nil, nil); only transport failures produce an error.
func (c *RoomClient) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	cacheKey := "room:" + id
	var room models.Room

	if c.readCache(ctx, cacheKey, &room) {
		return &room, nil
	}

	found, err := c.getEnvelope(ctx, fmt.Sprintf("/api/room/%s", url.PathEscape(id)), &room)
	if err != nil {
		c.logger.Warn().Err(err).Str("room_id", id).Msg("room lookup failed")
		return nil, err
	}
	if !found {
		return nil, nil
	}

	c.writeCache(ctx, cacheKey, room)
	return &room, nil
}

// RoomExists reports whether the room service knows the id.
func (c *RoomClient) RoomExists(ctx context.Context, id string) (bool, error) {
	room, err := c.GetRoom(ctx, id)
	if err != nil {
		return false, err
	}
	return room != nil, nil
}
