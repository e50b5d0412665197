package controller

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/sharetube/watchparty/internal/service/room"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	roomStateType           = "ROOM_STATE"
	syncType                = "SYNC"
	episodeChangedType      = "EPISODE_CHANGED"
	participantsUpdatedType = "PARTICIPANTS_UPDATED"
	presenceUpdatedType     = "PRESENCE_UPDATED"
	roomDeletedType         = "ROOM_DELETED"
	errorType               = "ERROR"
)

func (c controller) broadcast(ctx context.Context, roomId string, output *Output) {
	for _, session := range c.connRepo.GetByRoomId(roomId) {
		if err := session.Subscriber.Send(output); err != nil {
			c.logger.WarnContext(ctx, "failed to send message", "session_id", session.Id, "type", output.Type, "error", err)
		}
	}
}

func (c controller) broadcastParticipantsUpdated(ctx context.Context, rm *domain.Room) {
	c.broadcast(ctx, rm.Id, &Output{
		Type: participantsUpdatedType,
		Payload: map[string]any{
			"room_id":      rm.Id,
			"participants": rm.Participants,
		},
	})
}

func (c controller) broadcastSync(ctx context.Context, action string, rm *domain.Room) {
	c.broadcast(ctx, rm.Id, &Output{
		Type: syncType,
		Payload: map[string]any{
			"room_id":             rm.Id,
			"action":              action,
			"player":              rm.Player,
			"last_action_user_id": rm.LastActionUserId,
		},
	})
}

func (c controller) broadcastEpisodeChanged(ctx context.Context, rm *domain.Room) {
	c.broadcast(ctx, rm.Id, &Output{
		Type: episodeChangedType,
		Payload: map[string]any{
			"room_id":             rm.Id,
			"content":             rm.Content,
			"player":              rm.Player,
			"last_action_user_id": rm.LastActionUserId,
		},
	})
}

func (c controller) broadcastRoomDeleted(ctx context.Context, roomId string) {
	c.broadcast(ctx, roomId, &Output{
		Type:    roomDeletedType,
		Payload: map[string]any{"room_id": roomId},
	})
	c.connRepo.DetachRoom(roomId)
}

func (c controller) sessionsOfUser(roomId, userId string) []connection.Session {
	var sessions []connection.Session
	for _, session := range c.connRepo.GetByRoomId(roomId) {
		if session.UserId == userId {
			sessions = append(sessions, session)
		}
	}

	return sessions
}

// NotifyRoomsDeleted tells the subscribers of rooms removed by housekeeping.
func (c controller) NotifyRoomsDeleted(ctx context.Context, roomIds []string) {
	for _, roomId := range roomIds {
		c.broadcastRoomDeleted(ctx, roomId)
	}
}

// NotifyParticipantsEvicted detaches the sessions of evicted participants
// and sends the new participant list to the rest of each room.
func (c controller) NotifyParticipantsEvicted(ctx context.Context, evicted map[string][]string) {
	for roomId, userIds := range evicted {
		for _, userId := range userIds {
			for _, session := range c.sessionsOfUser(roomId, userId) {
				_, _ = c.connRepo.Detach(session.Id)
			}
		}

		rm, err := c.roomService.GetRoom(ctx, roomId)
		if err != nil {
			continue
		}

		c.broadcastParticipantsUpdated(ctx, &rm)
	}
}

func (c controller) getIdParam(r *http.Request, key string) (int64, error) {
	value := chi.URLParam(r, key)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", room.ErrInvalidParams, key)
	}

	return id, nil
}

func (c controller) getQueryParam(r *http.Request, key string) (string, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return "", fmt.Errorf("%w: %s was not provided", room.ErrInvalidParams, key)
	}

	return value, nil
}
