package room

import (
	"context"
	"errors"
	"slices"
)

// ReapEmptyRooms deletes every room without participants and returns their
// ids. The emptiness check and the retirement happen in one room command,
// so a concurrent join either lands first and keeps the room alive or fails
// with ErrRoomNotFound.
func (s service) ReapEmptyRooms(ctx context.Context) []string {
	var reaped []string
	for _, a := range s.registry.list() {
		var empty bool
		if err := a.do(ctx, func(st *roomState) {
			if len(st.participants) == 0 {
				empty = true
				st.retired = true
			}
		}); err != nil {
			if !errors.Is(err, ErrRoomNotFound) {
				s.logger.WarnContext(ctx, "failed to check room", "room_id", a.id, "error", err)
			}
			continue
		}

		if empty {
			s.registry.remove(a)
			reaped = append(reaped, a.id)
		}
	}

	if len(reaped) > 0 {
		s.logger.InfoContext(ctx, "empty rooms reaped", "count", len(reaped), "room_ids", reaped)
	}

	slices.Sort(reaped)

	return reaped
}

// ReapIdleParticipants removes participants not seen for longer than the
// idle threshold. The result maps room ids to the removed user ids. Rooms
// emptied here are left for ReapEmptyRooms.
func (s service) ReapIdleParticipants(ctx context.Context) map[string][]string {
	cutoff := s.now().Add(-s.idleThreshold)
	evicted := make(map[string][]string)

	for _, a := range s.registry.list() {
		var userIds []string
		if err := a.do(ctx, func(st *roomState) {
			for userId, p := range st.participants {
				if p.lastSeen.Before(cutoff) {
					delete(st.participants, userId)
					userIds = append(userIds, userId)
				}
			}
		}); err != nil {
			if !errors.Is(err, ErrRoomNotFound) {
				s.logger.WarnContext(ctx, "failed to sweep room", "room_id", a.id, "error", err)
			}
			continue
		}

		if len(userIds) > 0 {
			slices.Sort(userIds)
			evicted[a.id] = userIds
			s.logger.InfoContext(ctx, "idle participants removed", "room_id", a.id, "user_ids", userIds)
		}
	}

	return evicted
}
