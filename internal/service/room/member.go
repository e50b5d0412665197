package room

import (
	"context"
	"fmt"
	"math"

	"github.com/sharetube/watchparty/internal/domain"
)

type JoinRoomParams struct {
	RoomId    string
	UserId    string
	Username  string
	SessionId string
}

type JoinRoomResponse struct {
	Room        domain.Room
	Participant domain.Participant
	Rejoined    bool
}

// JoinRoom adds the participant or replaces the one with the same user id,
// correlating it with SessionId from now on. The joiner starts at the room
// playback position.
func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	if params.UserId == "" {
		return JoinRoomResponse{}, fmt.Errorf("%w: user id is required", ErrInvalidParams)
	}

	var resp JoinRoomResponse
	if err := s.withRoom(ctx, params.RoomId, func(st *roomState) {
		now := s.now()
		p := &participant{
			userId:           params.UserId,
			username:         params.Username,
			sessionId:        params.SessionId,
			observedPosition: st.currentTime,
			joinedAt:         now,
			lastSeen:         now,
		}

		if prev, ok := st.participants[params.UserId]; ok {
			p.joinedAt = prev.joinedAt
			if p.username == "" {
				p.username = prev.username
			}
			resp.Rejoined = true
		}

		st.participants[params.UserId] = p
		resp.Participant = p.snapshot(st.hostId)
		resp.Room = st.snapshot()
	}); err != nil {
		return JoinRoomResponse{}, err
	}

	return resp, nil
}

type LeaveRoomResponse struct {
	Room    domain.Room
	Removed bool
}

// LeaveRoom removes the participant. An empty room stays registered until
// the next empty room sweep.
func (s service) LeaveRoom(ctx context.Context, roomId, userId string) (LeaveRoomResponse, error) {
	var resp LeaveRoomResponse
	if err := s.withRoom(ctx, roomId, func(st *roomState) {
		if _, ok := st.participants[userId]; ok {
			delete(st.participants, userId)
			resp.Removed = true
		}
		resp.Room = st.snapshot()
	}); err != nil {
		return LeaveRoomResponse{}, err
	}

	return resp, nil
}

type DisconnectSessionParams struct {
	RoomId    string
	UserId    string
	SessionId string
}

type DisconnectSessionResponse struct {
	Room    domain.Room
	Removed bool
}

// DisconnectSession handles the end of a transport session.
//
// Precondition for removal: the participant's stored session id equals
// params.SessionId. A participant that has already rejoined through a newer
// session is left untouched, so a late disconnect of the old session cannot
// evict the live one.
func (s service) DisconnectSession(ctx context.Context, params *DisconnectSessionParams) (DisconnectSessionResponse, error) {
	if params.SessionId == "" {
		return DisconnectSessionResponse{}, fmt.Errorf("%w: session id is required", ErrInvalidParams)
	}

	var resp DisconnectSessionResponse
	if err := s.withRoom(ctx, params.RoomId, func(st *roomState) {
		p, ok := st.participants[params.UserId]
		if ok && p.sessionId == params.SessionId {
			delete(st.participants, params.UserId)
			resp.Removed = true
		}
		resp.Room = st.snapshot()
	}); err != nil {
		return DisconnectSessionResponse{}, err
	}

	if !resp.Removed {
		s.logger.DebugContext(ctx, "stale disconnect ignored", "room_id", params.RoomId, "user_id", params.UserId, "session_id", params.SessionId)
	}

	return resp, nil
}

type ReportTimeParams struct {
	RoomId   string
	UserId   string
	Position float64
}

type ReportTimeResponse struct {
	Room        domain.Room
	Participant *domain.Participant
	IsHost      bool
}

// ReportTime records the position a participant observes. A report from the
// host also becomes the canonical position and marks the room as playing.
func (s service) ReportTime(ctx context.Context, params *ReportTimeParams) (ReportTimeResponse, error) {
	if err := validPosition(params.Position); err != nil {
		return ReportTimeResponse{}, err
	}

	var resp ReportTimeResponse
	if err := s.withRoom(ctx, params.RoomId, func(st *roomState) {
		if p, ok := st.participants[params.UserId]; ok {
			p.observedPosition = params.Position
			p.lastSeen = s.now()
			snapshot := p.snapshot(st.hostId)
			resp.Participant = &snapshot
		}

		if params.UserId == st.hostId {
			st.currentTime = params.Position
			st.isPlaying = true
			resp.IsHost = true
		}

		resp.Room = st.snapshot()
	}); err != nil {
		return ReportTimeResponse{}, err
	}

	return resp, nil
}

// Touch marks the participant as seen without changing any position.
func (s service) Touch(ctx context.Context, roomId, userId string) error {
	found := false
	if err := s.withRoom(ctx, roomId, func(st *roomState) {
		if p, ok := st.participants[userId]; ok {
			p.lastSeen = s.now()
			found = true
		}
	}); err != nil {
		return err
	}

	if !found {
		return fmt.Errorf("%w: user is not in the room", ErrInvalidState)
	}

	return nil
}

func (s service) GetParticipants(ctx context.Context, roomId string) ([]domain.Participant, error) {
	room, err := s.snapshot(ctx, roomId)
	if err != nil {
		return nil, err
	}

	return room.Participants, nil
}

func validPosition(position float64) error {
	if position < 0 || math.IsNaN(position) || math.IsInf(position, 0) {
		return fmt.Errorf("%w: position must be a non-negative number", ErrInvalidParams)
	}

	return nil
}
