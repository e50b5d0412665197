package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"

	"github.com/sharetube/watchparty/internal/domain"
)

const (
	customContentTitle = "Web Content"
	maxRoomIdAttempts  = 10
)

type CreateRoomParams struct {
	Kind      domain.Kind
	Name      string
	MovieId   int64
	SeriesId  int64
	CustomUrl string
	HostId    string
	// HostUsername, when set, joins the host right away without a session.
	HostUsername string
}

type CreateRoomResponse struct {
	Room domain.Room
}

// CreateRoom validates the requested content against the metadata provider
// and registers a new room. Nothing is registered when validation fails.
func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	if params.HostId == "" {
		return CreateRoomResponse{}, fmt.Errorf("%w: host id is required", ErrInvalidParams)
	}

	content, err := s.resolveContent(ctx, params)
	if err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to resolve content: %w", err)
	}

	name := params.Name
	if name == "" {
		name = content.Title
	}

	now := s.now()
	st := &roomState{
		name:         name,
		kind:         params.Kind,
		content:      content,
		hostId:       params.HostId,
		createdAt:    now,
		participants: make(map[string]*participant),
	}

	if params.HostUsername != "" {
		st.participants[params.HostId] = &participant{
			userId:   params.HostId,
			username: params.HostUsername,
			joinedAt: now,
			lastSeen: now,
		}
	}

	for attempt := 0; attempt < maxRoomIdAttempts; attempt++ {
		st.id = s.generator.GenerateRandomString(s.roomIdLength)

		a := newRoomActor(st)
		if !s.registry.add(a) {
			continue
		}

		room := st.snapshot()
		a.start(st)

		s.logger.InfoContext(ctx, "room created", "room_id", room.Id, "kind", room.Kind, "host_id", room.HostId)

		return CreateRoomResponse{Room: room}, nil
	}

	return CreateRoomResponse{}, errors.New("failed to generate unique room id")
}

func (s service) resolveContent(ctx context.Context, params *CreateRoomParams) (domain.Content, error) {
	switch params.Kind {
	case domain.KindMovie:
		movie, err := s.getMovie(ctx, params.MovieId)
		if err != nil {
			return domain.Content{}, err
		}

		return domain.Content{MovieId: movie.Id, Title: movie.Title}, nil
	case domain.KindSeries:
		series, err := s.getSeries(ctx, params.SeriesId)
		if err != nil {
			return domain.Content{}, err
		}

		target, err := s.firstEpisode(ctx, series.Id)
		if err != nil {
			return domain.Content{}, err
		}

		content := domain.Content{SeriesId: series.Id, Title: series.Title}
		target.apply(&content)

		return content, nil
	case domain.KindCustomURL:
		u, err := url.ParseRequestURI(params.CustomUrl)
		if err != nil || u.Host == "" {
			return domain.Content{}, fmt.Errorf("%w: invalid custom url", ErrInvalidParams)
		}

		return domain.Content{CustomUrl: params.CustomUrl, Title: customContentTitle}, nil
	default:
		return domain.Content{}, fmt.Errorf("%w: unknown room kind %q", ErrInvalidParams, params.Kind)
	}
}

func (s service) GetRoom(ctx context.Context, roomId string) (domain.Room, error) {
	return s.snapshot(ctx, roomId)
}

// ListRooms returns a snapshot of every live room, oldest first.
func (s service) ListRooms(ctx context.Context) []domain.Room {
	actors := s.registry.list()
	rooms := make([]domain.Room, 0, len(actors))
	for _, a := range actors {
		var room domain.Room
		if err := a.do(ctx, func(st *roomState) {
			room = st.snapshot()
		}); err != nil {
			continue
		}

		rooms = append(rooms, room)
	}

	slices.SortFunc(rooms, func(a, b domain.Room) int { return a.CreatedAt.Compare(b.CreatedAt) })

	return rooms
}

type DeleteRoomResponse struct {
	Room domain.Room
}

// DeleteRoom retires the room. The returned snapshot is the room as it was
// right before deletion.
func (s service) DeleteRoom(ctx context.Context, roomId string) (DeleteRoomResponse, error) {
	a, ok := s.registry.get(roomId)
	if !ok {
		return DeleteRoomResponse{}, ErrRoomNotFound
	}

	var room domain.Room
	if err := a.do(ctx, func(st *roomState) {
		room = st.snapshot()
		st.retired = true
	}); err != nil {
		return DeleteRoomResponse{}, err
	}

	s.registry.remove(a)
	s.logger.InfoContext(ctx, "room deleted", slog.String("room_id", roomId))

	return DeleteRoomResponse{Room: room}, nil
}

func (s service) IsHost(ctx context.Context, roomId, userId string) (bool, error) {
	a, ok := s.registry.get(roomId)
	if !ok {
		return false, ErrRoomNotFound
	}

	return a.hostId == userId, nil
}

func (s service) RoomsCount() int {
	return s.registry.len()
}
