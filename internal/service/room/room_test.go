package room

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoom(t *testing.T) {
	t.Parallel()

	s := newTestService(newCatalog())
	ctx := context.Background()

	resp, err := s.CreateRoom(ctx, &CreateRoomParams{
		Kind:    domain.KindMovie,
		MovieId: 1,
		HostId:  hostId,
	})
	require.NoError(t, err)

	room := resp.Room
	assert.Len(t, room.Id, 12)
	assert.Equal(t, domain.KindMovie, room.Kind)
	assert.Equal(t, "Heat", room.Name)
	assert.Equal(t, domain.Content{MovieId: 1, Title: "Heat"}, room.Content)
	assert.Equal(t, hostId, room.HostId)
	assert.Equal(t, domain.Player{}, room.Player)
	assert.Empty(t, room.Participants)

	got, err := s.GetRoom(ctx, room.Id)
	require.NoError(t, err)
	assert.Equal(t, room, got)

	rooms := s.ListRooms(ctx)
	require.Len(t, rooms, 1)
	assert.Equal(t, room.Id, rooms[0].Id)
}

func TestCreateRoomSeries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		seriesId int64
		want     [2]int
		wantId   int64
	}{
		{name: "first episode of first season", seriesId: 10, want: [2]int{1, 1}, wantId: 1011},
		{name: "skips empty seasons and missing numbers", seriesId: 30, want: [2]int{2, 2}, wantId: 3022},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestService(newCatalog())
			room := createSeriesRoom(t, s, tt.seriesId)

			assert.Equal(t, tt.want, episodeOf(room))
			assert.Equal(t, tt.wantId, room.Content.EpisodeId)
			assert.Equal(t, tt.seriesId, room.Content.SeriesId)
			assert.False(t, room.Player.IsPlaying)
		})
	}
}

func TestCreateRoomFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  CreateRoomParams
		wantErr error
	}{
		{
			name:    "unknown movie",
			params:  CreateRoomParams{Kind: domain.KindMovie, MovieId: 404, HostId: hostId},
			wantErr: ErrContentNotFound,
		},
		{
			name:    "unknown series",
			params:  CreateRoomParams{Kind: domain.KindSeries, SeriesId: 404, HostId: hostId},
			wantErr: ErrContentNotFound,
		},
		{
			name:    "series without episodes",
			params:  CreateRoomParams{Kind: domain.KindSeries, SeriesId: 20, HostId: hostId},
			wantErr: ErrEmptyContent,
		},
		{
			name:    "custom room with invalid url",
			params:  CreateRoomParams{Kind: domain.KindCustomURL, CustomUrl: "not a url", HostId: hostId},
			wantErr: ErrInvalidParams,
		},
		{
			name:    "unknown kind",
			params:  CreateRoomParams{Kind: "PLAYLIST", HostId: hostId},
			wantErr: ErrInvalidParams,
		},
		{
			name:    "missing host",
			params:  CreateRoomParams{Kind: domain.KindMovie, MovieId: 1},
			wantErr: ErrInvalidParams,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestService(newCatalog())
			_, err := s.CreateRoom(context.Background(), &tt.params)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, s.RoomsCount())
		})
	}
}

func TestCreateRoomCustomURL(t *testing.T) {
	t.Parallel()

	s := newTestService(newCatalog())
	resp, err := s.CreateRoom(context.Background(), &CreateRoomParams{
		Kind:         domain.KindCustomURL,
		Name:         "friday",
		CustomUrl:    "https://example.com/video.mp4",
		HostId:       hostId,
		HostUsername: "Host",
	})
	require.NoError(t, err)

	assert.Equal(t, "friday", resp.Room.Name)
	assert.Equal(t, customContentTitle, resp.Room.Content.Title)
	assert.Equal(t, "https://example.com/video.mp4", resp.Room.Content.CustomUrl)

	require.Len(t, resp.Room.Participants, 1)
	assert.Equal(t, hostId, resp.Room.Participants[0].UserId)
	assert.True(t, resp.Room.Participants[0].IsHost)
}

func TestCreateRoomUpstreamUnavailable(t *testing.T) {
	t.Parallel()

	metadata := &flakyMetadata{next: newCatalog()}
	metadata.broken.Store(true)
	s := newTestService(metadata)

	_, err := s.CreateRoom(context.Background(), &CreateRoomParams{Kind: domain.KindSeries, SeriesId: 10, HostId: hostId})
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, errUpstream)
	assert.Zero(t, s.RoomsCount())
}

func TestCreateRoomMetadataTimeout(t *testing.T) {
	t.Parallel()

	s := NewService(hangingMetadata{}, &sequenceGenerator{ids: []string{"room"}}, slog.New(slog.NewTextHandler(io.Discard, nil)), &Config{
		RoomIdLength:    4,
		MetadataTimeout: 20 * time.Millisecond,
		IdleThreshold:   time.Minute,
	})

	_, err := s.CreateRoom(context.Background(), &CreateRoomParams{Kind: domain.KindMovie, MovieId: 1, HostId: hostId})
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, s.RoomsCount())
}

func TestCreateRoomRetriesTakenId(t *testing.T) {
	t.Parallel()

	s := NewService(newCatalog(), &sequenceGenerator{ids: []string{"aaaa", "aaaa", "bbbb"}}, slog.New(slog.NewTextHandler(io.Discard, nil)), &Config{
		RoomIdLength:    4,
		MetadataTimeout: time.Second,
		IdleThreshold:   time.Minute,
	})
	ctx := context.Background()
	params := &CreateRoomParams{Kind: domain.KindMovie, MovieId: 1, HostId: hostId}

	first, err := s.CreateRoom(ctx, params)
	require.NoError(t, err)
	second, err := s.CreateRoom(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, "aaaa", first.Room.Id)
	assert.Equal(t, "bbbb", second.Room.Id)

	// the generator is exhausted and keeps returning a taken id
	_, err = s.CreateRoom(ctx, params)
	assert.Error(t, err)
	assert.Equal(t, 2, s.RoomsCount())
}

func TestDeleteRoom(t *testing.T) {
	t.Parallel()

	s := newTestService(newCatalog())
	ctx := context.Background()
	room := createSeriesRoom(t, s, 10)

	_, err := s.JoinRoom(ctx, &JoinRoomParams{RoomId: room.Id, UserId: guestId, SessionId: "a"})
	require.NoError(t, err)

	resp, err := s.DeleteRoom(ctx, room.Id)
	require.NoError(t, err)
	require.Len(t, resp.Room.Participants, 1)

	_, err = s.GetRoom(ctx, room.Id)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = s.DeleteRoom(ctx, room.Id)
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = s.JoinRoom(ctx, &JoinRoomParams{RoomId: room.Id, UserId: guestId, SessionId: "b"})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	assert.Empty(t, s.ListRooms(ctx))
}

func TestIsHost(t *testing.T) {
	t.Parallel()

	s := newTestService(newCatalog())
	ctx := context.Background()
	room := createSeriesRoom(t, s, 10)

	isHost, err := s.IsHost(ctx, room.Id, hostId)
	require.NoError(t, err)
	assert.True(t, isHost)

	isHost, err = s.IsHost(ctx, room.Id, guestId)
	require.NoError(t, err)
	assert.False(t, isHost)

	_, err = s.IsHost(ctx, "missing", hostId)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}
