package room

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/repository/metadata/inmemory"
	"github.com/sharetube/watchparty/pkg/randstr"
	"github.com/stretchr/testify/require"
)

const (
	hostId  = "host"
	guestId = "guest"
)

var errUpstream = errors.New("connection refused")

// newCatalog builds:
//
//	movie 1
//	series 10: S1 {E1, E2}, S2 {E1}
//	series 20: S1 {}
//	series 30: S1 {}, S2 {E2, E4}, S3 {}, S5 {E3}
//	series 40: S1 {E1}
func newCatalog() iMetadataProvider {
	r := inmemory.NewRepo()
	r.AddMovie(domain.Movie{Id: 1, Title: "Heat"})

	r.AddSeries(domain.Series{Id: 10, Title: "The Wire"})
	r.AddSeason(domain.Season{Id: 101, SeriesId: 10, Number: 1})
	r.AddSeason(domain.Season{Id: 102, SeriesId: 10, Number: 2})
	r.AddEpisode(domain.Episode{Id: 1011, SeasonId: 101, Number: 1, Title: "The Target"})
	r.AddEpisode(domain.Episode{Id: 1012, SeasonId: 101, Number: 2, Title: "The Detail"})
	r.AddEpisode(domain.Episode{Id: 1021, SeasonId: 102, Number: 1, Title: "Ebb Tide"})

	r.AddSeries(domain.Series{Id: 20, Title: "Unreleased"})
	r.AddSeason(domain.Season{Id: 201, SeriesId: 20, Number: 1})

	r.AddSeries(domain.Series{Id: 30, Title: "Gaps"})
	r.AddSeason(domain.Season{Id: 301, SeriesId: 30, Number: 1})
	r.AddSeason(domain.Season{Id: 302, SeriesId: 30, Number: 2})
	r.AddSeason(domain.Season{Id: 303, SeriesId: 30, Number: 3})
	r.AddSeason(domain.Season{Id: 305, SeriesId: 30, Number: 5})
	r.AddEpisode(domain.Episode{Id: 3022, SeasonId: 302, Number: 2})
	r.AddEpisode(domain.Episode{Id: 3024, SeasonId: 302, Number: 4})
	r.AddEpisode(domain.Episode{Id: 3053, SeasonId: 305, Number: 3})

	r.AddSeries(domain.Series{Id: 40, Title: "Other"})
	r.AddSeason(domain.Season{Id: 401, SeriesId: 40, Number: 1})
	r.AddEpisode(domain.Episode{Id: 4011, SeasonId: 401, Number: 1})

	return r
}

// flakyMetadata counts calls and fails every call while broken is set.
type flakyMetadata struct {
	next   iMetadataProvider
	broken atomic.Bool
	calls  atomic.Int32
}

func (m *flakyMetadata) check() error {
	m.calls.Add(1)
	if m.broken.Load() {
		return errUpstream
	}
	return nil
}

func (m *flakyMetadata) GetMovie(ctx context.Context, id int64) (*domain.Movie, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	return m.next.GetMovie(ctx, id)
}

func (m *flakyMetadata) GetSeries(ctx context.Context, id int64) (*domain.Series, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	return m.next.GetSeries(ctx, id)
}

func (m *flakyMetadata) GetSeasonsBySeries(ctx context.Context, id int64) ([]domain.Season, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	return m.next.GetSeasonsBySeries(ctx, id)
}

func (m *flakyMetadata) GetEpisodesBySeason(ctx context.Context, id int64) ([]domain.Episode, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	return m.next.GetEpisodesBySeason(ctx, id)
}

func (m *flakyMetadata) GetEpisode(ctx context.Context, id int64) (*domain.Episode, error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	return m.next.GetEpisode(ctx, id)
}

// hangingMetadata blocks every call until the context is done.
type hangingMetadata struct{}

func (hangingMetadata) GetMovie(ctx context.Context, _ int64) (*domain.Movie, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingMetadata) GetSeries(ctx context.Context, _ int64) (*domain.Series, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingMetadata) GetSeasonsBySeries(ctx context.Context, _ int64) ([]domain.Season, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingMetadata) GetEpisodesBySeason(ctx context.Context, _ int64) ([]domain.Episode, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (hangingMetadata) GetEpisode(ctx context.Context, _ int64) (*domain.Episode, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// sequenceGenerator hands out ids in order and repeats the last one.
type sequenceGenerator struct {
	mu  sync.Mutex
	ids []string
}

func (g *sequenceGenerator) GenerateRandomString(int) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.ids[0]
	if len(g.ids) > 1 {
		g.ids = g.ids[1:]
	}
	return id
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(metadata iMetadataProvider) *service {
	return NewService(
		metadata,
		randstr.New([]byte("abcdefghijklmnopqrstuvwxyz0123456789")),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		&Config{
			RoomIdLength:    12,
			MetadataTimeout: time.Second,
			IdleThreshold:   2 * time.Minute,
		},
	)
}

func createSeriesRoom(t *testing.T, s *service, seriesId int64) domain.Room {
	t.Helper()

	resp, err := s.CreateRoom(context.Background(), &CreateRoomParams{
		Kind:     domain.KindSeries,
		SeriesId: seriesId,
		HostId:   hostId,
	})
	require.NoError(t, err)

	return resp.Room
}

func episodeOf(room domain.Room) [2]int {
	return [2]int{room.Content.SeasonNumber, room.Content.EpisodeNumber}
}
