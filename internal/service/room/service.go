package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sharetube/watchparty/internal/domain"
)

var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrContentNotFound     = errors.New("content not found")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInvalidState        = errors.New("invalid state")
	ErrInvalidParams       = errors.New("invalid params")
	ErrUpstreamUnavailable = errors.New("metadata provider unavailable")
	ErrEmptyContent        = errors.New("series has no episodes")
	ErrNoAdjacentEpisode   = errors.New("no adjacent episode")
)

// iMetadataProvider answers catalog questions. Absent content is reported as
// a nil pointer or an empty slice with a nil error; a non-nil error means the
// provider could not answer.
type iMetadataProvider interface {
	GetMovie(ctx context.Context, movieId int64) (*domain.Movie, error)
	GetSeries(ctx context.Context, seriesId int64) (*domain.Series, error)
	GetSeasonsBySeries(ctx context.Context, seriesId int64) ([]domain.Season, error)
	GetEpisodesBySeason(ctx context.Context, seasonId int64) ([]domain.Episode, error)
	GetEpisode(ctx context.Context, episodeId int64) (*domain.Episode, error)
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	RoomIdLength    int
	MetadataTimeout time.Duration
	IdleThreshold   time.Duration
}

type service struct {
	registry        *registry
	metadata        iMetadataProvider
	generator       iGenerator
	logger          *slog.Logger
	roomIdLength    int
	metadataTimeout time.Duration
	idleThreshold   time.Duration
	now             func() time.Time
}

func NewService(metadata iMetadataProvider, generator iGenerator, logger *slog.Logger, cfg *Config) *service {
	return &service{
		registry:        newRegistry(),
		metadata:        metadata,
		generator:       generator,
		logger:          logger,
		roomIdLength:    cfg.RoomIdLength,
		metadataTimeout: cfg.MetadataTimeout,
		idleThreshold:   cfg.IdleThreshold,
		now:             time.Now,
	}
}
