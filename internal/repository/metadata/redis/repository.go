package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchparty/internal/domain"
	"golang.org/x/sync/singleflight"
)

type iMetadataProvider interface {
	GetMovie(ctx context.Context, movieId int64) (*domain.Movie, error)
	GetSeries(ctx context.Context, seriesId int64) (*domain.Series, error)
	GetSeasonsBySeries(ctx context.Context, seriesId int64) ([]domain.Season, error)
	GetEpisodesBySeason(ctx context.Context, seasonId int64) ([]domain.Episode, error)
	GetEpisode(ctx context.Context, episodeId int64) (*domain.Episode, error)
}

// repo is a read-through cache in front of another metadata provider. Only
// content that exists is cached, and cache failures fall back to the
// provider.
type repo struct {
	rc     *redis.Client
	next   iMetadataProvider
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func NewRepo(rc *redis.Client, next iMetadataProvider, ttl time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc:     rc,
		next:   next,
		ttl:    ttl,
		logger: logger,
	}
}

type titleEntry struct {
	Id    int64  `redis:"id"`
	Title string `redis:"title"`
}

type episodeEntry struct {
	Id       int64  `redis:"id"`
	SeriesId int64  `redis:"series_id"`
	SeasonId int64  `redis:"season_id"`
	Number   int    `redis:"number"`
	Title    string `redis:"title"`
}

func (r *repo) getMovieKey(movieId int64) string {
	return fmt.Sprintf("metadata:movie:%d", movieId)
}

func (r *repo) getSeriesKey(seriesId int64) string {
	return fmt.Sprintf("metadata:series:%d", seriesId)
}

func (r *repo) getSeasonsKey(seriesId int64) string {
	return fmt.Sprintf("metadata:series:%d:seasons", seriesId)
}

func (r *repo) getEpisodesKey(seasonId int64) string {
	return fmt.Sprintf("metadata:season:%d:episodes", seasonId)
}

func (r *repo) getEpisodeKey(episodeId int64) string {
	return fmt.Sprintf("metadata:episode:%d", episodeId)
}

func (r *repo) GetMovie(ctx context.Context, movieId int64) (*domain.Movie, error) {
	key := r.getMovieKey(movieId)

	var entry titleEntry
	if r.hGet(ctx, key, &entry) {
		return &domain.Movie{Id: entry.Id, Title: entry.Title}, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		movie, err := r.next.GetMovie(ctx, movieId)
		if err != nil || movie == nil {
			return movie, err
		}

		r.hSet(ctx, key, titleEntry{Id: movie.Id, Title: movie.Title})
		return movie, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Movie), nil
}

func (r *repo) GetSeries(ctx context.Context, seriesId int64) (*domain.Series, error) {
	key := r.getSeriesKey(seriesId)

	var entry titleEntry
	if r.hGet(ctx, key, &entry) {
		return &domain.Series{Id: entry.Id, Title: entry.Title}, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		series, err := r.next.GetSeries(ctx, seriesId)
		if err != nil || series == nil {
			return series, err
		}

		r.hSet(ctx, key, titleEntry{Id: series.Id, Title: series.Title})
		return series, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Series), nil
}

func (r *repo) GetEpisode(ctx context.Context, episodeId int64) (*domain.Episode, error) {
	key := r.getEpisodeKey(episodeId)

	var entry episodeEntry
	if r.hGet(ctx, key, &entry) {
		return &domain.Episode{
			Id:       entry.Id,
			SeriesId: entry.SeriesId,
			SeasonId: entry.SeasonId,
			Number:   entry.Number,
			Title:    entry.Title,
		}, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		episode, err := r.next.GetEpisode(ctx, episodeId)
		if err != nil || episode == nil {
			return episode, err
		}

		r.hSet(ctx, key, episodeEntry{
			Id:       episode.Id,
			SeriesId: episode.SeriesId,
			SeasonId: episode.SeasonId,
			Number:   episode.Number,
			Title:    episode.Title,
		})
		return episode, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Episode), nil
}

func (r *repo) GetSeasonsBySeries(ctx context.Context, seriesId int64) ([]domain.Season, error) {
	key := r.getSeasonsKey(seriesId)

	var seasons []domain.Season
	if r.getJSON(ctx, key, &seasons) {
		return seasons, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		seasons, err := r.next.GetSeasonsBySeries(ctx, seriesId)
		if err != nil {
			return nil, err
		}

		if len(seasons) > 0 {
			r.setJSON(ctx, key, seasons)
		}
		return seasons, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]domain.Season), nil
}

func (r *repo) GetEpisodesBySeason(ctx context.Context, seasonId int64) ([]domain.Episode, error) {
	key := r.getEpisodesKey(seasonId)

	var episodes []domain.Episode
	if r.getJSON(ctx, key, &episodes) {
		return episodes, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		episodes, err := r.next.GetEpisodesBySeason(ctx, seasonId)
		if err != nil {
			return nil, err
		}

		if len(episodes) > 0 {
			r.setJSON(ctx, key, episodes)
		}
		return episodes, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]domain.Episode), nil
}

// hGet scans the hash at key into dst and reports whether it was there.
func (r *repo) hGet(ctx context.Context, key string, dst any) bool {
	res := r.rc.HGetAll(ctx, key)
	values, err := res.Result()
	if err != nil {
		r.logger.WarnContext(ctx, "failed to read metadata cache", "key", key, "error", err)
		return false
	}

	if len(values) == 0 {
		return false
	}

	if err := res.Scan(dst); err != nil {
		r.logger.WarnContext(ctx, "failed to scan metadata cache", "key", key, "error", err)
		return false
	}

	r.logger.DebugContext(ctx, "metadata cache hit", "key", key)
	return true
}

func (r *repo) hSet(ctx context.Context, key string, value any) {
	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, key, value)
	pipe.Expire(ctx, key, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.WarnContext(ctx, "failed to write metadata cache", "key", key, "error", err)
	}
}

func (r *repo) getJSON(ctx context.Context, key string, dst any) bool {
	data, err := r.rc.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WarnContext(ctx, "failed to read metadata cache", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		r.logger.WarnContext(ctx, "failed to decode metadata cache", "key", key, "error", err)
		return false
	}

	r.logger.DebugContext(ctx, "metadata cache hit", "key", key)
	return true
}

func (r *repo) setJSON(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to encode metadata cache", "key", key, "error", err)
		return
	}

	if err := r.rc.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "failed to write metadata cache", "key", key, "error", err)
	}
}
