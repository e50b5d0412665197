package inmemory

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/sharetube/watchparty/internal/domain"
)

type repo struct {
	movies   map[int64]domain.Movie
	series   map[int64]domain.Series
	seasons  map[int64]domain.Season
	episodes map[int64]domain.Episode
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		movies:   make(map[int64]domain.Movie),
		series:   make(map[int64]domain.Series),
		seasons:  make(map[int64]domain.Season),
		episodes: make(map[int64]domain.Episode),
	}
}

func (r *repo) AddMovie(movie domain.Movie) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.movies[movie.Id] = movie
}

func (r *repo) AddSeries(series domain.Series) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.series[series.Id] = series
}

func (r *repo) AddSeason(season domain.Season) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seasons[season.Id] = season
}

// AddEpisode stores episode, filling SeriesId from its season when the
// season is already known.
func (r *repo) AddEpisode(episode domain.Episode) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if season, ok := r.seasons[episode.SeasonId]; ok && episode.SeriesId == 0 {
		episode.SeriesId = season.SeriesId
	}

	r.episodes[episode.Id] = episode
}

func (r *repo) GetMovie(ctx context.Context, movieId int64) (*domain.Movie, error) {
	funcName := "metadata.inmemory.GetMovie"
	r.mu.RLock()
	defer r.mu.RUnlock()

	slog.DebugContext(ctx, funcName, "movie_id", movieId)
	movie, ok := r.movies[movieId]
	if !ok {
		return nil, nil
	}

	return &movie, nil
}

func (r *repo) GetSeries(ctx context.Context, seriesId int64) (*domain.Series, error) {
	funcName := "metadata.inmemory.GetSeries"
	r.mu.RLock()
	defer r.mu.RUnlock()

	slog.DebugContext(ctx, funcName, "series_id", seriesId)
	series, ok := r.series[seriesId]
	if !ok {
		return nil, nil
	}

	return &series, nil
}

func (r *repo) GetSeasonsBySeries(ctx context.Context, seriesId int64) ([]domain.Season, error) {
	funcName := "metadata.inmemory.GetSeasonsBySeries"
	r.mu.RLock()
	defer r.mu.RUnlock()

	slog.DebugContext(ctx, funcName, "series_id", seriesId)
	seasons := make([]domain.Season, 0)
	for _, season := range r.seasons {
		if season.SeriesId == seriesId {
			seasons = append(seasons, season)
		}
	}
	slices.SortFunc(seasons, func(a, b domain.Season) int { return cmp.Compare(a.Number, b.Number) })

	slog.DebugContext(ctx, funcName, "result", len(seasons))
	return seasons, nil
}

func (r *repo) GetEpisodesBySeason(ctx context.Context, seasonId int64) ([]domain.Episode, error) {
	funcName := "metadata.inmemory.GetEpisodesBySeason"
	r.mu.RLock()
	defer r.mu.RUnlock()

	slog.DebugContext(ctx, funcName, "season_id", seasonId)
	episodes := make([]domain.Episode, 0)
	for _, episode := range r.episodes {
		if episode.SeasonId == seasonId {
			episodes = append(episodes, episode)
		}
	}
	slices.SortFunc(episodes, func(a, b domain.Episode) int { return cmp.Compare(a.Number, b.Number) })

	slog.DebugContext(ctx, funcName, "result", len(episodes))
	return episodes, nil
}

func (r *repo) GetEpisode(ctx context.Context, episodeId int64) (*domain.Episode, error) {
	funcName := "metadata.inmemory.GetEpisode"
	r.mu.RLock()
	defer r.mu.RUnlock()

	slog.DebugContext(ctx, funcName, "episode_id", episodeId)
	episode, ok := r.episodes[episodeId]
	if !ok {
		return nil, nil
	}

	return &episode, nil
}
