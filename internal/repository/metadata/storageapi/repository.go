package storageapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sharetube/watchparty/internal/domain"
)

const pageSize = 100

var ErrUnexpectedStatus = errors.New("unexpected status code")

// repo reads the catalog from the storage service REST API.
type repo struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewRepo(baseURL string, client *http.Client, logger *slog.Logger) *repo {
	return &repo{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

type page[T any] struct {
	Content []T `json:"content"`
}

type movieDto struct {
	Id    int64  `json:"id"`
	Title string `json:"title"`
}

type seriesDto struct {
	Id    int64  `json:"id"`
	Title string `json:"title"`
}

type seasonDto struct {
	Id           int64  `json:"id"`
	SeriesId     int64  `json:"seriesId"`
	SeasonNumber int    `json:"seasonNumber"`
	Title        string `json:"title"`
}

type episodeDto struct {
	Id            int64  `json:"id"`
	SeriesId      int64  `json:"seriesId"`
	SeasonId      int64  `json:"seasonId"`
	EpisodeNumber int    `json:"episodeNumber"`
	Title         string `json:"title"`
}

func (d seasonDto) toDomain() domain.Season {
	return domain.Season{Id: d.Id, SeriesId: d.SeriesId, Number: d.SeasonNumber, Title: d.Title}
}

func (d episodeDto) toDomain() domain.Episode {
	return domain.Episode{Id: d.Id, SeriesId: d.SeriesId, SeasonId: d.SeasonId, Number: d.EpisodeNumber, Title: d.Title}
}

// get decodes the response for path into dst. It reports false when the
// storage service answers 404.
func (r *repo) get(ctx context.Context, path string, query url.Values, dst any) (bool, error) {
	u := r.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	r.logger.DebugContext(ctx, "called", "url", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		r.logger.DebugContext(ctx, "returned", "url", u, "found", false)
		return false, nil
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	r.logger.DebugContext(ctx, "returned", "url", u, "found", true)
	return true, nil
}

func pageQuery() url.Values {
	return url.Values{"size": []string{strconv.Itoa(pageSize)}}
}

func (r *repo) GetMovie(ctx context.Context, movieId int64) (*domain.Movie, error) {
	var dto movieDto
	found, err := r.get(ctx, fmt.Sprintf("/movies/%d", movieId), nil, &dto)
	if err != nil || !found {
		return nil, err
	}

	return &domain.Movie{Id: dto.Id, Title: dto.Title}, nil
}

func (r *repo) GetSeries(ctx context.Context, seriesId int64) (*domain.Series, error) {
	var dto seriesDto
	found, err := r.get(ctx, fmt.Sprintf("/series/%d", seriesId), nil, &dto)
	if err != nil || !found {
		return nil, err
	}

	return &domain.Series{Id: dto.Id, Title: dto.Title}, nil
}

func (r *repo) GetSeasonsBySeries(ctx context.Context, seriesId int64) ([]domain.Season, error) {
	var body page[seasonDto]
	if _, err := r.get(ctx, fmt.Sprintf("/series/%d/seasons", seriesId), pageQuery(), &body); err != nil {
		return nil, err
	}

	seasons := make([]domain.Season, 0, len(body.Content))
	for _, dto := range body.Content {
		season := dto.toDomain()
		if season.SeriesId == 0 {
			season.SeriesId = seriesId
		}
		seasons = append(seasons, season)
	}

	return seasons, nil
}

func (r *repo) getSeason(ctx context.Context, seasonId int64) (*domain.Season, error) {
	var dto seasonDto
	found, err := r.get(ctx, fmt.Sprintf("/series/seasons/%d", seasonId), nil, &dto)
	if err != nil || !found {
		return nil, err
	}

	season := dto.toDomain()
	return &season, nil
}

// GetEpisodesBySeason fills SeriesId through the season when the storage
// service leaves it out.
func (r *repo) GetEpisodesBySeason(ctx context.Context, seasonId int64) ([]domain.Episode, error) {
	var body page[episodeDto]
	if _, err := r.get(ctx, fmt.Sprintf("/series/seasons/%d/episodes", seasonId), pageQuery(), &body); err != nil {
		return nil, err
	}

	episodes := make([]domain.Episode, 0, len(body.Content))
	var season *domain.Season
	for _, dto := range body.Content {
		episode := dto.toDomain()
		if episode.SeasonId == 0 {
			episode.SeasonId = seasonId
		}

		if episode.SeriesId == 0 {
			if season == nil {
				s, err := r.getSeason(ctx, seasonId)
				if err != nil {
					return nil, fmt.Errorf("failed to get season: %w", err)
				}
				if s == nil {
					return nil, fmt.Errorf("season %d of listed episodes is missing", seasonId)
				}
				season = s
			}
			episode.SeriesId = season.SeriesId
		}

		episodes = append(episodes, episode)
	}

	return episodes, nil
}

func (r *repo) GetEpisode(ctx context.Context, episodeId int64) (*domain.Episode, error) {
	var dto episodeDto
	found, err := r.get(ctx, fmt.Sprintf("/series/episodes/%d", episodeId), nil, &dto)
	if err != nil || !found {
		return nil, err
	}

	episode := dto.toDomain()
	if episode.SeriesId == 0 {
		season, err := r.getSeason(ctx, episode.SeasonId)
		if err != nil {
			return nil, fmt.Errorf("failed to get season: %w", err)
		}
		if season != nil {
			episode.SeriesId = season.SeriesId
		}
	}

	return &episode, nil
}
