package room

import (
	"context"
	"fmt"

	"github.com/sharetube/watchparty/internal/domain"
)

type direction int

const (
	forward direction = iota
	backward
)

func (d direction) String() string {
	if d == forward {
		return "next"
	}

	return "previous"
}

type episodeTarget struct {
	season  domain.Season
	episode domain.Episode
}

func (t episodeTarget) apply(c *domain.Content) {
	c.SeasonId = t.season.Id
	c.SeasonNumber = t.season.Number
	c.EpisodeId = t.episode.Id
	c.EpisodeNumber = t.episode.Number
	c.EpisodeTitle = t.episode.Title
}

// firstEpisode finds the lowest numbered episode of the lowest numbered
// season that has any episodes.
func (s service) firstEpisode(ctx context.Context, seriesId int64) (episodeTarget, error) {
	seasons, err := s.getSeasons(ctx, seriesId)
	if err != nil {
		return episodeTarget{}, err
	}

	for _, season := range seasons {
		episodes, err := s.getEpisodes(ctx, season.Id)
		if err != nil {
			return episodeTarget{}, err
		}

		if len(episodes) > 0 {
			return episodeTarget{season: season, episode: episodes[0]}, nil
		}
	}

	return episodeTarget{}, fmt.Errorf("series %d: %w", seriesId, ErrEmptyContent)
}

// adjacentEpisode resolves the episode after (or before) the current one.
// Inside the current season the nearest episode number wins, so gaps in
// numbering are skipped. Past the season edge the nearest season that has
// episodes is used, entering it at its first episode going forward and at
// its last going backward.
func (s service) adjacentEpisode(ctx context.Context, content domain.Content, dir direction) (episodeTarget, error) {
	episodes, err := s.getEpisodes(ctx, content.SeasonId)
	if err != nil {
		return episodeTarget{}, err
	}

	current := domain.Season{Id: content.SeasonId, SeriesId: content.SeriesId, Number: content.SeasonNumber}
	if episode, ok := pickEpisode(episodes, content.EpisodeNumber, dir); ok {
		return episodeTarget{season: current, episode: episode}, nil
	}

	seasons, err := s.getSeasons(ctx, content.SeriesId)
	if err != nil {
		return episodeTarget{}, err
	}

	for _, season := range seasonsBeyond(seasons, content.SeasonNumber, dir) {
		episodes, err := s.getEpisodes(ctx, season.Id)
		if err != nil {
			return episodeTarget{}, err
		}

		if len(episodes) == 0 {
			continue
		}

		if dir == forward {
			return episodeTarget{season: season, episode: episodes[0]}, nil
		}

		return episodeTarget{season: season, episode: episodes[len(episodes)-1]}, nil
	}

	return episodeTarget{}, fmt.Errorf("%s of S%dE%d: %w", dir, content.SeasonNumber, content.EpisodeNumber, ErrNoAdjacentEpisode)
}

// pickEpisode expects episodes ordered by number.
func pickEpisode(episodes []domain.Episode, number int, dir direction) (domain.Episode, bool) {
	if dir == forward {
		for _, e := range episodes {
			if e.Number > number {
				return e, true
			}
		}

		return domain.Episode{}, false
	}

	for i := len(episodes) - 1; i >= 0; i-- {
		if episodes[i].Number < number {
			return episodes[i], true
		}
	}

	return domain.Episode{}, false
}

// seasonsBeyond returns the seasons past number in walking order. seasons
// must be ordered by number.
func seasonsBeyond(seasons []domain.Season, number int, dir direction) []domain.Season {
	result := make([]domain.Season, 0, len(seasons))
	if dir == forward {
		for _, season := range seasons {
			if season.Number > number {
				result = append(result, season)
			}
		}

		return result
	}

	for i := len(seasons) - 1; i >= 0; i-- {
		if seasons[i].Number < number {
			result = append(result, seasons[i])
		}
	}

	return result
}
