package room

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/sharetube/watchparty/internal/domain"
)

// withRoom runs fn inside the room actor.
func (s service) withRoom(ctx context.Context, roomId string, fn func(*roomState)) error {
	a, ok := s.registry.get(roomId)
	if !ok {
		return ErrRoomNotFound
	}

	return a.do(ctx, fn)
}

func (s service) snapshot(ctx context.Context, roomId string) (domain.Room, error) {
	var room domain.Room
	if err := s.withRoom(ctx, roomId, func(st *roomState) {
		room = st.snapshot()
	}); err != nil {
		return domain.Room{}, err
	}

	return room, nil
}

// checkIfHost rejects callers other than the room host without entering the
// room actor, hostId being immutable.
func (s service) checkIfHost(roomId, userId string) (*roomActor, error) {
	a, ok := s.registry.get(roomId)
	if !ok {
		return nil, ErrRoomNotFound
	}

	if a.hostId != userId {
		return nil, ErrPermissionDenied
	}

	return a, nil
}

func upstreamError(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, ErrUpstreamUnavailable, err)
}

func (s service) getMovie(ctx context.Context, movieId int64) (domain.Movie, error) {
	ctx, cancel := context.WithTimeout(ctx, s.metadataTimeout)
	defer cancel()

	movie, err := s.metadata.GetMovie(ctx, movieId)
	if err != nil {
		return domain.Movie{}, upstreamError("get movie", err)
	}

	if movie == nil {
		return domain.Movie{}, fmt.Errorf("movie %d: %w", movieId, ErrContentNotFound)
	}

	return *movie, nil
}

func (s service) getSeries(ctx context.Context, seriesId int64) (domain.Series, error) {
	ctx, cancel := context.WithTimeout(ctx, s.metadataTimeout)
	defer cancel()

	series, err := s.metadata.GetSeries(ctx, seriesId)
	if err != nil {
		return domain.Series{}, upstreamError("get series", err)
	}

	if series == nil {
		return domain.Series{}, fmt.Errorf("series %d: %w", seriesId, ErrContentNotFound)
	}

	return *series, nil
}

// getSeasons returns the seasons of a series ordered by number.
func (s service) getSeasons(ctx context.Context, seriesId int64) ([]domain.Season, error) {
	ctx, cancel := context.WithTimeout(ctx, s.metadataTimeout)
	defer cancel()

	seasons, err := s.metadata.GetSeasonsBySeries(ctx, seriesId)
	if err != nil {
		return nil, upstreamError("get seasons", err)
	}

	seasons = slices.Clone(seasons)
	slices.SortFunc(seasons, func(a, b domain.Season) int { return cmp.Compare(a.Number, b.Number) })

	return seasons, nil
}

// getEpisodes returns the episodes of a season ordered by number.
func (s service) getEpisodes(ctx context.Context, seasonId int64) ([]domain.Episode, error) {
	ctx, cancel := context.WithTimeout(ctx, s.metadataTimeout)
	defer cancel()

	episodes, err := s.metadata.GetEpisodesBySeason(ctx, seasonId)
	if err != nil {
		return nil, upstreamError("get episodes", err)
	}

	episodes = slices.Clone(episodes)
	slices.SortFunc(episodes, func(a, b domain.Episode) int { return cmp.Compare(a.Number, b.Number) })

	return episodes, nil
}

func (s service) getEpisode(ctx context.Context, episodeId int64) (domain.Episode, error) {
	ctx, cancel := context.WithTimeout(ctx, s.metadataTimeout)
	defer cancel()

	episode, err := s.metadata.GetEpisode(ctx, episodeId)
	if err != nil {
		return domain.Episode{}, upstreamError("get episode", err)
	}

	if episode == nil {
		return domain.Episode{}, fmt.Errorf("episode %d: %w", episodeId, ErrContentNotFound)
	}

	return *episode, nil
}

func sortParticipants(participants []domain.Participant) {
	slices.SortFunc(participants, func(a, b domain.Participant) int {
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}

		return cmp.Compare(a.UserId, b.UserId)
	})
}
