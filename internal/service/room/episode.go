package room

import (
	"context"
	"fmt"

	"github.com/sharetube/watchparty/internal/domain"
)

type SwitchEpisodeParams struct {
	RoomId    string
	UserId    string
	EpisodeId int64
	// SeasonId is optional. When set it must match the episode's season.
	SeasonId int64
}

type SwitchEpisodeResponse struct {
	Room domain.Room
}

func (s service) SwitchEpisode(ctx context.Context, params *SwitchEpisodeParams) (SwitchEpisodeResponse, error) {
	a, room, err := s.seriesRoomForHost(ctx, params.RoomId, params.UserId)
	if err != nil {
		return SwitchEpisodeResponse{}, err
	}

	episode, err := s.getEpisode(ctx, params.EpisodeId)
	if err != nil {
		return SwitchEpisodeResponse{}, err
	}

	if episode.SeriesId != 0 && episode.SeriesId != room.Content.SeriesId {
		return SwitchEpisodeResponse{}, fmt.Errorf("%w: episode %d belongs to another series", ErrInvalidState, episode.Id)
	}

	if params.SeasonId != 0 && params.SeasonId != episode.SeasonId {
		return SwitchEpisodeResponse{}, fmt.Errorf("%w: episode %d is not in season %d", ErrInvalidState, episode.Id, params.SeasonId)
	}

	season, err := s.seasonOfSeries(ctx, room.Content.SeriesId, episode.SeasonId)
	if err != nil {
		return SwitchEpisodeResponse{}, err
	}

	room, err = s.applyEpisode(ctx, a, params.UserId, episodeTarget{season: season, episode: episode}, 0)
	if err != nil {
		return SwitchEpisodeResponse{}, err
	}

	return SwitchEpisodeResponse{Room: room}, nil
}

type NavigateParams struct {
	RoomId string
	UserId string
}

type NavigateResponse struct {
	Room domain.Room
}

func (s service) NextEpisode(ctx context.Context, params *NavigateParams) (NavigateResponse, error) {
	return s.navigate(ctx, params, forward)
}

func (s service) PreviousEpisode(ctx context.Context, params *NavigateParams) (NavigateResponse, error) {
	return s.navigate(ctx, params, backward)
}

func (s service) navigate(ctx context.Context, params *NavigateParams, dir direction) (NavigateResponse, error) {
	a, room, err := s.seriesRoomForHost(ctx, params.RoomId, params.UserId)
	if err != nil {
		return NavigateResponse{}, err
	}

	target, err := s.adjacentEpisode(ctx, room.Content, dir)
	if err != nil {
		return NavigateResponse{}, err
	}

	room, err = s.applyEpisode(ctx, a, params.UserId, target, room.Content.EpisodeId)
	if err != nil {
		return NavigateResponse{}, err
	}

	return NavigateResponse{Room: room}, nil
}

type SwitchToSeasonParams struct {
	RoomId   string
	UserId   string
	SeasonId int64
}

// SwitchToSeason jumps to the first episode of the season.
func (s service) SwitchToSeason(ctx context.Context, params *SwitchToSeasonParams) (NavigateResponse, error) {
	a, room, err := s.seriesRoomForHost(ctx, params.RoomId, params.UserId)
	if err != nil {
		return NavigateResponse{}, err
	}

	season, err := s.seasonOfSeries(ctx, room.Content.SeriesId, params.SeasonId)
	if err != nil {
		return NavigateResponse{}, err
	}

	episodes, err := s.getEpisodes(ctx, season.Id)
	if err != nil {
		return NavigateResponse{}, err
	}

	if len(episodes) == 0 {
		return NavigateResponse{}, fmt.Errorf("season %d: %w", season.Id, ErrEmptyContent)
	}

	room, err = s.applyEpisode(ctx, a, params.UserId, episodeTarget{season: season, episode: episodes[0]}, 0)
	if err != nil {
		return NavigateResponse{}, err
	}

	return NavigateResponse{Room: room}, nil
}

// ListSeasons returns the seasons of the series a room is watching.
func (s service) ListSeasons(ctx context.Context, roomId string) ([]domain.Season, error) {
	room, err := s.seriesRoom(ctx, roomId)
	if err != nil {
		return nil, err
	}

	return s.getSeasons(ctx, room.Content.SeriesId)
}

// ListEpisodes returns the episodes of one season of the series a room is
// watching.
func (s service) ListEpisodes(ctx context.Context, roomId string, seasonId int64) ([]domain.Episode, error) {
	room, err := s.seriesRoom(ctx, roomId)
	if err != nil {
		return nil, err
	}

	season, err := s.seasonOfSeries(ctx, room.Content.SeriesId, seasonId)
	if err != nil {
		return nil, err
	}

	return s.getEpisodes(ctx, season.Id)
}

func (s service) seriesRoom(ctx context.Context, roomId string) (domain.Room, error) {
	room, err := s.snapshot(ctx, roomId)
	if err != nil {
		return domain.Room{}, err
	}

	if room.Kind != domain.KindSeries {
		return domain.Room{}, fmt.Errorf("%w: room is not a series room", ErrInvalidState)
	}

	return room, nil
}

// seriesRoomForHost checks everything an episode change needs that does not
// depend on the catalog, so rejected callers never reach the metadata
// provider.
func (s service) seriesRoomForHost(ctx context.Context, roomId, userId string) (*roomActor, domain.Room, error) {
	a, err := s.checkIfHost(roomId, userId)
	if err != nil {
		return nil, domain.Room{}, err
	}

	if a.kind != domain.KindSeries {
		return nil, domain.Room{}, fmt.Errorf("%w: room is not a series room", ErrInvalidState)
	}

	var room domain.Room
	if err := a.do(ctx, func(st *roomState) {
		room = st.snapshot()
	}); err != nil {
		return nil, domain.Room{}, err
	}

	return a, room, nil
}

func (s service) seasonOfSeries(ctx context.Context, seriesId, seasonId int64) (domain.Season, error) {
	seasons, err := s.getSeasons(ctx, seriesId)
	if err != nil {
		return domain.Season{}, err
	}

	for _, season := range seasons {
		if season.Id == seasonId {
			return season, nil
		}
	}

	return domain.Season{}, fmt.Errorf("season %d of series %d: %w", seasonId, seriesId, ErrContentNotFound)
}

// applyEpisode moves the room to target and rewinds playback. With a
// non-zero expectedEpisodeId the change is only applied if the room is
// still on that episode.
func (s service) applyEpisode(ctx context.Context, a *roomActor, userId string, target episodeTarget, expectedEpisodeId int64) (domain.Room, error) {
	var (
		room  domain.Room
		stale bool
	)

	if err := a.do(ctx, func(st *roomState) {
		if expectedEpisodeId != 0 && st.content.EpisodeId != expectedEpisodeId {
			stale = true
			return
		}

		target.apply(&st.content)
		st.currentTime = 0
		st.isPlaying = false
		st.lastActionUserId = userId
		room = st.snapshot()
	}); err != nil {
		return domain.Room{}, err
	}

	if stale {
		return domain.Room{}, fmt.Errorf("%w: episode changed while resolving navigation", ErrInvalidState)
	}

	s.logger.InfoContext(ctx, "episode switched",
		"room_id", room.Id,
		"season_number", room.Content.SeasonNumber,
		"episode_number", room.Content.EpisodeNumber,
	)

	return room, nil
}
