package controller

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/sharetube/watchparty/internal/service/room"
	"github.com/sharetube/watchparty/pkg/rest"
)

const defaultHostUsername = "Host"

// readInput decodes and validates the request body into dst. It writes the
// error response itself and reports whether the handler may go on.
func (c controller) readInput(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := rest.ReadJSON(r, dst); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return false
	}

	if validationErrors, ok := c.validate.Validate(dst); !ok {
		c.logger.DebugContext(r.Context(), "validation failed", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return false
	}

	return true
}

type roomHost struct {
	HostId       string `json:"host_id" validate:"required,max=64"`
	HostUsername string `json:"host_username" validate:"max=32"`
	Name         string `json:"name" validate:"max=64"`
}

func (h roomHost) username() string {
	if h.HostUsername == "" {
		return defaultHostUsername
	}

	return h.HostUsername
}

type createMovieRoomInput struct {
	roomHost
	MovieId int64 `json:"movie_id" validate:"required,gt=0"`
}

func (c controller) createMovieRoom(w http.ResponseWriter, r *http.Request) {
	var input createMovieRoomInput
	if !c.readInput(w, r, &input) {
		return
	}

	c.createRoom(w, r, &room.CreateRoomParams{
		Kind:         domain.KindMovie,
		Name:         input.Name,
		MovieId:      input.MovieId,
		HostId:       input.HostId,
		HostUsername: input.username(),
	})
}

type createSeriesRoomInput struct {
	roomHost
	SeriesId int64 `json:"series_id" validate:"required,gt=0"`
}

func (c controller) createSeriesRoom(w http.ResponseWriter, r *http.Request) {
	var input createSeriesRoomInput
	if !c.readInput(w, r, &input) {
		return
	}

	c.createRoom(w, r, &room.CreateRoomParams{
		Kind:         domain.KindSeries,
		Name:         input.Name,
		SeriesId:     input.SeriesId,
		HostId:       input.HostId,
		HostUsername: input.username(),
	})
}

type createCustomRoomInput struct {
	roomHost
	URL string `json:"url" validate:"required,url,max=2048"`
}

func (c controller) createCustomRoom(w http.ResponseWriter, r *http.Request) {
	var input createCustomRoomInput
	if !c.readInput(w, r, &input) {
		return
	}

	c.createRoom(w, r, &room.CreateRoomParams{
		Kind:         domain.KindCustomURL,
		Name:         input.Name,
		CustomUrl:    input.URL,
		HostId:       input.HostId,
		HostUsername: input.username(),
	})
}

func (c controller) createRoom(w http.ResponseWriter, r *http.Request, params *room.CreateRoomParams) {
	createRoomResp, err := c.roomService.CreateRoom(r.Context(), params)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.logger.InfoContext(r.Context(), "room created",
		"room_id", createRoomResp.Room.Id,
		"kind", createRoomResp.Room.Kind,
		"host_id", createRoomResp.Room.HostId,
	)

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": createRoomResp.Room})
}

type roomSummary struct {
	Id               string         `json:"id"`
	Name             string         `json:"name"`
	Kind             domain.Kind    `json:"kind"`
	Content          domain.Content `json:"content"`
	Player           domain.Player  `json:"player"`
	HostId           string         `json:"host_id"`
	ParticipantCount int            `json:"participant_count"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (c controller) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms := c.roomService.ListRooms(r.Context())

	summaries := make([]roomSummary, 0, len(rooms))
	for _, rm := range rooms {
		summaries = append(summaries, roomSummary{
			Id:               rm.Id,
			Name:             rm.Name,
			Kind:             rm.Kind,
			Content:          rm.Content,
			Player:           rm.Player,
			HostId:           rm.HostId,
			ParticipantCount: len(rm.Participants),
			CreatedAt:        rm.CreatedAt,
		})
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": summaries})
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	rm, err := c.roomService.GetRoom(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": rm})
}

func (c controller) deleteRoom(w http.ResponseWriter, r *http.Request) {
	deleteRoomResp, err := c.roomService.DeleteRoom(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.broadcastRoomDeleted(r.Context(), deleteRoomResp.Room.Id)
	c.logger.InfoContext(r.Context(), "room deleted", "room_id", deleteRoomResp.Room.Id)

	w.WriteHeader(http.StatusNoContent)
}

type leaveRoomOutput struct {
	Room    domain.Room `json:"room"`
	Removed bool        `json:"removed"`
}

func (c controller) leaveRoom(w http.ResponseWriter, r *http.Request) {
	userId, err := c.getQueryParam(r, "user-id")
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	leaveRoomResp, err := c.roomService.LeaveRoom(r.Context(), chi.URLParam(r, "room-id"), userId)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	if leaveRoomResp.Removed {
		for _, session := range c.sessionsOfUser(leaveRoomResp.Room.Id, userId) {
			_, _ = c.connRepo.Detach(session.Id)
		}
		c.broadcastParticipantsUpdated(r.Context(), &leaveRoomResp.Room)
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": leaveRoomOutput{
		Room:    leaveRoomResp.Room,
		Removed: leaveRoomResp.Removed,
	}})
}

func (c controller) getParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := c.roomService.GetParticipants(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": participants})
}

func (c controller) isHost(w http.ResponseWriter, r *http.Request) {
	isHost, err := c.roomService.IsHost(r.Context(), chi.URLParam(r, "room-id"), chi.URLParam(r, "user-id"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": map[string]bool{"is_host": isHost}})
}

func (c controller) listSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := c.roomService.ListSeasons(r.Context(), chi.URLParam(r, "room-id"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": seasons})
}

func (c controller) listEpisodes(w http.ResponseWriter, r *http.Request) {
	seasonId, err := c.getIdParam(r, "season-id")
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	episodes, err := c.roomService.ListEpisodes(r.Context(), chi.URLParam(r, "room-id"), seasonId)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": episodes})
}

type hostActionInput struct {
	UserId string `json:"user_id" validate:"required,max=64"`
}

func (c controller) nextEpisode(w http.ResponseWriter, r *http.Request) {
	var input hostActionInput
	if !c.readInput(w, r, &input) {
		return
	}

	navigateResp, err := c.roomService.NextEpisode(r.Context(), &room.NavigateParams{
		RoomId: chi.URLParam(r, "room-id"),
		UserId: input.UserId,
	})
	c.writeEpisodeChanged(w, r, navigateResp.Room, err)
}

func (c controller) previousEpisode(w http.ResponseWriter, r *http.Request) {
	var input hostActionInput
	if !c.readInput(w, r, &input) {
		return
	}

	navigateResp, err := c.roomService.PreviousEpisode(r.Context(), &room.NavigateParams{
		RoomId: chi.URLParam(r, "room-id"),
		UserId: input.UserId,
	})
	c.writeEpisodeChanged(w, r, navigateResp.Room, err)
}

func (c controller) switchSeason(w http.ResponseWriter, r *http.Request) {
	seasonId, err := c.getIdParam(r, "season-id")
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	var input hostActionInput
	if !c.readInput(w, r, &input) {
		return
	}

	navigateResp, err := c.roomService.SwitchToSeason(r.Context(), &room.SwitchToSeasonParams{
		RoomId:   chi.URLParam(r, "room-id"),
		UserId:   input.UserId,
		SeasonId: seasonId,
	})
	c.writeEpisodeChanged(w, r, navigateResp.Room, err)
}

func (c controller) switchEpisode(w http.ResponseWriter, r *http.Request) {
	episodeId, err := c.getIdParam(r, "episode-id")
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	var input hostActionInput
	if !c.readInput(w, r, &input) {
		return
	}

	switchEpisodeResp, err := c.roomService.SwitchEpisode(r.Context(), &room.SwitchEpisodeParams{
		RoomId:    chi.URLParam(r, "room-id"),
		UserId:    input.UserId,
		EpisodeId: episodeId,
	})
	c.writeEpisodeChanged(w, r, switchEpisodeResp.Room, err)
}

func (c controller) writeEpisodeChanged(w http.ResponseWriter, r *http.Request, rm domain.Room, err error) {
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	c.broadcastEpisodeChanged(r.Context(), &rm)

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": rm})
}

func (c controller) listJobs(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": c.jobs.List()})
}
