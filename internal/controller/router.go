package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (c controller) GetMux() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(c.requestIdMw)
	r.Use(c.requestLoggingMw)
	r.Use(cors.AllowAll().Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		})
		r.Get("/ws", c.serveWS)
		r.Get("/jobs", c.listJobs)
		r.Get("/users/{user-id}/is-host/{room-id}", c.isHost)
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", c.listRooms)
			r.Post("/movie", c.createMovieRoom)
			r.Post("/series", c.createSeriesRoom)
			r.Post("/custom", c.createCustomRoom)
			r.Route("/{room-id}", func(r chi.Router) {
				r.Get("/", c.getRoom)
				r.Delete("/", c.deleteRoom)
				r.Post("/leave", c.leaveRoom)
				r.Get("/participants", c.getParticipants)
				r.Get("/seasons", c.listSeasons)
				r.Get("/seasons/{season-id}/episodes", c.listEpisodes)
				r.Post("/seasons/{season-id}/switch", c.switchSeason)
				r.Post("/episodes/next", c.nextEpisode)
				r.Post("/episodes/previous", c.previousEpisode)
				r.Post("/episodes/{episode-id}/switch", c.switchEpisode)
			})
		})
	})

	return r
}
