package storageapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/watchparty/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *repo {
	t.Helper()

	mux := chi.NewRouter()
	write := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}
	}

	mux.Get("/api/movies/1", write(`{"id":1,"title":"Heat","url":"ignored"}`))
	mux.Get("/api/series/10", write(`{"id":10,"title":"The Wire"}`))
	mux.Get("/api/series/10/seasons", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("size"))
		write(`{"content":[{"id":101,"seasonNumber":1},{"id":102,"seriesId":10,"seasonNumber":2}]}`)(w, r)
	})
	mux.Get("/api/series/seasons/101", write(`{"id":101,"seriesId":10,"seasonNumber":1}`))
	mux.Get("/api/series/seasons/101/episodes", write(`{"content":[{"id":1011,"episodeNumber":1,"title":"The Target"},{"id":1012,"seasonId":101,"episodeNumber":2}]}`))
	mux.Get("/api/series/episodes/1011", write(`{"id":1011,"seasonId":101,"episodeNumber":1}`))
	mux.Get("/api/movies/500", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.Get("/api/movies/bad", write(`{"id":`))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewRepo(srv.URL+"/api/", &http.Client{Timeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetMovie(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	movie, err := r.GetMovie(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &domain.Movie{Id: 1, Title: "Heat"}, movie)

	movie, err = r.GetMovie(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, movie, "404 means absent, not failure")

	_, err = r.GetMovie(ctx, 500)
	require.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestGetSeriesCatalog(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	series, err := r.GetSeries(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, &domain.Series{Id: 10, Title: "The Wire"}, series)

	seasons, err := r.GetSeasonsBySeries(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []domain.Season{
		{Id: 101, SeriesId: 10, Number: 1},
		{Id: 102, SeriesId: 10, Number: 2},
	}, seasons)

	episodes, err := r.GetEpisodesBySeason(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, []domain.Episode{
		{Id: 1011, SeriesId: 10, SeasonId: 101, Number: 1, Title: "The Target"},
		{Id: 1012, SeriesId: 10, SeasonId: 101, Number: 2},
	}, episodes)

	episode, err := r.GetEpisode(ctx, 1011)
	require.NoError(t, err)
	assert.Equal(t, &domain.Episode{Id: 1011, SeriesId: 10, SeasonId: 101, Number: 1}, episode)

	missing, err := r.GetEpisodesBySeason(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestTransportFailure(t *testing.T) {
	t.Parallel()

	r := NewRepo("http://127.0.0.1:1", &http.Client{Timeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := r.GetSeries(context.Background(), 10)
	assert.Error(t, err)
}

func TestDecodeFailure(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	var dto movieDto
	_, err := r.get(context.Background(), "/movies/bad", nil, &dto)
	assert.ErrorContains(t, err, "failed to decode response")
}
