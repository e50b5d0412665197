package domain

import "time"

type Kind string

const (
	KindMovie     Kind = "MOVIE"
	KindSeries    Kind = "SERIES"
	KindCustomURL Kind = "CUSTOM_URL"
)

func (k Kind) Valid() bool {
	switch k {
	case KindMovie, KindSeries, KindCustomURL:
		return true
	default:
		return false
	}
}

// Content is what a room is watching. Only the fields of the room kind are
// set: MovieId for movies, the series/season/episode fields for series and
// CustomUrl for custom rooms.
type Content struct {
	MovieId       int64  `json:"movie_id,omitempty"`
	SeriesId      int64  `json:"series_id,omitempty"`
	SeasonId      int64  `json:"season_id,omitempty"`
	SeasonNumber  int    `json:"season_number,omitempty"`
	EpisodeId     int64  `json:"episode_id,omitempty"`
	EpisodeNumber int    `json:"episode_number,omitempty"`
	EpisodeTitle  string `json:"episode_title,omitempty"`
	CustomUrl     string `json:"custom_url,omitempty"`
	Title         string `json:"title"`
}

// Room is a point-in-time copy of a room. Mutating it has no effect on the
// live room.
type Room struct {
	Id               string        `json:"id"`
	Name             string        `json:"name"`
	Kind             Kind          `json:"kind"`
	Content          Content       `json:"content"`
	Player           Player        `json:"player"`
	HostId           string        `json:"host_id"`
	LastActionUserId string        `json:"last_action_user_id,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	Participants     []Participant `json:"participants"`
}

func (r Room) Participant(userId string) (Participant, bool) {
	for _, p := range r.Participants {
		if p.UserId == userId {
			return p, true
		}
	}

	return Participant{}, false
}
