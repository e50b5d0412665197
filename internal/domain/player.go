package domain

// Player is the canonical playback state of a room.
type Player struct {
	CurrentTime float64 `json:"current_time"`
	IsPlaying   bool    `json:"is_playing"`
}
