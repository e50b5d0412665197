package domain

import "time"

type Participant struct {
	UserId           string    `json:"user_id"`
	Username         string    `json:"username"`
	SessionId        string    `json:"-"`
	ObservedPosition float64   `json:"observed_position"`
	IsHost           bool      `json:"is_host"`
	JoinedAt         time.Time `json:"joined_at"`
	LastSeen         time.Time `json:"last_seen"`
}
