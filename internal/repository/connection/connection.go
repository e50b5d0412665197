package connection

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Subscriber receives outbound room messages.
type Subscriber interface {
	Send(msg any) error
}

// Session is one live transport connection and the room it has joined, if
// any.
type Session struct {
	Id         string
	RoomId     string
	UserId     string
	Subscriber Subscriber
}
