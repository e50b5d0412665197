package inmemory

import (
	"log/slog"
	"sync"

	"github.com/sharetube/watchparty/internal/repository/connection"
)

type repo struct {
	sessions map[string]connection.Session
	rooms    map[string]map[string]struct{}
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		sessions: make(map[string]connection.Session),
		rooms:    make(map[string]map[string]struct{}),
	}
}

func (r *repo) Add(sessionId string, subscriber connection.Subscriber) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "session_id", sessionId)
	if _, ok := r.sessions[sessionId]; ok {
		slog.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.sessions[sessionId] = connection.Session{Id: sessionId, Subscriber: subscriber}

	slog.Debug(funcName, "result", "OK")
	return nil
}

// Attach binds the session to a room, moving it out of any room it was in.
// The previous binding is returned.
func (r *repo) Attach(sessionId, roomId, userId string) (connection.Session, error) {
	funcName := "connection.inmemory.Attach"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "session_id", sessionId, "room_id", roomId, "user_id", userId)
	session, ok := r.sessions[sessionId]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return connection.Session{}, connection.ErrNotFound
	}

	prev := session
	r.unbind(session)

	session.RoomId = roomId
	session.UserId = userId
	r.sessions[sessionId] = session

	members, ok := r.rooms[roomId]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[roomId] = members
	}
	members[sessionId] = struct{}{}

	slog.Debug(funcName, "result", "OK")
	return prev, nil
}

// Detach unbinds the session from its room but keeps it registered.
func (r *repo) Detach(sessionId string) (connection.Session, error) {
	funcName := "connection.inmemory.Detach"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "session_id", sessionId)
	session, ok := r.sessions[sessionId]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return connection.Session{}, connection.ErrNotFound
	}

	r.unbind(session)
	r.sessions[sessionId] = connection.Session{Id: sessionId, Subscriber: session.Subscriber}

	slog.Debug(funcName, "result", session.RoomId)
	return session, nil
}

func (r *repo) Remove(sessionId string) (connection.Session, error) {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "session_id", sessionId)
	session, ok := r.sessions[sessionId]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return connection.Session{}, connection.ErrNotFound
	}

	r.unbind(session)
	delete(r.sessions, sessionId)

	slog.Debug(funcName, "result", "OK")
	return session, nil
}

func (r *repo) Get(sessionId string) (connection.Session, error) {
	funcName := "connection.inmemory.Get"
	r.mu.RLock()
	defer r.mu.RUnlock()

	slog.Debug(funcName, "session_id", sessionId)
	session, ok := r.sessions[sessionId]
	if !ok {
		slog.Info(funcName, "error", connection.ErrNotFound)
		return connection.Session{}, connection.ErrNotFound
	}

	return session, nil
}

func (r *repo) GetByRoomId(roomId string) []connection.Session {
	funcName := "connection.inmemory.GetByRoomId"
	r.mu.RLock()
	defer r.mu.RUnlock()

	slog.Debug(funcName, "room_id", roomId)
	sessions := make([]connection.Session, 0, len(r.rooms[roomId]))
	for sessionId := range r.rooms[roomId] {
		sessions = append(sessions, r.sessions[sessionId])
	}

	slog.Debug(funcName, "result", len(sessions))
	return sessions
}

// DetachRoom unbinds every session of the room and returns them.
func (r *repo) DetachRoom(roomId string) []connection.Session {
	funcName := "connection.inmemory.DetachRoom"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "room_id", roomId)
	sessions := make([]connection.Session, 0, len(r.rooms[roomId]))
	for sessionId := range r.rooms[roomId] {
		session := r.sessions[sessionId]
		sessions = append(sessions, session)
		r.sessions[sessionId] = connection.Session{Id: sessionId, Subscriber: session.Subscriber}
	}
	delete(r.rooms, roomId)

	slog.Debug(funcName, "result", len(sessions))
	return sessions
}

// unbind must be called with the lock held.
func (r *repo) unbind(session connection.Session) {
	if session.RoomId == "" {
		return
	}

	members := r.rooms[session.RoomId]
	delete(members, session.Id)
	if len(members) == 0 {
		delete(r.rooms, session.RoomId)
	}
}
