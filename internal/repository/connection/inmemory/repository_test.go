package inmemory

import (
	"testing"

	"github.com/sharetube/watchparty/internal/repository/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSubscriber struct{ id string }

func (nopSubscriber) Send(any) error { return nil }

func sessionIds(sessions []connection.Session) []string {
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.Id)
	}
	return ids
}

func TestRepo(t *testing.T) {
	t.Parallel()

	r := NewRepo()

	require.NoError(t, r.Add("s1", nopSubscriber{"s1"}))
	require.NoError(t, r.Add("s2", nopSubscriber{"s2"}))
	assert.ErrorIs(t, r.Add("s1", nopSubscriber{}), connection.ErrAlreadyExists)

	prev, err := r.Attach("s1", "room-a", "alice")
	require.NoError(t, err)
	assert.Empty(t, prev.RoomId)

	_, err = r.Attach("s2", "room-a", "bob")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"s1", "s2"}, sessionIds(r.GetByRoomId("room-a")))

	prev, err = r.Attach("s2", "room-b", "bob")
	require.NoError(t, err)
	assert.Equal(t, "room-a", prev.RoomId)
	assert.Equal(t, []string{"s1"}, sessionIds(r.GetByRoomId("room-a")))
	assert.Equal(t, []string{"s2"}, sessionIds(r.GetByRoomId("room-b")))

	session, err := r.Detach("s1")
	require.NoError(t, err)
	assert.Equal(t, "alice", session.UserId)
	assert.Empty(t, r.GetByRoomId("room-a"))

	session, err = r.Get("s1")
	require.NoError(t, err)
	assert.Empty(t, session.RoomId)
	assert.Equal(t, nopSubscriber{"s1"}, session.Subscriber)

	session, err = r.Remove("s2")
	require.NoError(t, err)
	assert.Equal(t, "room-b", session.RoomId)
	assert.Empty(t, r.GetByRoomId("room-b"))

	_, err = r.Get("s2")
	assert.ErrorIs(t, err, connection.ErrNotFound)
	_, err = r.Attach("s2", "room-a", "bob")
	assert.ErrorIs(t, err, connection.ErrNotFound)
	_, err = r.Detach("s2")
	assert.ErrorIs(t, err, connection.ErrNotFound)
	_, err = r.Remove("s2")
	assert.ErrorIs(t, err, connection.ErrNotFound)
}

func TestDetachRoom(t *testing.T) {
	t.Parallel()

	r := NewRepo()
	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, r.Add(id, nopSubscriber{id}))
	}
	_, _ = r.Attach("s1", "room-a", "alice")
	_, _ = r.Attach("s2", "room-a", "bob")
	_, _ = r.Attach("s3", "room-b", "carol")

	detached := r.DetachRoom("room-a")
	assert.ElementsMatch(t, []string{"s1", "s2"}, sessionIds(detached))
	assert.Empty(t, r.GetByRoomId("room-a"))
	assert.Len(t, r.GetByRoomId("room-b"), 1)

	session, err := r.Get("s1")
	require.NoError(t, err)
	assert.Empty(t, session.RoomId)
}
