package room

import (
	"context"
	"time"

	"github.com/sharetube/watchparty/internal/domain"
)

type participant struct {
	userId           string
	username         string
	sessionId        string
	observedPosition float64
	joinedAt         time.Time
	lastSeen         time.Time
}

// roomState is owned by a single actor goroutine and must not be touched
// from anywhere else.
type roomState struct {
	id               string
	name             string
	kind             domain.Kind
	content          domain.Content
	currentTime      float64
	isPlaying        bool
	hostId           string
	lastActionUserId string
	createdAt        time.Time
	participants     map[string]*participant
	retired          bool
}

func (st *roomState) snapshot() domain.Room {
	participants := make([]domain.Participant, 0, len(st.participants))
	for _, p := range st.participants {
		participants = append(participants, p.snapshot(st.hostId))
	}
	sortParticipants(participants)

	return domain.Room{
		Id:      st.id,
		Name:    st.name,
		Kind:    st.kind,
		Content: st.content,
		Player: domain.Player{
			CurrentTime: st.currentTime,
			IsPlaying:   st.isPlaying,
		},
		HostId:           st.hostId,
		LastActionUserId: st.lastActionUserId,
		CreatedAt:        st.createdAt,
		Participants:     participants,
	}
}

func (p *participant) snapshot(hostId string) domain.Participant {
	return domain.Participant{
		UserId:           p.userId,
		Username:         p.username,
		SessionId:        p.sessionId,
		ObservedPosition: p.observedPosition,
		IsHost:           p.userId == hostId,
		JoinedAt:         p.joinedAt,
		LastSeen:         p.lastSeen,
	}
}

// roomActor serializes every mutation of one room through its goroutine.
// id, hostId and kind never change after creation and are safe to read
// without going through the actor.
type roomActor struct {
	id     string
	hostId string
	kind   domain.Kind
	cmds   chan func(*roomState)
	done   chan struct{}
}

func newRoomActor(st *roomState) *roomActor {
	return &roomActor{
		id:     st.id,
		hostId: st.hostId,
		kind:   st.kind,
		cmds:   make(chan func(*roomState)),
		done:   make(chan struct{}),
	}
}

// start hands st over to the actor goroutine. st must not be used by the
// caller afterwards.
func (a *roomActor) start(st *roomState) {
	go a.run(st)
}

func (a *roomActor) run(st *roomState) {
	defer close(a.done)

	for {
		fn := <-a.cmds
		fn(st)

		if st.retired {
			return
		}
	}
}

// do runs fn on the room goroutine and waits for it to return. Once a
// command has set retired the room accepts nothing else and do reports
// ErrRoomNotFound.
func (a *roomActor) do(ctx context.Context, fn func(*roomState)) error {
	finished := make(chan struct{})
	cmd := func(st *roomState) {
		defer close(finished)
		fn(st)
	}

	select {
	case a.cmds <- cmd:
	case <-a.done:
		return ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}

	<-finished

	return nil
}
