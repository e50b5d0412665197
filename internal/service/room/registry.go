package room

import (
	"sync"

	"golang.org/x/exp/maps"
)

// registry maps room ids to live rooms. It never calls into a room while
// holding its lock.
type registry struct {
	mu    sync.RWMutex
	rooms map[string]*roomActor
}

func newRegistry() *registry {
	return &registry{rooms: make(map[string]*roomActor)}
}

// add stores a and reports false if the id is already taken.
func (r *registry) add(a *roomActor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[a.id]; ok {
		return false
	}

	r.rooms[a.id] = a

	return true
}

func (r *registry) get(roomId string) (*roomActor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.rooms[roomId]

	return a, ok
}

// remove deletes the entry for a, if it is still the one registered.
func (r *registry) remove(a *roomActor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.rooms[a.id]; !ok || current != a {
		return false
	}

	delete(r.rooms, a.id)

	return true
}

func (r *registry) list() []*roomActor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Values(r.rooms)
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}
