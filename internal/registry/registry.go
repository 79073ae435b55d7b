package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rocketscienceinc/tictactoe-lineserver/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/entity"
)

// Registry holds the currently connected members by player id. It owns its own
// lock and never calls into a member while holding it.
type Registry[T any] struct {
	mu      sync.RWMutex
	members map[entity.PlayerID]T
}

func New[T any]() *Registry[T] {
	return &Registry[T]{
		members: make(map[entity.PlayerID]T),
	}
}

func (that *Registry[T]) Register(id entity.PlayerID, member T) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, exists := that.members[id]; exists {
		return fmt.Errorf("%w: player %d", apperror.ErrSeatTaken, id)
	}

	that.members[id] = member

	return nil
}

// Unregister removes the member and reports whether it was present.
func (that *Registry[T]) Unregister(id entity.PlayerID) (T, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	member, exists := that.members[id]
	if exists {
		delete(that.members, id)
	}

	return member, exists
}

// ForEach calls action for every member in player order. The members are copied
// under the read lock and action runs without it, so action may block on I/O or
// mutate the registry.
func (that *Registry[T]) ForEach(action func(id entity.PlayerID, member T)) {
	type entry struct {
		id     entity.PlayerID
		member T
	}

	that.mu.RLock()
	entries := make([]entry, 0, len(that.members))
	for id, member := range that.members {
		entries = append(entries, entry{id: id, member: member})
	}
	that.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	for _, e := range entries {
		action(e.id, e.member)
	}
}

func (that *Registry[T]) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.members)
}
