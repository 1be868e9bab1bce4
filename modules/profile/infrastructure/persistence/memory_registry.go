package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/maherrera/church-records/modules/profile/domain/ports"
	"github.com/maherrera/church-records/modules/profile/domain/types"
)

// MemoryRegistry keeps profiles keyed by user, matching the
// one-profile-per-user semantics of the pg store.
type MemoryRegistry struct {
	mu     sync.RWMutex
	byUser map[string]types.Profile
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{byUser: make(map[string]types.Profile)}
}

func (r *MemoryRegistry) FindByUser(_ context.Context, userID string) (types.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byUser[userID]
	if !ok {
		return types.Profile{}, ports.ErrProfileNotFound
	}
	return p, nil
}

func (r *MemoryRegistry) FindByID(_ context.Context, id string) (types.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.byUser {
		if p.ID == id {
			return p, nil
		}
	}
	return types.Profile{}, ports.ErrProfileNotFound
}

func (r *MemoryRegistry) List(_ context.Context) ([]types.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Profile, 0, len(r.byUser))
	for _, p := range r.byUser {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRegistry) ListByLevel(_ context.Context, level types.Level) ([]types.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []types.Profile
	for _, p := range r.byUser {
		if p.Level == level {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRegistry) Create(_ context.Context, p types.Profile) (types.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[p.UserID] = p
	return p, nil
}

func (r *MemoryRegistry) UpdateByUser(_ context.Context, p types.Profile) (types.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[p.UserID]; !ok {
		return types.Profile{}, ports.ErrProfileNotFound
	}
	r.byUser[p.UserID] = p
	return p, nil
}

func (r *MemoryRegistry) DeleteByUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[userID]; !ok {
		return ports.ErrProfileNotFound
	}
	delete(r.byUser, userID)
	return nil
}
