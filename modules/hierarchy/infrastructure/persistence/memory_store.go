package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/maherrera/church-records/modules/hierarchy/domain/ports"
	"github.com/maherrera/church-records/modules/hierarchy/domain/types"
)

// MemoryNodeStore is the in-process fallback used when no database is
// configured, and the store of choice in tests.
type MemoryNodeStore struct {
	mu    sync.RWMutex
	nodes map[types.EntityKind]map[string]types.Node
}

func NewMemoryNodeStore() *MemoryNodeStore {
	nodes := make(map[types.EntityKind]map[string]types.Node)
	for _, kind := range types.Kinds() {
		nodes[kind] = make(map[string]types.Node)
	}
	return &MemoryNodeStore{nodes: nodes}
}

func (s *MemoryNodeStore) Get(_ context.Context, kind types.EntityKind, id string) (types.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.nodes[kind][id]
	if !ok {
		return types.Node{}, ports.ErrNotFound
	}
	return node, nil
}

func (s *MemoryNodeStore) List(_ context.Context, kind types.EntityKind, filter ports.ListFilter) ([]types.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Node, 0, len(s.nodes[kind]))
	for _, node := range s.nodes[kind] {
		if filter.AncestorID == "" || s.underAncestorLocked(node, filter) {
			out = append(out, node)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// underAncestorLocked walks parent links upward until it reaches the
// filter's ancestor kind. A broken link excludes the row, it never fails
// the whole listing.
func (s *MemoryNodeStore) underAncestorLocked(node types.Node, filter ports.ListFilter) bool {
	current := node
	for {
		spec, ok := types.SpecFor(current.Kind)
		if !ok || spec.Parent == "" {
			return false
		}
		parent, ok := s.nodes[spec.Parent][current.ParentID]
		if !ok {
			return false
		}
		if parent.Kind == filter.AncestorKind {
			return parent.ID == filter.AncestorID
		}
		current = parent
	}
}

func (s *MemoryNodeStore) Create(_ context.Context, node types.Node) (types.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[node.Kind][node.ID] = node
	return node, nil
}

func (s *MemoryNodeStore) Update(_ context.Context, node types.Node) (types.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[node.Kind][node.ID]; !ok {
		return types.Node{}, ports.ErrNotFound
	}
	s.nodes[node.Kind][node.ID] = node
	return node, nil
}

func (s *MemoryNodeStore) Delete(_ context.Context, kind types.EntityKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[kind][id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.nodes[kind], id)
	return nil
}

type MemoryParishionerStore struct {
	mu   sync.RWMutex
	recs map[string]types.Parishioner
}

func NewMemoryParishionerStore() *MemoryParishionerStore {
	return &MemoryParishionerStore{recs: make(map[string]types.Parishioner)}
}

func (s *MemoryParishionerStore) Get(_ context.Context, id string) (types.Parishioner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return types.Parishioner{}, ports.ErrParishionerNotFound
	}
	return rec, nil
}

func (s *MemoryParishionerStore) List(_ context.Context, churchName string) ([]types.Parishioner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Parishioner, 0, len(s.recs))
	for _, rec := range s.recs {
		if churchName == "" || rec.ChurchName == churchName {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryParishionerStore) Create(_ context.Context, rec types.Parishioner) (types.Parishioner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = rec
	return rec, nil
}

func (s *MemoryParishionerStore) Update(_ context.Context, rec types.Parishioner) (types.Parishioner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[rec.ID]; !ok {
		return types.Parishioner{}, ports.ErrParishionerNotFound
	}
	s.recs[rec.ID] = rec
	return rec, nil
}

func (s *MemoryParishionerStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[id]; !ok {
		return ports.ErrParishionerNotFound
	}
	delete(s.recs, id)
	return nil
}
