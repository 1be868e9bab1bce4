package services

import (
	"context"
	"errors"

	"github.com/maherrera/church-records/modules/hierarchy/domain/ports"
	"github.com/maherrera/church-records/modules/hierarchy/domain/types"
)

// ErrLineageBroken reports a parent reference whose target no longer
// exists. Callers treat it as a denial, never a crash.
var ErrLineageBroken = errors.New("hierarchy: broken ancestor chain")

// ScopeResolver walks parent references one hop at a time. No caching:
// every decision resolves freshly, so a stale chain can never widen a
// profile's scope.
type ScopeResolver struct {
	store ports.NodeStore
}

func NewScopeResolver(store ports.NodeStore) *ScopeResolver {
	return &ScopeResolver{store: store}
}

// ResolveAncestors returns the lineage of the given record up to the
// root union, including the record itself at its own level.
// ports.ErrNotFound means the record itself is missing; ErrLineageBroken
// means a link above it is missing.
func (r *ScopeResolver) ResolveAncestors(ctx context.Context, kind types.EntityKind, id string) (types.Lineage, error) {
	spec, ok := types.SpecFor(kind)
	if !ok {
		return types.Lineage{}, errors.New("hierarchy: unknown entity kind")
	}

	node, err := r.store.Get(ctx, kind, id)
	if err != nil {
		return types.Lineage{}, err
	}

	var lineage types.Lineage
	lineage.SetAt(spec.Depth, node.ID)

	for spec.Parent != "" {
		parentSpec, ok := types.SpecFor(spec.Parent)
		if !ok {
			return types.Lineage{}, errors.New("hierarchy: unknown parent kind")
		}
		parent, err := r.store.Get(ctx, spec.Parent, node.ParentID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return types.Lineage{}, ErrLineageBroken
			}
			return types.Lineage{}, err
		}
		lineage.SetAt(parentSpec.Depth, parent.ID)
		node = parent
		spec = parentSpec
	}
	return lineage, nil
}

// ResolveAncestorRefs returns the named ancestor chain of a record,
// nearest parent first, for display on single-record reads.
func (r *ScopeResolver) ResolveAncestorRefs(ctx context.Context, node types.Node) ([]types.AncestorRef, error) {
	spec, ok := types.SpecFor(node.Kind)
	if !ok {
		return nil, errors.New("hierarchy: unknown entity kind")
	}

	var refs []types.AncestorRef
	for spec.Parent != "" {
		parent, err := r.store.Get(ctx, spec.Parent, node.ParentID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return nil, ErrLineageBroken
			}
			return nil, err
		}
		refs = append(refs, types.AncestorRef{Kind: parent.Kind, ID: parent.ID, Name: parent.Name})
		node = parent
		spec, ok = types.SpecFor(node.Kind)
		if !ok {
			return nil, errors.New("hierarchy: unknown entity kind")
		}
	}
	return refs, nil
}
