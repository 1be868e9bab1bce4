package ports

import (
	"context"
	"errors"

	"github.com/maherrera/church-records/modules/hierarchy/domain/types"
)

var (
	ErrNotFound            = errors.New("hierarchy: record not found")
	ErrParishionerNotFound = errors.New("hierarchy: parishioner not found")
)

// ListFilter restricts a collection read to the subtree under one
// ancestor. The zero value means no restriction.
type ListFilter struct {
	AncestorKind types.EntityKind
	AncestorID   string
}

// NodeStore persists the four hierarchy kinds uniformly. Ancestor
// filtering above the immediate parent is implemented with join queries.
type NodeStore interface {
	Get(ctx context.Context, kind types.EntityKind, id string) (types.Node, error)
	List(ctx context.Context, kind types.EntityKind, filter ListFilter) ([]types.Node, error)
	Create(ctx context.Context, node types.Node) (types.Node, error)
	Update(ctx context.Context, node types.Node) (types.Node, error)
	Delete(ctx context.Context, kind types.EntityKind, id string) error
}

type ParishionerStore interface {
	Get(ctx context.Context, id string) (types.Parishioner, error)
	List(ctx context.Context, churchName string) ([]types.Parishioner, error)
	Create(ctx context.Context, p types.Parishioner) (types.Parishioner, error)
	Update(ctx context.Context, p types.Parishioner) (types.Parishioner, error)
	Delete(ctx context.Context, id string) error
}
