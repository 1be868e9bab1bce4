package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/maherrera/church-records/modules/hierarchy/domain/ports"
	"github.com/maherrera/church-records/modules/hierarchy/domain/types"
)

// pgQuerier is satisfied by *pgxpool.Pool and by pgx.Tx.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type kindTable struct {
	table     string
	parentCol string
}

var kindTables = map[types.EntityKind]kindTable{
	types.KindUnion:       {table: "registry.unions"},
	types.KindAssociation: {table: "registry.associations", parentCol: "union_id"},
	types.KindDistrict:    {table: "registry.districts", parentCol: "association_id"},
	types.KindChurch:      {table: "registry.churches", parentCol: "district_id"},
}

// NodePGStore persists the four hierarchy kinds in one table per kind.
// Ancestor filters above the immediate parent become join chains.
type NodePGStore struct {
	db pgQuerier
}

func NewNodePGStore(db pgQuerier) *NodePGStore {
	return &NodePGStore{db: db}
}

func nodeColumns(prefix string, kt kindTable) string {
	parent := "''"
	if kt.parentCol != "" {
		parent = prefix + "." + kt.parentCol
	}
	return fmt.Sprintf("%s.id, %s.name, %s, %s.created_by, COALESCE(%s.updated_by, ''), %s.created_at, %s.updated_at",
		prefix, prefix, parent, prefix, prefix, prefix, prefix)
}

func scanNode(row pgx.Row, kind types.EntityKind) (types.Node, error) {
	node := types.Node{Kind: kind}
	err := row.Scan(&node.ID, &node.Name, &node.ParentID, &node.CreatedBy, &node.UpdatedBy, &node.CreatedAt, &node.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Node{}, ports.ErrNotFound
		}
		return types.Node{}, err
	}
	return node, nil
}

func (s *NodePGStore) Get(ctx context.Context, kind types.EntityKind, id string) (types.Node, error) {
	kt, ok := kindTables[kind]
	if !ok {
		return types.Node{}, fmt.Errorf("unknown record kind %q", kind)
	}
	sql := fmt.Sprintf(`SELECT %s FROM %s t WHERE t.id = $1`, nodeColumns("t", kt), kt.table)
	return scanNode(s.db.QueryRow(ctx, sql, id), kind)
}

func (s *NodePGStore) List(ctx context.Context, kind types.EntityKind, filter ports.ListFilter) ([]types.Node, error) {
	kt, ok := kindTables[kind]
	if !ok {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}

	sql, args, err := listQuery(kind, kt, filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Node
	for rows.Next() {
		node, err := scanNode(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// listQuery joins upward from the listed kind to the filter's ancestor
// level. t0 is the listed table, t1 its parent and so on.
func listQuery(kind types.EntityKind, kt kindTable, filter ports.ListFilter) (string, []any, error) {
	base := fmt.Sprintf(`SELECT %s FROM %s t0`, nodeColumns("t0", kt), kt.table)
	if filter.AncestorID == "" {
		return base + ` ORDER BY t0.name`, nil, nil
	}

	spec, ok := types.SpecFor(kind)
	if !ok {
		return "", nil, fmt.Errorf("unknown record kind %q", kind)
	}
	ancestorSpec, ok := types.SpecFor(filter.AncestorKind)
	if !ok || ancestorSpec.Depth >= spec.Depth {
		return "", nil, fmt.Errorf("invalid ancestor filter %q for %q", filter.AncestorKind, kind)
	}

	var b strings.Builder
	b.WriteString(base)
	childSpec := spec
	childKT := kt
	hop := 0
	// Join parents until the child of the ancestor level, then filter on
	// that child's parent column.
	for childSpec.Parent != ancestorSpec.Kind {
		parentKT := kindTables[childSpec.Parent]
		fmt.Fprintf(&b, ` JOIN %s t%d ON t%d.%s = t%d.id`, parentKT.table, hop+1, hop, childKT.parentCol, hop+1)
		parentSpec, ok := types.SpecFor(childSpec.Parent)
		if !ok {
			return "", nil, fmt.Errorf("unknown record kind %q", childSpec.Parent)
		}
		childSpec = parentSpec
		childKT = parentKT
		hop++
	}
	fmt.Fprintf(&b, ` WHERE t%d.%s = $1 ORDER BY t0.name`, hop, childKT.parentCol)
	return b.String(), []any{filter.AncestorID}, nil
}

func (s *NodePGStore) Create(ctx context.Context, node types.Node) (types.Node, error) {
	kt, ok := kindTables[node.Kind]
	if !ok {
		return types.Node{}, fmt.Errorf("unknown record kind %q", node.Kind)
	}

	if kt.parentCol == "" {
		sql := fmt.Sprintf(`INSERT INTO %s (id, name, created_by, created_at) VALUES ($1, $2, $3, $4)`, kt.table)
		if _, err := s.db.Exec(ctx, sql, node.ID, node.Name, node.CreatedBy, node.CreatedAt); err != nil {
			return types.Node{}, err
		}
		return node, nil
	}
	sql := fmt.Sprintf(`INSERT INTO %s (id, name, %s, created_by, created_at) VALUES ($1, $2, $3, $4, $5)`, kt.table, kt.parentCol)
	if _, err := s.db.Exec(ctx, sql, node.ID, node.Name, node.ParentID, node.CreatedBy, node.CreatedAt); err != nil {
		return types.Node{}, err
	}
	return node, nil
}

func (s *NodePGStore) Update(ctx context.Context, node types.Node) (types.Node, error) {
	kt, ok := kindTables[node.Kind]
	if !ok {
		return types.Node{}, fmt.Errorf("unknown record kind %q", node.Kind)
	}

	var sql string
	var args []any
	if kt.parentCol == "" {
		sql = fmt.Sprintf(`UPDATE %s SET name = $2, updated_by = $3, updated_at = $4 WHERE id = $1`, kt.table)
		args = []any{node.ID, node.Name, node.UpdatedBy, node.UpdatedAt}
	} else {
		sql = fmt.Sprintf(`UPDATE %s SET name = $2, %s = $3, updated_by = $4, updated_at = $5 WHERE id = $1`, kt.table, kt.parentCol)
		args = []any{node.ID, node.Name, node.ParentID, node.UpdatedBy, node.UpdatedAt}
	}
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return types.Node{}, err
	}
	if tag.RowsAffected() == 0 {
		return types.Node{}, ports.ErrNotFound
	}
	return node, nil
}

func (s *NodePGStore) Delete(ctx context.Context, kind types.EntityKind, id string) error {
	kt, ok := kindTables[kind]
	if !ok {
		return fmt.Errorf("unknown record kind %q", kind)
	}
	tag, err := s.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, kt.table), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}
