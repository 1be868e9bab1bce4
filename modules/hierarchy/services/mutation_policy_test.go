package services

import (
	"testing"
	"time"

	"github.com/maherrera/church-records/modules/hierarchy/domain/types"
	"github.com/maherrera/church-records/pkg/httperr"
)

func TestPrepareCreateValidation(t *testing.T) {
	policy := NewMutationPolicy()

	_, err := policy.PrepareCreate("u", types.Node{Kind: types.KindDistrict, Name: "  ", ParentID: "a1"})
	if !httperr.IsBadRequest(err) {
		t.Fatalf("blank name: err = %v, want bad request", err)
	}
	_, err = policy.PrepareCreate("u", types.Node{Kind: types.KindDistrict, Name: "D"})
	if !httperr.IsBadRequest(err) {
		t.Fatalf("missing parent: err = %v, want bad request", err)
	}
	_, err = policy.PrepareCreate("u", types.Node{Kind: types.KindUnion, Name: "U", ParentID: "x"})
	if !httperr.IsBadRequest(err) {
		t.Fatalf("union with parent: err = %v, want bad request", err)
	}
	_, err = policy.PrepareCreate("u", types.Node{Kind: "planet", Name: "X"})
	if !httperr.IsBadRequest(err) {
		t.Fatalf("unknown kind: err = %v, want bad request", err)
	}
}

func TestPrepareCreateStamps(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	policy := &MutationPolicy{now: func() time.Time { return fixed }}

	node, err := policy.PrepareCreate("creator", types.Node{Kind: types.KindUnion, Name: " Union Seven "})
	if err != nil {
		t.Fatalf("PrepareCreate: %v", err)
	}
	if node.ID == "" {
		t.Fatalf("no id minted")
	}
	if node.Name != "Union Seven" {
		t.Fatalf("Name = %q, want trimmed", node.Name)
	}
	if node.CreatedBy != "creator" || !node.CreatedAt.Equal(fixed) {
		t.Fatalf("create audit fields = %+v", node)
	}
	if node.UpdatedBy != "" || node.UpdatedAt != nil {
		t.Fatalf("update audit fields stamped on create")
	}
}

func TestPrepareUpdatePreservesCreationAudit(t *testing.T) {
	fixed := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)
	policy := &MutationPolicy{now: func() time.Time { return fixed }}

	current := types.Node{
		ID: "d1", Kind: types.KindDistrict, Name: "Old", ParentID: "a1",
		CreatedBy: "creator", CreatedAt: fixed.Add(-24 * time.Hour),
	}
	next, err := policy.PrepareUpdate("editor", current, types.Node{Name: "New", ParentID: "a1"})
	if err != nil {
		t.Fatalf("PrepareUpdate: %v", err)
	}
	if next.ID != "d1" || next.Name != "New" {
		t.Fatalf("next = %+v", next)
	}
	if next.CreatedBy != "creator" || !next.CreatedAt.Equal(current.CreatedAt) {
		t.Fatalf("creation audit fields changed: %+v", next)
	}
	if next.UpdatedBy != "editor" || next.UpdatedAt == nil || !next.UpdatedAt.Equal(fixed) {
		t.Fatalf("update audit fields = %+v", next)
	}

	_, err = policy.PrepareUpdate("editor", current, types.Node{Name: "New"})
	if !httperr.IsBadRequest(err) {
		t.Fatalf("missing parent on update: err = %v, want bad request", err)
	}
}
