package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/maherrera/church-records/modules/hierarchy/domain/ports"
	"github.com/maherrera/church-records/modules/hierarchy/domain/types"
)

func seedStore(t *testing.T) *MemoryNodeStore {
	t.Helper()
	s := NewMemoryNodeStore()
	ctx := context.Background()
	for _, n := range []types.Node{
		{ID: "u1", Kind: types.KindUnion, Name: "U1"},
		{ID: "u2", Kind: types.KindUnion, Name: "U2"},
		{ID: "a1", Kind: types.KindAssociation, Name: "A1", ParentID: "u1"},
		{ID: "a2", Kind: types.KindAssociation, Name: "A2", ParentID: "u2"},
		{ID: "d1", Kind: types.KindDistrict, Name: "D1", ParentID: "a1"},
		{ID: "c1", Kind: types.KindChurch, Name: "C1", ParentID: "d1"},
		{ID: "d-orphan", Kind: types.KindDistrict, Name: "DO", ParentID: "a-gone"},
	} {
		if _, err := s.Create(ctx, n); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return s
}

func TestMemoryNodeStoreAncestorFilter(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	churches, err := s.List(ctx, types.KindChurch, ports.ListFilter{AncestorKind: types.KindUnion, AncestorID: "u1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(churches) != 1 || churches[0].ID != "c1" {
		t.Fatalf("churches = %+v", churches)
	}

	none, err := s.List(ctx, types.KindChurch, ports.ListFilter{AncestorKind: types.KindUnion, AncestorID: "u2"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("churches under u2 = %+v, want none", none)
	}

	// An orphaned row is excluded from filtered listings, not an error.
	districts, err := s.List(ctx, types.KindDistrict, ports.ListFilter{AncestorKind: types.KindUnion, AncestorID: "u1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(districts) != 1 || districts[0].ID != "d1" {
		t.Fatalf("districts = %+v", districts)
	}
}

func TestMemoryNodeStoreCRUD(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, types.KindUnion, "nope"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Get missing: %v", err)
	}
	if _, err := s.Update(ctx, types.Node{ID: "nope", Kind: types.KindUnion}); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("Update missing: %v", err)
	}
	if err := s.Delete(ctx, types.KindUnion, "u2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, types.KindUnion, "u2"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("repeat Delete: %v", err)
	}
}
