package services

import (
	"context"
	"testing"

	"github.com/maherrera/church-records/modules/hierarchy/domain/types"
	"github.com/maherrera/church-records/modules/hierarchy/infrastructure/persistence"
	profiletypes "github.com/maherrera/church-records/modules/profile/domain/types"
	"github.com/maherrera/church-records/pkg/httperr"
)

func seededParishioners(t *testing.T) *ParishionerService {
	t.Helper()
	ctx := context.Background()

	nodes := persistence.NewMemoryNodeStore()
	for _, n := range []types.Node{
		{ID: "u1", Kind: types.KindUnion, Name: "Union One"},
		{ID: "a1", Kind: types.KindAssociation, Name: "Assoc One", ParentID: "u1"},
		{ID: "d1", Kind: types.KindDistrict, Name: "District One", ParentID: "a1"},
		{ID: "c1", Kind: types.KindChurch, Name: "Bethel", ParentID: "d1"},
	} {
		if _, err := nodes.Create(ctx, n); err != nil {
			t.Fatalf("seed node %s: %v", n.ID, err)
		}
	}

	recs := persistence.NewMemoryParishionerStore()
	for _, rec := range []types.Parishioner{
		{ID: "p1", Name: "Ana", ChurchName: "Bethel"},
		{ID: "p2", Name: "Berta", ChurchName: "Salem"},
	} {
		if _, err := recs.Create(ctx, rec); err != nil {
			t.Fatalf("seed parishioner %s: %v", rec.ID, err)
		}
	}
	return NewParishionerService(recs, nodes)
}

func TestParishionerListScopedToChurch(t *testing.T) {
	svc := seededParishioners(t)
	p := profiletypes.Profile{UserID: "sec", CreateParishioner: true, ChurchID: "c1"}

	out, err := svc.List(context.Background(), p)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 || out[0].ID != "p1" {
		t.Fatalf("list = %+v, want only Bethel records", out)
	}

	admin := profiletypes.Profile{UserID: "admin", CreateUnion: true}
	out, err = svc.List(context.Background(), admin)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("list = %+v, want all records", out)
	}
}

func TestParishionerAccessDenials(t *testing.T) {
	svc := seededParishioners(t)

	_, err := svc.List(context.Background(), profiletypes.Profile{UserID: "nobody"})
	if !httperr.IsUnauthorized(err) {
		t.Fatalf("flagless list: err = %v, want unauthorized", err)
	}

	_, err = svc.List(context.Background(), profiletypes.Profile{UserID: "sec", CreateParishioner: true})
	if !httperr.IsUnauthorized(err) {
		t.Fatalf("anchorless list: err = %v, want unauthorized", err)
	}

	p := profiletypes.Profile{UserID: "sec", CreateParishioner: true, ChurchID: "c1"}
	_, err = svc.Get(context.Background(), p, "p2")
	if !httperr.IsUnauthorized(err) {
		t.Fatalf("foreign-church get: err = %v, want unauthorized", err)
	}
	_, err = svc.Get(context.Background(), p, "missing")
	if !httperr.IsNotFound(err) {
		t.Fatalf("missing get: err = %v, want not found", err)
	}
}

func TestParishionerCreateValidatesChurch(t *testing.T) {
	svc := seededParishioners(t)
	p := profiletypes.Profile{UserID: "sec", CreateParishioner: true, ChurchID: "c1"}

	created, err := svc.Create(context.Background(), p, types.Parishioner{Name: "Clara", ChurchName: "Bethel"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || created.CreatedBy != "sec" || created.CreatedAt.IsZero() {
		t.Fatalf("audit fields = %+v", created)
	}

	// A record for a different church is rejected, never reassigned.
	_, err = svc.Create(context.Background(), p, types.Parishioner{Name: "Dora", ChurchName: "Salem"})
	if !httperr.IsUnauthorized(err) {
		t.Fatalf("foreign-church create: err = %v, want unauthorized", err)
	}

	_, err = svc.Create(context.Background(), p, types.Parishioner{Name: "Eva"})
	if !httperr.IsBadRequest(err) {
		t.Fatalf("missing church: err = %v, want bad request", err)
	}
}

func TestParishionerUpdateAndDelete(t *testing.T) {
	svc := seededParishioners(t)
	p := profiletypes.Profile{UserID: "sec", CreateParishioner: true, ChurchID: "c1"}

	updated, err := svc.Update(context.Background(), p, "p1", types.Parishioner{Name: "Ana Maria", ChurchName: "Bethel"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Ana Maria" || updated.UpdatedBy != "sec" || updated.UpdatedAt == nil {
		t.Fatalf("updated = %+v", updated)
	}

	// Moving the record out of the caller's church is rejected.
	_, err = svc.Update(context.Background(), p, "p1", types.Parishioner{Name: "Ana", ChurchName: "Salem"})
	if !httperr.IsUnauthorized(err) {
		t.Fatalf("church move: err = %v, want unauthorized", err)
	}

	if err := svc.Delete(context.Background(), p, "p1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(context.Background(), p, "p2"); !httperr.IsUnauthorized(err) {
		t.Fatalf("foreign delete: err = %v, want unauthorized", err)
	}
}
