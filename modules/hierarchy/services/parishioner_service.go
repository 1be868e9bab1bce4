package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maherrera/church-records/modules/hierarchy/domain/ports"
	"github.com/maherrera/church-records/modules/hierarchy/domain/types"
	profiletypes "github.com/maherrera/church-records/modules/profile/domain/types"
	"github.com/maherrera/church-records/pkg/httperr"
)

// ParishionerService manages the loosely-coupled civil records. They sit
// outside the hierarchy engine: access is either union-level authority or
// the parishioner flag with its church anchor, and the anchor is matched
// against the record's free-text church name.
type ParishionerService struct {
	store ports.ParishionerStore
	nodes ports.NodeStore
	now   func() time.Time
}

func NewParishionerService(store ports.ParishionerStore, nodes ports.NodeStore) *ParishionerService {
	return &ParishionerService{store: store, nodes: nodes, now: time.Now}
}

// parishScope is the resolved access of one profile: unrestricted, or
// limited to one church name.
type parishScope struct {
	churchName string
	restricted bool
}

func (s *ParishionerService) resolveScope(ctx context.Context, p profiletypes.Profile) (parishScope, error) {
	if p.CreateUnion {
		return parishScope{}, nil
	}
	if !p.CreateParishioner {
		return parishScope{}, httperr.NewUnauthorized(DenyNotAuthorized)
	}
	if p.ChurchID == "" {
		return parishScope{}, httperr.NewUnauthorized(DenyMissingChurchScope)
	}
	church, err := s.nodes.Get(ctx, types.KindChurch, p.ChurchID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return parishScope{}, httperr.NewUnauthorized(DenyLineageBroken)
		}
		return parishScope{}, err
	}
	return parishScope{churchName: church.Name, restricted: true}, nil
}

func (s *ParishionerService) List(ctx context.Context, p profiletypes.Profile) ([]types.Parishioner, error) {
	scope, err := s.resolveScope(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, scope.churchName)
}

func (s *ParishionerService) Get(ctx context.Context, p profiletypes.Profile, id string) (types.Parishioner, error) {
	scope, err := s.resolveScope(ctx, p)
	if err != nil {
		return types.Parishioner{}, err
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return types.Parishioner{}, mapStoreErr(err)
	}
	if scope.restricted && rec.ChurchName != scope.churchName {
		return types.Parishioner{}, httperr.NewUnauthorized(DenyOutsideChurchScope)
	}
	return rec, nil
}

func (s *ParishionerService) Create(ctx context.Context, p profiletypes.Profile, rec types.Parishioner) (types.Parishioner, error) {
	scope, err := s.resolveScope(ctx, p)
	if err != nil {
		return types.Parishioner{}, err
	}
	if err := validateParishioner(&rec); err != nil {
		return types.Parishioner{}, err
	}
	if scope.restricted && rec.ChurchName != scope.churchName {
		return types.Parishioner{}, httperr.NewUnauthorized(DenyOutsideChurchScope)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return types.Parishioner{}, fmt.Errorf("mint record id: %w", err)
	}
	rec.ID = id.String()
	rec.CreatedBy = p.UserID
	rec.CreatedAt = s.now().UTC()
	rec.UpdatedBy = ""
	rec.UpdatedAt = nil
	return s.store.Create(ctx, rec)
}

func (s *ParishionerService) Update(ctx context.Context, p profiletypes.Profile, id string, submitted types.Parishioner) (types.Parishioner, error) {
	scope, err := s.resolveScope(ctx, p)
	if err != nil {
		return types.Parishioner{}, err
	}
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return types.Parishioner{}, mapStoreErr(err)
	}
	if scope.restricted && current.ChurchName != scope.churchName {
		return types.Parishioner{}, httperr.NewUnauthorized(DenyOutsideChurchScope)
	}
	if err := validateParishioner(&submitted); err != nil {
		return types.Parishioner{}, err
	}
	if scope.restricted && submitted.ChurchName != scope.churchName {
		return types.Parishioner{}, httperr.NewUnauthorized(DenyOutsideChurchScope)
	}

	now := s.now().UTC()
	submitted.ID = current.ID
	submitted.CreatedBy = current.CreatedBy
	submitted.CreatedAt = current.CreatedAt
	submitted.UpdatedBy = p.UserID
	submitted.UpdatedAt = &now
	return s.store.Update(ctx, submitted)
}

func (s *ParishionerService) Delete(ctx context.Context, p profiletypes.Profile, id string) error {
	scope, err := s.resolveScope(ctx, p)
	if err != nil {
		return err
	}
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return mapStoreErr(err)
	}
	if scope.restricted && current.ChurchName != scope.churchName {
		return httperr.NewUnauthorized(DenyOutsideChurchScope)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

func validateParishioner(rec *types.Parishioner) error {
	rec.Name = strings.TrimSpace(rec.Name)
	rec.ChurchName = strings.TrimSpace(rec.ChurchName)
	if rec.Name == "" {
		return httperr.NewBadRequest("name is required")
	}
	if rec.ChurchName == "" {
		return httperr.NewBadRequest("church is required")
	}
	return nil
}
