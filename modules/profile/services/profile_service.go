package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/maherrera/church-records/modules/profile/domain/ports"
	"github.com/maherrera/church-records/modules/profile/domain/types"
	"github.com/maherrera/church-records/pkg/httperr"
)

// ProfileService manages the one-per-user profiles. Visibility follows
// the level ladder: Admin sees every profile, Pastor sees Secretaria
// profiles, Secretaria sees only itself.
type ProfileService struct {
	registry ports.Registry
	now      func() time.Time
}

func NewProfileService(registry ports.Registry) *ProfileService {
	return &ProfileService{registry: registry, now: time.Now}
}

func (s *ProfileService) Me(ctx context.Context, userID string) (types.Profile, error) {
	p, err := s.registry.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ports.ErrProfileNotFound) {
			return types.Profile{}, httperr.NewNotFound("profile not found")
		}
		return types.Profile{}, err
	}
	return p, nil
}

// Upsert creates the caller's profile on first submit and replaces it on
// every later one. The user reference and creation audit fields never
// change after the first write.
func (s *ProfileService) Upsert(ctx context.Context, userID string, submitted types.Profile) (types.Profile, error) {
	if err := validateProfile(submitted); err != nil {
		return types.Profile{}, err
	}
	submitted.UserID = userID

	current, err := s.registry.FindByUser(ctx, userID)
	switch {
	case err == nil:
		now := s.now().UTC()
		submitted.ID = current.ID
		submitted.CreatedBy = current.CreatedBy
		submitted.CreatedAt = current.CreatedAt
		submitted.UpdatedBy = userID
		submitted.UpdatedAt = &now
		return s.registry.UpdateByUser(ctx, submitted)
	case errors.Is(err, ports.ErrProfileNotFound):
		id, err := uuid.NewV7()
		if err != nil {
			return types.Profile{}, fmt.Errorf("mint profile id: %w", err)
		}
		submitted.ID = id.String()
		submitted.CreatedBy = userID
		submitted.CreatedAt = s.now().UTC()
		submitted.UpdatedBy = ""
		submitted.UpdatedAt = nil
		return s.registry.Create(ctx, submitted)
	default:
		return types.Profile{}, err
	}
}

// List returns the profiles visible to the caller's level.
func (s *ProfileService) List(ctx context.Context, caller types.Profile) ([]types.Profile, error) {
	switch caller.Level {
	case types.LevelAdmin:
		return s.registry.List(ctx)
	case types.LevelPastor:
		return s.registry.ListByLevel(ctx, types.LevelSecretaria)
	default:
		return nil, httperr.NewUnauthorized("NOT_AUTHORIZED")
	}
}

// GetByUser returns another user's profile when the caller's level may
// see it.
func (s *ProfileService) GetByUser(ctx context.Context, caller types.Profile, userID string) (types.Profile, error) {
	if caller.UserID == userID {
		return s.Me(ctx, userID)
	}

	target, err := s.registry.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, ports.ErrProfileNotFound) {
			return types.Profile{}, httperr.NewNotFound("profile not found")
		}
		return types.Profile{}, err
	}

	switch caller.Level {
	case types.LevelAdmin:
		return target, nil
	case types.LevelPastor:
		if target.Level == types.LevelSecretaria {
			return target, nil
		}
	}
	return types.Profile{}, httperr.NewUnauthorized("NOT_AUTHORIZED")
}

func (s *ProfileService) DeleteOwn(ctx context.Context, userID string) error {
	err := s.registry.DeleteByUser(ctx, userID)
	if errors.Is(err, ports.ErrProfileNotFound) {
		return httperr.NewNotFound("profile not found")
	}
	return err
}

// validateProfile checks level and the anchor each flag depends on. A
// flag without its anchor would make every later decision a denial, so
// the combination is rejected up front.
func validateProfile(p types.Profile) error {
	if !types.ValidLevel(p.Level) {
		return httperr.NewBadRequest(fmt.Sprintf("unknown level %q", p.Level))
	}
	if p.CreateAssociation && p.UnionID == "" {
		return httperr.NewBadRequest("createAssociation requires a union anchor")
	}
	if p.CreateDistrict && p.AssociationID == "" {
		return httperr.NewBadRequest("createDistrict requires an association anchor")
	}
	if p.CreateChurch && p.DistrictID == "" {
		return httperr.NewBadRequest("createChurch requires a district anchor")
	}
	if p.CreateParishioner && p.ChurchID == "" {
		return httperr.NewBadRequest("createParishioner requires a church anchor")
	}
	return nil
}
