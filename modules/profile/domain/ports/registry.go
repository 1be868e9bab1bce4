package ports

import (
	"context"
	"errors"

	"github.com/maherrera/church-records/modules/profile/domain/types"
)

var ErrProfileNotFound = errors.New("profile: not found")

// Registry persists one profile per user identity.
type Registry interface {
	FindByUser(ctx context.Context, userID string) (types.Profile, error)
	FindByID(ctx context.Context, id string) (types.Profile, error)
	List(ctx context.Context) ([]types.Profile, error)
	ListByLevel(ctx context.Context, level types.Level) ([]types.Profile, error)
	Create(ctx context.Context, p types.Profile) (types.Profile, error)
	UpdateByUser(ctx context.Context, p types.Profile) (types.Profile, error)
	DeleteByUser(ctx context.Context, userID string) error
}
