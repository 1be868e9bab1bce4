package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/maherrera/church-records/modules/profile/domain/ports"
	"github.com/maherrera/church-records/modules/profile/domain/types"
)

type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type ProfilePGStore struct {
	db pgQuerier
}

func NewProfilePGStore(db pgQuerier) *ProfilePGStore {
	return &ProfilePGStore{db: db}
}

const profileColumns = `id, user_id, level,
create_union, create_association, create_district, create_church, create_parishioner,
COALESCE(union_id, ''), COALESCE(association_id, ''), COALESCE(district_id, ''), COALESCE(church_id, ''),
created_by, COALESCE(updated_by, ''), created_at, updated_at`

func scanProfile(row pgx.Row) (types.Profile, error) {
	var p types.Profile
	err := row.Scan(
		&p.ID, &p.UserID, &p.Level,
		&p.CreateUnion, &p.CreateAssociation, &p.CreateDistrict, &p.CreateChurch, &p.CreateParishioner,
		&p.UnionID, &p.AssociationID, &p.DistrictID, &p.ChurchID,
		&p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Profile{}, ports.ErrProfileNotFound
		}
		return types.Profile{}, err
	}
	return p, nil
}

func (s *ProfilePGStore) FindByUser(ctx context.Context, userID string) (types.Profile, error) {
	return scanProfile(s.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM registry.profiles WHERE user_id = $1`, userID))
}

func (s *ProfilePGStore) FindByID(ctx context.Context, id string) (types.Profile, error) {
	return scanProfile(s.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM registry.profiles WHERE id = $1`, id))
}

func (s *ProfilePGStore) List(ctx context.Context) ([]types.Profile, error) {
	return s.list(ctx, `SELECT `+profileColumns+` FROM registry.profiles ORDER BY created_at`)
}

func (s *ProfilePGStore) ListByLevel(ctx context.Context, level types.Level) ([]types.Profile, error) {
	return s.list(ctx, `SELECT `+profileColumns+` FROM registry.profiles WHERE level = $1 ORDER BY created_at`, string(level))
}

func (s *ProfilePGStore) list(ctx context.Context, sql string, args ...any) ([]types.Profile, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProfilePGStore) Create(ctx context.Context, p types.Profile) (types.Profile, error) {
	_, err := s.db.Exec(ctx, `
INSERT INTO registry.profiles (
  id, user_id, level,
  create_union, create_association, create_district, create_church, create_parishioner,
  union_id, association_id, district_id, church_id,
  created_by, created_at
) VALUES (
  $1, $2, $3,
  $4, $5, $6, $7, $8,
  NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''),
  $13, $14
)`,
		p.ID, p.UserID, string(p.Level),
		p.CreateUnion, p.CreateAssociation, p.CreateDistrict, p.CreateChurch, p.CreateParishioner,
		p.UnionID, p.AssociationID, p.DistrictID, p.ChurchID,
		p.CreatedBy, p.CreatedAt,
	)
	if err != nil {
		return types.Profile{}, err
	}
	return p, nil
}

func (s *ProfilePGStore) UpdateByUser(ctx context.Context, p types.Profile) (types.Profile, error) {
	tag, err := s.db.Exec(ctx, `
UPDATE registry.profiles SET
  level = $2,
  create_union = $3, create_association = $4, create_district = $5, create_church = $6, create_parishioner = $7,
  union_id = NULLIF($8, ''), association_id = NULLIF($9, ''), district_id = NULLIF($10, ''), church_id = NULLIF($11, ''),
  updated_by = $12, updated_at = $13
WHERE user_id = $1`,
		p.UserID, string(p.Level),
		p.CreateUnion, p.CreateAssociation, p.CreateDistrict, p.CreateChurch, p.CreateParishioner,
		p.UnionID, p.AssociationID, p.DistrictID, p.ChurchID,
		p.UpdatedBy, p.UpdatedAt,
	)
	if err != nil {
		return types.Profile{}, err
	}
	if tag.RowsAffected() == 0 {
		return types.Profile{}, ports.ErrProfileNotFound
	}
	return p, nil
}

func (s *ProfilePGStore) DeleteByUser(ctx context.Context, userID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM registry.profiles WHERE user_id = $1`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrProfileNotFound
	}
	return nil
}
