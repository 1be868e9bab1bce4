package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/maherrera/church-records/modules/hierarchy/domain/ports"
	"github.com/maherrera/church-records/modules/hierarchy/domain/types"
)

type ParishionerPGStore struct {
	db pgQuerier
}

func NewParishionerPGStore(db pgQuerier) *ParishionerPGStore {
	return &ParishionerPGStore{db: db}
}

const parishionerColumns = `id, church_name, name, address, telephone, cellphone, whatsapp,
blood_type, birth_date, sex, baptized, baptized_date, parishioner_in_church, reunion_group,
positions, relation_status, family_members, house_owner, occupation, studies,
created_by, COALESCE(updated_by, ''), created_at, updated_at`

func scanParishioner(row pgx.Row) (types.Parishioner, error) {
	var rec types.Parishioner
	err := row.Scan(
		&rec.ID, &rec.ChurchName, &rec.Name, &rec.Address, &rec.Telephone, &rec.Cellphone, &rec.Whatsapp,
		&rec.BloodType, &rec.BirthDate, &rec.Sex, &rec.Baptized, &rec.BaptizedDate, &rec.ParishionerInChurch, &rec.ReunionGroup,
		&rec.Positions, &rec.RelationStatus, &rec.FamilyMembers, &rec.HouseOwner, &rec.Occupation, &rec.Studies,
		&rec.CreatedBy, &rec.UpdatedBy, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Parishioner{}, ports.ErrParishionerNotFound
		}
		return types.Parishioner{}, err
	}
	return rec, nil
}

func (s *ParishionerPGStore) Get(ctx context.Context, id string) (types.Parishioner, error) {
	return scanParishioner(s.db.QueryRow(ctx,
		`SELECT `+parishionerColumns+` FROM registry.parishioners WHERE id = $1`, id))
}

func (s *ParishionerPGStore) List(ctx context.Context, churchName string) ([]types.Parishioner, error) {
	sql := `SELECT ` + parishionerColumns + ` FROM registry.parishioners`
	var args []any
	if churchName != "" {
		sql += ` WHERE church_name = $1`
		args = append(args, churchName)
	}
	sql += ` ORDER BY name`

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Parishioner
	for rows.Next() {
		rec, err := scanParishioner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ParishionerPGStore) Create(ctx context.Context, rec types.Parishioner) (types.Parishioner, error) {
	_, err := s.db.Exec(ctx, `
INSERT INTO registry.parishioners (
  id, church_name, name, address, telephone, cellphone, whatsapp,
  blood_type, birth_date, sex, baptized, baptized_date, parishioner_in_church, reunion_group,
  positions, relation_status, family_members, house_owner, occupation, studies,
  created_by, created_at
) VALUES (
  $1, $2, $3, $4, $5, $6, $7,
  $8, $9, $10, $11, $12, $13, $14,
  $15, $16, $17, $18, $19, $20,
  $21, $22
)`,
		rec.ID, rec.ChurchName, rec.Name, rec.Address, rec.Telephone, rec.Cellphone, rec.Whatsapp,
		rec.BloodType, rec.BirthDate, rec.Sex, rec.Baptized, rec.BaptizedDate, rec.ParishionerInChurch, rec.ReunionGroup,
		rec.Positions, rec.RelationStatus, rec.FamilyMembers, rec.HouseOwner, rec.Occupation, rec.Studies,
		rec.CreatedBy, rec.CreatedAt,
	)
	if err != nil {
		return types.Parishioner{}, err
	}
	return rec, nil
}

func (s *ParishionerPGStore) Update(ctx context.Context, rec types.Parishioner) (types.Parishioner, error) {
	tag, err := s.db.Exec(ctx, `
UPDATE registry.parishioners SET
  church_name = $2, name = $3, address = $4, telephone = $5, cellphone = $6, whatsapp = $7,
  blood_type = $8, birth_date = $9, sex = $10, baptized = $11, baptized_date = $12,
  parishioner_in_church = $13, reunion_group = $14, positions = $15, relation_status = $16,
  family_members = $17, house_owner = $18, occupation = $19, studies = $20,
  updated_by = $21, updated_at = $22
WHERE id = $1`,
		rec.ID, rec.ChurchName, rec.Name, rec.Address, rec.Telephone, rec.Cellphone, rec.Whatsapp,
		rec.BloodType, rec.BirthDate, rec.Sex, rec.Baptized, rec.BaptizedDate,
		rec.ParishionerInChurch, rec.ReunionGroup, rec.Positions, rec.RelationStatus,
		rec.FamilyMembers, rec.HouseOwner, rec.Occupation, rec.Studies,
		rec.UpdatedBy, rec.UpdatedAt,
	)
	if err != nil {
		return types.Parishioner{}, err
	}
	if tag.RowsAffected() == 0 {
		return types.Parishioner{}, ports.ErrParishionerNotFound
	}
	return rec, nil
}

func (s *ParishionerPGStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM registry.parishioners WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrParishionerNotFound
	}
	return nil
}
