package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/model"
)

const citizenColumns = `
	id, national_id, first_name, last_name, middle_name, date_of_birth,
	place_of_birth, gender, marital_status, nationality, passport_number,
	passport_issue_date, passport_expiry_date, address, city, province,
	postal_code, phone, email, emergency_contact, emergency_phone,
	occupation, employer, is_active, created_at, updated_at`

func (r *citizenRepository) Create(ctx context.Context, citizen *model.Citizen) error {
	citizen.ID = uuid.New()
	citizen.CreatedAt = time.Now()
	citizen.UpdatedAt = citizen.CreatedAt

	query := `
		INSERT INTO citizens (` + citizenColumns + `)
		VALUES (
			:id, :national_id, :first_name, :last_name, :middle_name, :date_of_birth,
			:place_of_birth, :gender, :marital_status, :nationality, :passport_number,
			:passport_issue_date, :passport_expiry_date, :address, :city, :province,
			:postal_code, :phone, :email, :emergency_contact, :emergency_phone,
			:occupation, :employer, :is_active, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, citizen); err != nil {
		return translateError("citizen create", err)
	}
	return nil
}

func (r *citizenRepository) Get(ctx context.Context, id uuid.UUID) (*model.Citizen, error) {
	query := `SELECT ` + citizenColumns + ` FROM citizens WHERE id = $1`

	var citizen model.Citizen
	err := r.db.GetContext(ctx, &citizen, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, translateError("citizen get", err)
	}
	return &citizen, nil
}

func (r *citizenRepository) GetByNationalID(ctx context.Context, nationalID string) (*model.Citizen, error) {
	query := `SELECT ` + citizenColumns + ` FROM citizens WHERE national_id = $1`

	var citizen model.Citizen
	err := r.db.GetContext(ctx, &citizen, query, nationalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, translateError("citizen get", err)
	}
	return &citizen, nil
}

func (r *citizenRepository) Update(ctx context.Context, citizen *model.Citizen) error {
	citizen.UpdatedAt = time.Now()

	query := `
		UPDATE citizens
		SET address = :address, city = :city, province = :province,
			postal_code = :postal_code, phone = :phone, email = :email,
			emergency_contact = :emergency_contact, emergency_phone = :emergency_phone,
			occupation = :occupation, employer = :employer,
			marital_status = :marital_status, passport_number = :passport_number,
			passport_issue_date = :passport_issue_date,
			passport_expiry_date = :passport_expiry_date,
			is_active = :is_active, updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, citizen)
	if err != nil {
		return translateError("citizen update", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("citizen update", err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *citizenRepository) List(ctx context.Context, filters *model.CitizenFilters) ([]*model.Citizen, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filters.SearchTerm != "" {
		where += ` AND (first_name ILIKE ` + argN(idx) + ` OR last_name ILIKE ` + argN(idx) +
			` OR national_id ILIKE ` + argN(idx) + `)`
		args = append(args, "%"+filters.SearchTerm+"%")
		idx++
	}
	if filters.City != "" {
		where += ` AND city = ` + argN(idx)
		args = append(args, filters.City)
		idx++
	}
	if filters.IsActive != nil {
		where += ` AND is_active = ` + argN(idx)
		args = append(args, *filters.IsActive)
		idx++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM citizens`+where, args...); err != nil {
		return nil, 0, translateError("citizen list", err)
	}

	filters.Normalize()
	query := `SELECT ` + citizenColumns + ` FROM citizens` + where +
		` ORDER BY last_name ASC, first_name ASC` +
		` LIMIT ` + argN(idx) + ` OFFSET ` + argN(idx+1)
	args = append(args, filters.PageSize, filters.Offset())

	var citizens []*model.Citizen
	if err := r.db.SelectContext(ctx, &citizens, query, args...); err != nil {
		return nil, 0, translateError("citizen list", err)
	}
	return citizens, total, nil
}
