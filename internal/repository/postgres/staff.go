package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/model"
)

const staffColumns = `
	id, employee_id, user_id, first_name, last_name, email, phone,
	date_of_birth, nationality, position, department, job_title,
	employment_type, hire_date, contract_end_date, supervisor_id,
	office_location, office_phone, is_active, is_on_leave,
	leave_start_date, leave_end_date, leave_type, emergency_contact,
	emergency_phone, created_at, updated_at`

func (r *staffRepository) Create(ctx context.Context, staff *model.Staff) error {
	staff.ID = uuid.New()
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = staff.CreatedAt

	query := `
		INSERT INTO staff (` + staffColumns + `)
		VALUES (
			:id, :employee_id, :user_id, :first_name, :last_name, :email, :phone,
			:date_of_birth, :nationality, :position, :department, :job_title,
			:employment_type, :hire_date, :contract_end_date, :supervisor_id,
			:office_location, :office_phone, :is_active, :is_on_leave,
			:leave_start_date, :leave_end_date, :leave_type, :emergency_contact,
			:emergency_phone, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, staff); err != nil {
		return translateError("staff create", err)
	}
	return nil
}

func (r *staffRepository) Get(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id = $1`

	var staff model.Staff
	err := r.db.GetContext(ctx, &staff, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, translateError("staff get", err)
	}
	return &staff, nil
}

func (r *staffRepository) GetByEmployeeID(ctx context.Context, employeeID string) (*model.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE employee_id = $1`

	var staff model.Staff
	err := r.db.GetContext(ctx, &staff, query, employeeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, translateError("staff get", err)
	}
	return &staff, nil
}

func (r *staffRepository) Update(ctx context.Context, staff *model.Staff) error {
	staff.UpdatedAt = time.Now()

	query := `
		UPDATE staff
		SET user_id = :user_id, email = :email, phone = :phone,
			position = :position, department = :department, job_title = :job_title,
			employment_type = :employment_type, contract_end_date = :contract_end_date,
			supervisor_id = :supervisor_id, office_location = :office_location,
			office_phone = :office_phone, is_active = :is_active,
			is_on_leave = :is_on_leave, leave_start_date = :leave_start_date,
			leave_end_date = :leave_end_date, leave_type = :leave_type,
			emergency_contact = :emergency_contact, emergency_phone = :emergency_phone,
			updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, staff)
	if err != nil {
		return translateError("staff update", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("staff update", err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *staffRepository) List(ctx context.Context, filters *model.StaffFilters) ([]*model.Staff, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filters.Department != "" {
		where += ` AND department = ` + argN(idx)
		args = append(args, filters.Department)
		idx++
	}
	if filters.EmploymentType != "" {
		where += ` AND employment_type = ` + argN(idx)
		args = append(args, filters.EmploymentType)
		idx++
	}
	if filters.IsActive != nil {
		where += ` AND is_active = ` + argN(idx)
		args = append(args, *filters.IsActive)
		idx++
	}
	if filters.IsOnLeave != nil {
		where += ` AND is_on_leave = ` + argN(idx)
		args = append(args, *filters.IsOnLeave)
		idx++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM staff`+where, args...); err != nil {
		return nil, 0, translateError("staff list", err)
	}

	filters.Normalize()
	query := `SELECT ` + staffColumns + ` FROM staff` + where +
		` ORDER BY last_name ASC, first_name ASC` +
		` LIMIT ` + argN(idx) + ` OFFSET ` + argN(idx+1)
	args = append(args, filters.PageSize, filters.Offset())

	var members []*model.Staff
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, 0, translateError("staff list", err)
	}
	return members, total, nil
}
