package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/embassygq/consular-api/internal/model"
)

const visaColumns = `
	id, application_number, citizen_id, visa_type, purpose_of_visit,
	intended_entry_date, intended_exit_date, intended_duration,
	destination_address, destination_city, sponsor_name, sponsor_phone,
	sponsor_email, financial_support, status, fee_amount, fee_paid,
	payment_method, payment_date, assigned_to, review_date, decision_date,
	decision_notes, visa_number, visa_issue_date, visa_expiry_date,
	entries_permitted, duration_of_stay, documents_submitted,
	documents_verified, interview_required, interview_date, notes,
	created_at, updated_at`

const visaUpdateSet = `
	status = :status, fee_paid = :fee_paid, payment_method = :payment_method,
	payment_date = :payment_date, assigned_to = :assigned_to,
	review_date = :review_date, decision_date = :decision_date,
	decision_notes = :decision_notes, visa_number = :visa_number,
	visa_issue_date = :visa_issue_date, visa_expiry_date = :visa_expiry_date,
	entries_permitted = :entries_permitted, duration_of_stay = :duration_of_stay,
	documents_submitted = :documents_submitted,
	documents_verified = :documents_verified,
	interview_required = :interview_required, interview_date = :interview_date,
	notes = :notes, updated_at = :updated_at`

func (r *visaRepository) Create(ctx context.Context, app *model.VisaApplication) error {
	app.ID = uuid.New()
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt

	query := `
		INSERT INTO visa_applications (` + visaColumns + `)
		VALUES (
			:id, :application_number, :citizen_id, :visa_type, :purpose_of_visit,
			:intended_entry_date, :intended_exit_date, :intended_duration,
			:destination_address, :destination_city, :sponsor_name, :sponsor_phone,
			:sponsor_email, :financial_support, :status, :fee_amount, :fee_paid,
			:payment_method, :payment_date, :assigned_to, :review_date, :decision_date,
			:decision_notes, :visa_number, :visa_issue_date, :visa_expiry_date,
			:entries_permitted, :duration_of_stay, :documents_submitted,
			:documents_verified, :interview_required, :interview_date, :notes,
			:created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		return translateError("visa create", err)
	}
	return nil
}

func (r *visaRepository) Get(ctx context.Context, id uuid.UUID) (*model.VisaApplication, error) {
	query := `SELECT ` + visaColumns + ` FROM visa_applications WHERE id = $1`

	var app model.VisaApplication
	err := r.db.GetContext(ctx, &app, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, translateError("visa get", err)
	}
	return &app, nil
}

func (r *visaRepository) GetByApplicationNumber(ctx context.Context, number string) (*model.VisaApplication, error) {
	query := `SELECT ` + visaColumns + ` FROM visa_applications WHERE application_number = $1`

	var app model.VisaApplication
	err := r.db.GetContext(ctx, &app, query, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, translateError("visa get", err)
	}
	return &app, nil
}

func (r *visaRepository) Update(ctx context.Context, app *model.VisaApplication) error {
	app.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx,
		`UPDATE visa_applications SET `+visaUpdateSet+` WHERE id = :id`, app)
	if err != nil {
		return translateError("visa update", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("visa update", err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *visaRepository) UpdateWithEvent(ctx context.Context, app *model.VisaApplication, evt *model.OutboxEvent) error {
	app.UpdatedAt = time.Now()

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.NamedExecContext(ctx,
			`UPDATE visa_applications SET `+visaUpdateSet+` WHERE id = :id`, app)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return model.ErrNotFound
		}
		return insertOutboxEventTx(ctx, tx, evt)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return err
		}
		return translateError("visa update", err)
	}
	return nil
}

func (r *visaRepository) List(ctx context.Context, filters *model.VisaFilters) ([]*model.VisaApplication, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filters.CitizenID != uuid.Nil {
		where += ` AND citizen_id = ` + argN(idx)
		args = append(args, filters.CitizenID)
		idx++
	}
	if filters.Status != "" {
		where += ` AND status = ` + argN(idx)
		args = append(args, filters.Status)
		idx++
	}
	if filters.VisaType != "" {
		where += ` AND visa_type = ` + argN(idx)
		args = append(args, filters.VisaType)
		idx++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM visa_applications`+where, args...); err != nil {
		return nil, 0, translateError("visa list", err)
	}

	filters.Normalize()
	query := `SELECT ` + visaColumns + ` FROM visa_applications` + where +
		` ORDER BY created_at DESC` +
		` LIMIT ` + argN(idx) + ` OFFSET ` + argN(idx+1)
	args = append(args, filters.PageSize, filters.Offset())

	var apps []*model.VisaApplication
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, 0, translateError("visa list", err)
	}
	return apps, total, nil
}
