package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/embassygq/consular-api/internal/model"
	"github.com/embassygq/consular-api/internal/repository"
)

const appointmentColumns = `
	id, appointment_number, citizen_id, staff_id, appointment_type,
	scheduled_at, duration_minutes, status, priority, notes,
	cancellation_reason, confirmed_by, confirmed_at, completed_at,
	outcome, follow_up_required, follow_up_date, documents_required,
	special_requirements, interpreter_required, interpreter_language,
	accessibility_needs, reminder_sent, reminder_date,
	created_at, updated_at`

// dayLockKey derives the advisory lock key for a calendar day. All
// bookings touching the same day serialize on this key.
func dayLockKey(t time.Time) int64 {
	return t.UTC().Truncate(24*time.Hour).Unix() / 86400
}

// dayBounds returns the [start, end) window of the calendar day that
// contains t, in t's location.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.Add(24 * time.Hour)
}

// activeOnDay loads, inside the transaction, every appointment on the
// given day that still blocks its interval.
func (r *appointmentRepository) activeOnDay(ctx context.Context, tx *sqlx.Tx, day time.Time, exclude uuid.UUID) ([]*model.Appointment, error) {
	start, end := dayBounds(day)
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE scheduled_at >= $1 AND scheduled_at < $2
		AND status NOT IN ('cancelled', 'no_show')
		AND id != $3
	`
	var existing []*model.Appointment
	if err := tx.SelectContext(ctx, &existing, query, start, end, exclude); err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *appointmentRepository) CreateInSlot(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent, precheck repository.ConflictCheck) error {
	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = apt.CreatedAt

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, dayLockKey(apt.ScheduledAt)); err != nil {
			return err
		}

		existing, err := r.activeOnDay(ctx, tx, apt.ScheduledAt, apt.ID)
		if err != nil {
			return err
		}
		if err := precheck(existing); err != nil {
			return err
		}

		insert := `
			INSERT INTO appointments (` + appointmentColumns + `)
			VALUES (
				:id, :appointment_number, :citizen_id, :staff_id, :appointment_type,
				:scheduled_at, :duration_minutes, :status, :priority, :notes,
				:cancellation_reason, :confirmed_by, :confirmed_at, :completed_at,
				:outcome, :follow_up_required, :follow_up_date, :documents_required,
				:special_requirements, :interpreter_required, :interpreter_language,
				:accessibility_needs, :reminder_sent, :reminder_date,
				:created_at, :updated_at
			)
		`
		if _, err := tx.NamedExecContext(ctx, insert, apt); err != nil {
			return err
		}

		if evt != nil {
			return insertOutboxEventTx(ctx, tx, evt)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrSlotUnavailable) {
			return err
		}
		return translateError("appointment create", err)
	}
	return nil
}

func (r *appointmentRepository) RescheduleInSlot(ctx context.Context, apt *model.Appointment, precheck repository.ConflictCheck) error {
	apt.UpdatedAt = time.Now()

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, dayLockKey(apt.ScheduledAt)); err != nil {
			return err
		}

		existing, err := r.activeOnDay(ctx, tx, apt.ScheduledAt, apt.ID)
		if err != nil {
			return err
		}
		if err := precheck(existing); err != nil {
			return err
		}

		update := `
			UPDATE appointments
			SET scheduled_at = :scheduled_at, duration_minutes = :duration_minutes,
				notes = :notes, special_requirements = :special_requirements,
				updated_at = :updated_at
			WHERE id = :id
		`
		result, err := tx.NamedExecContext(ctx, update, apt)
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
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrSlotUnavailable) || errors.Is(err, model.ErrNotFound) {
			return err
		}
		return translateError("appointment reschedule", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = $1
	`
	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, translateError("appointment get", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) Update(ctx context.Context, apt *model.Appointment) error {
	apt.UpdatedAt = time.Now()

	query := `
		UPDATE appointments
		SET staff_id = :staff_id, status = :status, notes = :notes,
			cancellation_reason = :cancellation_reason,
			confirmed_by = :confirmed_by, confirmed_at = :confirmed_at,
			completed_at = :completed_at, outcome = :outcome,
			follow_up_required = :follow_up_required, follow_up_date = :follow_up_date,
			special_requirements = :special_requirements,
			reminder_sent = :reminder_sent, reminder_date = :reminder_date,
			updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, apt)
	if err != nil {
		return translateError("appointment update", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("appointment update", err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) UpdateWithEvent(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error {
	apt.UpdatedAt = time.Now()

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE appointments
			SET staff_id = :staff_id, status = :status, notes = :notes,
				cancellation_reason = :cancellation_reason,
				confirmed_by = :confirmed_by, confirmed_at = :confirmed_at,
				completed_at = :completed_at, outcome = :outcome,
				follow_up_required = :follow_up_required, follow_up_date = :follow_up_date,
				special_requirements = :special_requirements,
				reminder_sent = :reminder_sent, reminder_date = :reminder_date,
				updated_at = :updated_at
			WHERE id = :id
		`
		result, err := tx.NamedExecContext(ctx, query, apt)
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
		return translateError("appointment update", err)
	}
	return nil
}

// appointmentRangeQuery expands the optional status exclusion into
// positional bindvars. The whole query is written with ? placeholders so
// sqlx.In can expand the slice; the caller rebinds for Postgres.
func appointmentRangeQuery(start, end time.Time, excludeStatuses []model.AppointmentStatus) (string, []interface{}, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE scheduled_at >= ? AND scheduled_at < ?
	`
	args := []interface{}{start, end}
	if len(excludeStatuses) > 0 {
		statuses := make([]string, len(excludeStatuses))
		for i, s := range excludeStatuses {
			statuses[i] = string(s)
		}
		query += ` AND status NOT IN (?)`
		args = append(args, statuses)
	}
	query += ` ORDER BY scheduled_at ASC`

	return sqlx.In(query, args...)
}

func (r *appointmentRepository) FindByDateRange(ctx context.Context, start, end time.Time, excludeStatuses []model.AppointmentStatus) ([]*model.Appointment, error) {
	query, args, err := appointmentRangeQuery(start, end, excludeStatuses)
	if err != nil {
		return nil, translateError("appointment range query", err)
	}

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, r.db.Rebind(query), args...); err != nil {
		return nil, translateError("appointment range query", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	add := func(clause string, value interface{}) {
		where += clause + argN(idx)
		args = append(args, value)
		idx++
	}

	if filters.CitizenID != uuid.Nil {
		add(` AND citizen_id = `, filters.CitizenID)
	}
	if filters.Status != "" {
		add(` AND status = `, filters.Status)
	}
	if filters.AppointmentType != "" {
		add(` AND appointment_type = `, filters.AppointmentType)
	}
	if !filters.StartDate.IsZero() {
		add(` AND scheduled_at >= `, filters.StartDate)
	}
	if !filters.EndDate.IsZero() {
		add(` AND scheduled_at < `, filters.EndDate)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM appointments`+where, args...); err != nil {
		return nil, 0, translateError("appointment list", err)
	}

	filters.Normalize()
	query := `SELECT ` + appointmentColumns + ` FROM appointments` + where +
		` ORDER BY scheduled_at DESC` +
		` LIMIT ` + argN(idx) + ` OFFSET ` + argN(idx+1)
	args = append(args, filters.PageSize, filters.Offset())

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, 0, translateError("appointment list", err)
	}
	return appointments, total, nil
}
