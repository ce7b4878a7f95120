package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/model"
)

const notificationColumns = `
	id, user_id, title, message, category, priority, status, is_read,
	read_at, sent_at, related_entity_type, related_entity_id,
	created_at, updated_at`

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES (
			:id, :user_id, :title, :message, :category, :priority, :status, :is_read,
			:read_at, :sent_at, :related_entity_type, :related_entity_id,
			:created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return translateError("notification create", err)
	}
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	var n model.Notification
	err := r.db.GetContext(ctx, &n, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, translateError("notification get", err)
	}
	return &n, nil
}

func (r *notificationRepository) Update(ctx context.Context, n *model.Notification) error {
	n.UpdatedAt = time.Now()

	query := `
		UPDATE notifications
		SET status = :status, is_read = :is_read, read_at = :read_at,
			sent_at = :sent_at, updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, n)
	if err != nil {
		return translateError("notification update", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("notification update", err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_read = TRUE, read_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return translateError("notification mark read", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("notification mark read", err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) List(ctx context.Context, filters *model.NotificationFilters) ([]*model.Notification, int64, error) {
	where := ` WHERE user_id = $1`
	args := []interface{}{filters.UserID}
	idx := 2

	if filters.Category != "" {
		where += ` AND category = ` + argN(idx)
		args = append(args, filters.Category)
		idx++
	}
	if filters.IsRead != nil {
		where += ` AND is_read = ` + argN(idx)
		args = append(args, *filters.IsRead)
		idx++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications`+where, args...); err != nil {
		return nil, 0, translateError("notification list", err)
	}

	filters.Normalize()
	query := `SELECT ` + notificationColumns + ` FROM notifications` + where +
		` ORDER BY created_at DESC` +
		` LIMIT ` + argN(idx) + ` OFFSET ` + argN(idx+1)
	args = append(args, filters.PageSize, filters.Offset())

	var notifications []*model.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, 0, translateError("notification list", err)
	}
	return notifications, total, nil
}
