package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/embassygq/consular-api/internal/model"
)

// insertOutboxEventTx writes an outbox event inside an already open
// transaction so the event commits or rolls back with the state change
// it describes.
func insertOutboxEventTx(ctx context.Context, tx *sqlx.Tx, evt *model.OutboxEvent) error {
	evt.ID = uuid.New()
	evt.Status = model.OutboxStatusPending
	evt.CreatedAt = time.Now()
	evt.UpdatedAt = evt.CreatedAt

	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, 0, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		evt.ID,
		evt.EventType,
		evt.Payload,
		evt.Status,
		evt.CreatedAt,
		evt.UpdatedAt,
	)
	return err
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return insertOutboxEventTx(ctx, tx, event)
	})
	if err != nil {
		return translateError("outbox create", err)
	}
	return nil
}

// outboxClaimWindow defers redelivery of a claimed event so another
// worker cannot pick it up while this one is still publishing.
const outboxClaimWindow = 2 * time.Minute

func (r *outboxRepository) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	// The subquery locks the due rows (SKIP LOCKED keeps concurrent
	// workers off them) and the update stamps the claim before the
	// statement commits, so a claim is never handed out twice.
	query := `
		UPDATE outbox_events
		SET retry_count = retry_count + 1,
			retry_at = NOW() + $1 * INTERVAL '1 second',
			updated_at = NOW()
		WHERE id IN (
			SELECT id
			FROM outbox_events
			WHERE status = $2
			AND (retry_at IS NULL OR retry_at <= NOW())
			ORDER BY created_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, event_type, payload, status, error_message, retry_count,
				  retry_at, created_at, processed_at, updated_at
	`
	var events []*model.OutboxEvent
	if err := r.db.SelectContext(ctx, &events, query, outboxClaimWindow.Seconds(), model.OutboxStatusPending, limit); err != nil {
		return nil, translateError("outbox claim", err)
	}
	return events, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	query := `
		UPDATE outbox_events
		SET status = $1,
			error_message = $2,
			processed_at = CASE WHEN $1 = 'PROCESSED' THEN NOW() ELSE processed_at END,
			updated_at = NOW()
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, status, errMsg, id)
	if err != nil {
		return translateError("outbox status update", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("outbox status update", err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = $1 AND processed_at < $2
	`
	result, err := r.db.ExecContext(ctx, query, model.OutboxStatusProcessed, before)
	if err != nil {
		return 0, translateError("outbox cleanup", err)
	}
	return result.RowsAffected()
}
