package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/model"
)

const auditColumns = `
	id, actor_id, actor_role, action, entity_type, entity_id, changes,
	metadata, ip_address, created_at`

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	log.ID = uuid.New()
	log.CreatedAt = time.Now()

	query := `
		INSERT INTO audit_logs (` + auditColumns + `)
		VALUES (
			:id, :actor_id, :actor_role, :action, :entity_type, :entity_id,
			:changes, :metadata, :ip_address, :created_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return translateError("audit create", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filters.ActorID != uuid.Nil {
		where += ` AND actor_id = ` + argN(idx)
		args = append(args, filters.ActorID)
		idx++
	}
	if filters.EntityType != "" {
		where += ` AND entity_type = ` + argN(idx)
		args = append(args, filters.EntityType)
		idx++
	}
	if filters.EntityID != uuid.Nil {
		where += ` AND entity_id = ` + argN(idx)
		args = append(args, filters.EntityID)
		idx++
	}
	if filters.Action != "" {
		where += ` AND action = ` + argN(idx)
		args = append(args, filters.Action)
		idx++
	}
	if !filters.StartDate.IsZero() {
		where += ` AND created_at >= ` + argN(idx)
		args = append(args, filters.StartDate)
		idx++
	}
	if !filters.EndDate.IsZero() {
		where += ` AND created_at < ` + argN(idx)
		args = append(args, filters.EndDate)
		idx++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM audit_logs`+where, args...); err != nil {
		return nil, 0, translateError("audit list", err)
	}

	filters.Normalize()
	query := `SELECT ` + auditColumns + ` FROM audit_logs` + where +
		` ORDER BY created_at DESC` +
		` LIMIT ` + argN(idx) + ` OFFSET ` + argN(idx+1)
	args = append(args, filters.PageSize, filters.Offset())

	var logs []*model.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, 0, translateError("audit list", err)
	}
	return logs, total, nil
}
