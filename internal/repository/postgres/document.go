package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/model"
)

const documentColumns = `
	id, document_number, citizen_id, application_id, document_type, title,
	description, file_name, original_file_name, file_path, file_size,
	mime_type, checksum, status, verification_date, verified_by,
	verification_notes, expiry_date, is_confidential, created_at, updated_at`

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	doc.ID = uuid.New()
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt

	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES (
			:id, :document_number, :citizen_id, :application_id, :document_type, :title,
			:description, :file_name, :original_file_name, :file_path, :file_size,
			:mime_type, :checksum, :status, :verification_date, :verified_by,
			:verification_notes, :expiry_date, :is_confidential, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return translateError("document create", err)
	}
	return nil
}

func (r *documentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`

	var doc model.Document
	err := r.db.GetContext(ctx, &doc, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, translateError("document get", err)
	}
	return &doc, nil
}

func (r *documentRepository) Update(ctx context.Context, doc *model.Document) error {
	doc.UpdatedAt = time.Now()

	query := `
		UPDATE documents
		SET title = :title, description = :description, status = :status,
			application_id = :application_id,
			verification_date = :verification_date, verified_by = :verified_by,
			verification_notes = :verification_notes, expiry_date = :expiry_date,
			is_confidential = :is_confidential, updated_at = :updated_at
		WHERE id = :id
	`
	result, err := r.db.NamedExecContext(ctx, query, doc)
	if err != nil {
		return translateError("document update", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return translateError("document update", err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *documentRepository) List(ctx context.Context, filters *model.DocumentFilters) ([]*model.Document, int64, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if filters.CitizenID != uuid.Nil {
		where += ` AND citizen_id = ` + argN(idx)
		args = append(args, filters.CitizenID)
		idx++
	}
	if filters.ApplicationID != uuid.Nil {
		where += ` AND application_id = ` + argN(idx)
		args = append(args, filters.ApplicationID)
		idx++
	}
	if filters.DocumentType != "" {
		where += ` AND document_type = ` + argN(idx)
		args = append(args, filters.DocumentType)
		idx++
	}
	if filters.Status != "" {
		where += ` AND status = ` + argN(idx)
		args = append(args, filters.Status)
		idx++
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM documents`+where, args...); err != nil {
		return nil, 0, translateError("document list", err)
	}

	filters.Normalize()
	query := `SELECT ` + documentColumns + ` FROM documents` + where +
		` ORDER BY created_at DESC` +
		` LIMIT ` + argN(idx) + ` OFFSET ` + argN(idx+1)
	args = append(args, filters.PageSize, filters.Offset())

	var docs []*model.Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, 0, translateError("document list", err)
	}
	return docs, total, nil
}
