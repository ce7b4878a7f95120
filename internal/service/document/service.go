package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/model"
	"github.com/embassygq/consular-api/internal/repository"
	"github.com/embassygq/consular-api/internal/service/audit"
	"github.com/embassygq/consular-api/pkg/blob"
	"github.com/embassygq/consular-api/pkg/refnum"
)

const (
	maxReferenceAttempts = 3
	maxFileSize          = 20 << 20 // 20 MiB
)

var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// Upload carries the file metadata a handler extracts from a multipart
// request.
type Upload struct {
	FileName string
	MimeType string
	Size     int64
	Content  io.Reader
}

type Service struct {
	repo    repository.DocumentRepository
	store   blob.Store
	auditor *audit.Service
	refs    refnum.Generator
	now     func() time.Time
}

func NewService(repo repository.DocumentRepository, store blob.Store, auditor *audit.Service, refs refnum.Generator) *Service {
	return &Service{repo: repo, store: store, auditor: auditor, refs: refs, now: time.Now}
}

// Upload stores the file and its metadata record.
func (s *Service) Upload(ctx context.Context, actor model.Actor, citizenID uuid.UUID, up *Upload, req *model.UploadDocumentRequest) (*model.Document, error) {
	if actor.Role == model.RoleCitizen {
		citizenID = actor.CitizenID
	}
	if err := validateUpload(citizenID, up); err != nil {
		return nil, err
	}

	number := s.refs.Next(refnum.PrefixDocument)
	stored := number + filepath.Ext(up.FileName)
	path, checksum, err := s.store.Put(ctx, stored, io.LimitReader(up.Content, maxFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &model.Document{
		DocumentNumber:   number,
		CitizenID:        citizenID,
		DocumentType:     req.DocumentType,
		Title:            req.Title,
		Description:      req.Description,
		FileName:         stored,
		OriginalFileName: up.FileName,
		FilePath:         path,
		FileSize:         up.Size,
		MimeType:         up.MimeType,
		Checksum:         checksum,
		Status:           model.DocumentStatusPending,
		ExpiryDate:       req.ExpiryDate,
	}

	for attempt := 0; ; attempt++ {
		err = s.repo.Create(ctx, doc)
		if !errors.Is(err, model.ErrDuplicateReference) || attempt >= maxReferenceAttempts-1 {
			break
		}
		doc.DocumentNumber = s.refs.Next(refnum.PrefixDocument)
	}
	if err != nil {
		s.store.Remove(ctx, path)
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	s.auditor.Log(ctx, actor, model.AuditActionCreate, model.AuditEntityDocument, doc.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"document_number": doc.DocumentNumber, "checksum": checksum},
	})
	return doc, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleCitizen {
		if doc.CitizenID != actor.CitizenID || doc.IsConfidential {
			return nil, model.ErrForbidden
		}
	}
	return doc, nil
}

// Download opens the stored bytes for streaming to the client.
func (s *Service) Download(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, doc.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return doc, rc, nil
}

func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.DocumentFilters) ([]*model.Document, int64, error) {
	if filters == nil {
		filters = &model.DocumentFilters{}
	}
	if actor.Role == model.RoleCitizen {
		filters.CitizenID = actor.CitizenID
	}
	return s.repo.List(ctx, filters)
}

// Verify records a staff decision on a pending document.
func (s *Service) Verify(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.VerifyDocumentRequest) (*model.Document, error) {
	if !actor.Role.IsStaff() {
		return nil, model.ErrForbidden
	}

	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.DocumentStatusPending {
		verr := &model.ValidationError{}
		verr.Add("status", fmt.Sprintf("document is already %s", doc.Status))
		return nil, verr
	}

	now := s.now()
	doc.Status = req.Status
	doc.VerificationDate = &now
	doc.VerifiedBy = &actor.ID
	doc.VerificationNotes = req.Notes
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor, model.AuditActionVerify, model.AuditEntityDocument, doc.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"status": doc.Status},
	})
	return doc, nil
}

// AttachToApplication links a document to a visa application.
func (s *Service) AttachToApplication(ctx context.Context, actor model.Actor, id, applicationID uuid.UUID) (*model.Document, error) {
	doc, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	doc.ApplicationID = &applicationID
	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func validateUpload(citizenID uuid.UUID, up *Upload) error {
	verr := &model.ValidationError{}
	if citizenID == uuid.Nil {
		verr.Add("citizen_id", "is required")
	}
	if up == nil || up.Content == nil || up.FileName == "" {
		verr.Add("file", "is required")
		return verr
	}
	if up.Size > maxFileSize {
		verr.Add("file", "exceeds the 20MB size limit")
	}
	if !allowedMimeTypes[up.MimeType] {
		verr.Add("file", "must be a PDF, JPEG or PNG")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
