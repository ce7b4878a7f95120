package document

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embassygq/consular-api/internal/model"
	"github.com/embassygq/consular-api/pkg/refnum"
)

type memDocumentRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*model.Document
	numbers map[string]bool
}

func newMemDocumentRepo() *memDocumentRepo {
	return &memDocumentRepo{
		items:   make(map[uuid.UUID]*model.Document),
		numbers: make(map[string]bool),
	}
}

func (r *memDocumentRepo) Create(_ context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.numbers[doc.DocumentNumber] {
		return model.ErrDuplicateReference
	}
	doc.ID = uuid.New()
	r.numbers[doc.DocumentNumber] = true
	cp := *doc
	r.items[doc.ID] = &cp
	return nil
}

func (r *memDocumentRepo) Get(_ context.Context, id uuid.UUID) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.items[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (r *memDocumentRepo) Update(_ context.Context, doc *model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[doc.ID]; !ok {
		return model.ErrNotFound
	}
	cp := *doc
	r.items[doc.ID] = &cp
	return nil
}

func (r *memDocumentRepo) List(_ context.Context, filters *model.DocumentFilters) ([]*model.Document, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Document
	for _, doc := range r.items {
		if filters.CitizenID != uuid.Nil && doc.CitizenID != filters.CitizenID {
			continue
		}
		cp := *doc
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

type memBlobStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	removed []string
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{files: make(map[string][]byte)}
}

func (s *memBlobStore) Put(_ context.Context, name string, r io.Reader) (string, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", err
	}
	sum := sha256.Sum256(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
	return name, hex.EncodeToString(sum[:]), nil
}

func (s *memBlobStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return nil, model.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memBlobStore) Remove(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	s.removed = append(s.removed, path)
	return nil
}

var docTestClock = time.Date(2026, time.September, 15, 8, 0, 0, 0, time.UTC)

func newDocTestService() (*Service, *memDocumentRepo, *memBlobStore) {
	repo := newMemDocumentRepo()
	store := newMemBlobStore()
	refs := refnum.NewWithSource(func() time.Time { return docTestClock }, rand.NewSource(1))
	svc := NewService(repo, store, nil, refs)
	svc.now = func() time.Time { return docTestClock }
	return svc, repo, store
}

func staffActor() model.Actor {
	return model.Actor{ID: uuid.New(), Role: model.RoleStaff}
}

func citizenActor(citizenID uuid.UUID) model.Actor {
	return model.Actor{ID: uuid.New(), Role: model.RoleCitizen, CitizenID: citizenID}
}

func pdfUpload(content string) *Upload {
	return &Upload{
		FileName: "passport-scan.pdf",
		MimeType: "application/pdf",
		Size:     int64(len(content)),
		Content:  strings.NewReader(content),
	}
}

func uploadRequest() *model.UploadDocumentRequest {
	return &model.UploadDocumentRequest{
		DocumentType: model.DocumentTypePassport,
		Title:        "Passport scan",
	}
}

func TestUpload(t *testing.T) {
	svc, _, store := newDocTestService()
	citizenID := uuid.New()

	doc, err := svc.Upload(context.Background(), staffActor(), citizenID, pdfUpload("%PDF-1.4 fake"), uploadRequest())
	require.NoError(t, err)

	assert.Regexp(t, `^DOC-\d{6}-\d{4}$`, doc.DocumentNumber)
	assert.Equal(t, citizenID, doc.CitizenID)
	assert.Equal(t, model.DocumentStatusPending, doc.Status)
	assert.Equal(t, "passport-scan.pdf", doc.OriginalFileName)
	assert.NotEmpty(t, doc.Checksum)

	rc, err := store.Open(context.Background(), doc.FilePath)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 fake", string(data))
}

func TestUpload_CitizenUploadsForSelf(t *testing.T) {
	svc, _, _ := newDocTestService()
	ownID := uuid.New()

	doc, err := svc.Upload(context.Background(), citizenActor(ownID), uuid.New(), pdfUpload("scan"), uploadRequest())
	require.NoError(t, err)
	assert.Equal(t, ownID, doc.CitizenID)
}

func TestUpload_RejectsUnsupportedType(t *testing.T) {
	svc, _, _ := newDocTestService()

	up := pdfUpload("MZ binary")
	up.FileName = "malware.exe"
	up.MimeType = "application/octet-stream"

	_, err := svc.Upload(context.Background(), staffActor(), uuid.New(), up, uploadRequest())
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpload_RejectsOversizedFile(t *testing.T) {
	svc, _, _ := newDocTestService()

	up := pdfUpload("small content")
	up.Size = maxFileSize + 1

	_, err := svc.Upload(context.Background(), staffActor(), uuid.New(), up, uploadRequest())
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestUpload_CleansUpBlobOnCreateFailure(t *testing.T) {
	svc, repo, store := newDocTestService()
	citizenID := uuid.New()

	first, err := svc.Upload(context.Background(), staffActor(), citizenID, pdfUpload("one"), uploadRequest())
	require.NoError(t, err)

	// force every candidate number into collision
	repo.mu.Lock()
	for i := 0; i < 10000; i++ {
		repo.numbers[fmt.Sprintf("%s%04d", first.DocumentNumber[:11], i)] = true
	}
	repo.mu.Unlock()

	_, err = svc.Upload(context.Background(), staffActor(), citizenID, pdfUpload("two"), uploadRequest())
	require.Error(t, err)
	assert.NotEmpty(t, store.removed)
}

func TestGet_ConfidentialHiddenFromCitizens(t *testing.T) {
	svc, repo, _ := newDocTestService()
	citizenID := uuid.New()

	doc, err := svc.Upload(context.Background(), staffActor(), citizenID, pdfUpload("scan"), uploadRequest())
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	stored.IsConfidential = true
	require.NoError(t, repo.Update(context.Background(), stored))

	_, err = svc.Get(context.Background(), citizenActor(citizenID), doc.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.Get(context.Background(), staffActor(), doc.ID)
	assert.NoError(t, err)
}

func TestGet_CitizenCannotReadOthers(t *testing.T) {
	svc, _, _ := newDocTestService()

	doc, err := svc.Upload(context.Background(), staffActor(), uuid.New(), pdfUpload("scan"), uploadRequest())
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), citizenActor(uuid.New()), doc.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestVerify(t *testing.T) {
	svc, _, _ := newDocTestService()
	reviewer := staffActor()

	doc, err := svc.Upload(context.Background(), reviewer, uuid.New(), pdfUpload("scan"), uploadRequest())
	require.NoError(t, err)

	verified, err := svc.Verify(context.Background(), reviewer, doc.ID, &model.VerifyDocumentRequest{
		Status: model.DocumentStatusVerified,
	})
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusVerified, verified.Status)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, reviewer.ID, *verified.VerifiedBy)
	assert.NotNil(t, verified.VerificationDate)
}

func TestVerify_OnlyPending(t *testing.T) {
	svc, _, _ := newDocTestService()
	reviewer := staffActor()

	doc, err := svc.Upload(context.Background(), reviewer, uuid.New(), pdfUpload("scan"), uploadRequest())
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), reviewer, doc.ID, &model.VerifyDocumentRequest{
		Status: model.DocumentStatusRejected,
	})
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), reviewer, doc.ID, &model.VerifyDocumentRequest{
		Status: model.DocumentStatusVerified,
	})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestVerify_CitizenForbidden(t *testing.T) {
	svc, _, _ := newDocTestService()
	citizenID := uuid.New()

	doc, err := svc.Upload(context.Background(), staffActor(), citizenID, pdfUpload("scan"), uploadRequest())
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), citizenActor(citizenID), doc.ID, &model.VerifyDocumentRequest{
		Status: model.DocumentStatusVerified,
	})
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestList_CitizenScoped(t *testing.T) {
	svc, _, _ := newDocTestService()
	mine := uuid.New()

	_, err := svc.Upload(context.Background(), staffActor(), mine, pdfUpload("mine"), uploadRequest())
	require.NoError(t, err)
	_, err = svc.Upload(context.Background(), staffActor(), uuid.New(), pdfUpload("other"), uploadRequest())
	require.NoError(t, err)

	docs, total, err := svc.List(context.Background(), citizenActor(mine), nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, docs, 1)
	assert.Equal(t, mine, docs[0].CitizenID)
}

func TestAttachToApplication(t *testing.T) {
	svc, _, _ := newDocTestService()
	citizenID := uuid.New()
	applicationID := uuid.New()

	doc, err := svc.Upload(context.Background(), staffActor(), citizenID, pdfUpload("scan"), uploadRequest())
	require.NoError(t, err)

	attached, err := svc.AttachToApplication(context.Background(), citizenActor(citizenID), doc.ID, applicationID)
	require.NoError(t, err)
	require.NotNil(t, attached.ApplicationID)
	assert.Equal(t, applicationID, *attached.ApplicationID)
}
