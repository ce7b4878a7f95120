package visa

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embassygq/consular-api/internal/model"
	"github.com/embassygq/consular-api/pkg/refnum"
)

type memVisaRepo struct {
	mu     sync.Mutex
	items  map[uuid.UUID]*model.VisaApplication
	events []*model.OutboxEvent
}

func newMemRepo() *memVisaRepo {
	return &memVisaRepo{items: make(map[uuid.UUID]*model.VisaApplication)}
}

func (r *memVisaRepo) Create(ctx context.Context, app *model.VisaApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	app.ID = uuid.New()
	stored := *app
	r.items[app.ID] = &stored
	return nil
}

func (r *memVisaRepo) Get(ctx context.Context, id uuid.UUID) (*model.VisaApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.items[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := *app
	return &out, nil
}

func (r *memVisaRepo) GetByApplicationNumber(ctx context.Context, number string) (*model.VisaApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.items {
		if app.ApplicationNumber == number {
			out := *app
			return &out, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *memVisaRepo) Update(ctx context.Context, app *model.VisaApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[app.ID]; !ok {
		return model.ErrNotFound
	}
	stored := *app
	r.items[app.ID] = &stored
	return nil
}

func (r *memVisaRepo) UpdateWithEvent(ctx context.Context, app *model.VisaApplication, evt *model.OutboxEvent) error {
	if err := r.Update(ctx, app); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *memVisaRepo) List(ctx context.Context, filters *model.VisaFilters) ([]*model.VisaApplication, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.VisaApplication
	for _, app := range r.items {
		if filters.CitizenID != uuid.Nil && app.CitizenID != filters.CitizenID {
			continue
		}
		if filters.Status != "" && app.Status != filters.Status {
			continue
		}
		copied := *app
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

var (
	testClock  = time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)
	staffActor = model.Actor{ID: uuid.New(), Role: model.RoleStaff}
)

func newTestService(repo *memVisaRepo) *Service {
	gen := refnum.NewWithSource(func() time.Time { return testClock }, rand.NewSource(1))
	svc := NewService(repo, nil, gen)
	svc.now = func() time.Time { return testClock }
	return svc
}

func applyRequest(visaType model.VisaType) *model.ApplyVisaRequest {
	return &model.ApplyVisaRequest{
		VisaType:           visaType,
		PurposeOfVisit:     "business meetings",
		IntendedEntryDate:  testClock.AddDate(0, 1, 0),
		IntendedExitDate:   testClock.AddDate(0, 1, 14),
		IntendedDuration:   14,
		DestinationAddress: "Calle de Kenia 12",
		DestinationCity:    "Malabo",
		FinancialSupport:   model.FinancialSupportSelf,
	}
}

func citizenActor() model.Actor {
	return model.Actor{ID: uuid.New(), Role: model.RoleCitizen, CitizenID: uuid.New()}
}

func TestApply(t *testing.T) {
	svc := newTestService(newMemRepo())
	actor := citizenActor()

	app, err := svc.Apply(context.Background(), actor, uuid.Nil, applyRequest(model.VisaTypeBusiness))
	require.NoError(t, err)

	assert.Equal(t, actor.CitizenID, app.CitizenID)
	assert.Equal(t, model.VisaStatusPending, app.Status)
	assert.Regexp(t, `^VISA-\d{6}-\d{4}$`, app.ApplicationNumber)
	assert.Equal(t, 100.0, app.FeeAmount)
	assert.False(t, app.FeePaid)
	assert.False(t, app.InterviewRequired)
}

func TestApply_WorkVisaRequiresInterview(t *testing.T) {
	svc := newTestService(newMemRepo())

	app, err := svc.Apply(context.Background(), citizenActor(), uuid.Nil, applyRequest(model.VisaTypeWork))
	require.NoError(t, err)
	assert.True(t, app.InterviewRequired)
	assert.Equal(t, 150.0, app.FeeAmount)
}

func TestApply_Validation(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	req := applyRequest(model.VisaTypeTourist)
	req.IntendedExitDate = req.IntendedEntryDate
	_, err := svc.Apply(ctx, citizenActor(), uuid.Nil, req)
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)

	req = applyRequest(model.VisaTypeTourist)
	req.FinancialSupport = model.FinancialSupportSponsor
	_, err = svc.Apply(ctx, citizenActor(), uuid.Nil, req)
	assert.ErrorAs(t, err, &verr)
}

func TestPayFee(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()
	actor := citizenActor()

	app, err := svc.Apply(ctx, actor, uuid.Nil, applyRequest(model.VisaTypeTourist))
	require.NoError(t, err)

	paid, err := svc.PayFee(ctx, actor, app.ID, &model.PayVisaFeeRequest{PaymentMethod: "card"})
	require.NoError(t, err)
	assert.True(t, paid.FeePaid)
	require.NotNil(t, paid.PaymentDate)

	_, err = svc.PayFee(ctx, actor, app.ID, &model.PayVisaFeeRequest{PaymentMethod: "card"})
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateStatus_ReviewWorkflow(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	actor := citizenActor()

	app, err := svc.Apply(ctx, actor, uuid.Nil, applyRequest(model.VisaTypeTourist))
	require.NoError(t, err)

	// review requires a paid fee
	_, err = svc.UpdateStatus(ctx, staffActor, app.ID, &model.UpdateVisaStatusRequest{Status: model.VisaStatusUnderReview})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.PayFee(ctx, actor, app.ID, &model.PayVisaFeeRequest{PaymentMethod: "cash"})
	require.NoError(t, err)

	reviewed, err := svc.UpdateStatus(ctx, staffActor, app.ID, &model.UpdateVisaStatusRequest{Status: model.VisaStatusUnderReview})
	require.NoError(t, err)
	assert.Equal(t, model.VisaStatusUnderReview, reviewed.Status)
	require.NotNil(t, reviewed.AssignedTo)
	assert.Equal(t, staffActor.ID, *reviewed.AssignedTo)

	approved, err := svc.UpdateStatus(ctx, staffActor, app.ID, &model.UpdateVisaStatusRequest{Status: model.VisaStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, model.VisaStatusApproved, approved.Status)
	require.NotNil(t, approved.VisaNumber)
	assert.NotNil(t, approved.VisaIssueDate)
	assert.NotNil(t, approved.VisaExpiryDate)
	assert.NotNil(t, approved.DecisionDate)

	// an outbox event per status change
	assert.Len(t, repo.events, 2)

	// terminal: nothing moves an approved application
	_, err = svc.UpdateStatus(ctx, staffActor, app.ID, &model.UpdateVisaStatusRequest{Status: model.VisaStatusCancelled})
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateStatus_IllegalJumps(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	app, err := svc.Apply(ctx, citizenActor(), uuid.Nil, applyRequest(model.VisaTypeTourist))
	require.NoError(t, err)

	// approval straight from pending is not allowed
	_, err = svc.UpdateStatus(ctx, staffActor, app.ID, &model.UpdateVisaStatusRequest{Status: model.VisaStatusApproved})
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateStatus_CitizenMayOnlyCancelOwn(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()
	actor := citizenActor()

	app, err := svc.Apply(ctx, actor, uuid.Nil, applyRequest(model.VisaTypeTourist))
	require.NoError(t, err)

	// approval attempt by the applicant
	_, err = svc.UpdateStatus(ctx, actor, app.ID, &model.UpdateVisaStatusRequest{Status: model.VisaStatusApproved})
	assert.ErrorIs(t, err, model.ErrForbidden)

	// cancellation by someone else's account
	_, err = svc.UpdateStatus(ctx, citizenActor(), app.ID, &model.UpdateVisaStatusRequest{Status: model.VisaStatusCancelled})
	assert.ErrorIs(t, err, model.ErrForbidden)

	cancelled, err := svc.UpdateStatus(ctx, actor, app.ID, &model.UpdateVisaStatusRequest{Status: model.VisaStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, model.VisaStatusCancelled, cancelled.Status)
}

func TestList_CitizenScoped(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()
	actor := citizenActor()

	_, err := svc.Apply(ctx, actor, uuid.Nil, applyRequest(model.VisaTypeTourist))
	require.NoError(t, err)
	_, err = svc.Apply(ctx, citizenActor(), uuid.Nil, applyRequest(model.VisaTypeTourist))
	require.NoError(t, err)

	apps, total, err := svc.List(ctx, actor, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, apps, 1)
	assert.Equal(t, actor.CitizenID, apps[0].CitizenID)
}
