package appointment

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embassygq/consular-api/internal/model"
	"github.com/embassygq/consular-api/internal/repository"
	"github.com/embassygq/consular-api/pkg/logger"
	"github.com/embassygq/consular-api/pkg/refnum"
)

// memAppointmentRepo is an in-memory AppointmentRepository. A single
// mutex stands in for the per-day lock: the conflict check and the
// write are atomic with respect to each other, as in the real store.
type memAppointmentRepo struct {
	mu     sync.Mutex
	items  map[uuid.UUID]*model.Appointment
	events []*model.OutboxEvent

	// failCreates forces the next N creates to report a reference
	// number collision.
	failCreates int
}

func newMemRepo() *memAppointmentRepo {
	return &memAppointmentRepo{items: make(map[uuid.UUID]*model.Appointment)}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func (r *memAppointmentRepo) activeOnDay(day time.Time, exclude uuid.UUID) []*model.Appointment {
	var out []*model.Appointment
	for _, apt := range r.items {
		if apt.ID == exclude || !sameDay(apt.ScheduledAt, day) {
			continue
		}
		if apt.Active() {
			out = append(out, apt)
		}
	}
	return out
}

func (r *memAppointmentRepo) CreateInSlot(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent, precheck repository.ConflictCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := precheck(r.activeOnDay(apt.ScheduledAt, uuid.Nil)); err != nil {
		return err
	}
	if r.failCreates > 0 {
		r.failCreates--
		return model.ErrDuplicateReference
	}

	apt.ID = uuid.New()
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = apt.CreatedAt
	stored := *apt
	r.items[apt.ID] = &stored
	if evt != nil {
		r.events = append(r.events, evt)
	}
	return nil
}

func (r *memAppointmentRepo) RescheduleInSlot(ctx context.Context, apt *model.Appointment, precheck repository.ConflictCheck) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[apt.ID]; !ok {
		return model.ErrNotFound
	}
	if err := precheck(r.activeOnDay(apt.ScheduledAt, apt.ID)); err != nil {
		return err
	}
	stored := *apt
	r.items[apt.ID] = &stored
	return nil
}

func (r *memAppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	apt, ok := r.items[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := *apt
	return &out, nil
}

func (r *memAppointmentRepo) Update(ctx context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[apt.ID]; !ok {
		return model.ErrNotFound
	}
	stored := *apt
	r.items[apt.ID] = &stored
	return nil
}

func (r *memAppointmentRepo) UpdateWithEvent(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error {
	if err := r.Update(ctx, apt); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *memAppointmentRepo) FindByDateRange(ctx context.Context, start, end time.Time, excludeStatuses []model.AppointmentStatus) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	excluded := make(map[model.AppointmentStatus]bool, len(excludeStatuses))
	for _, s := range excludeStatuses {
		excluded[s] = true
	}

	var out []*model.Appointment
	for _, apt := range r.items {
		if apt.ScheduledAt.Before(start) || !apt.ScheduledAt.Before(end) {
			continue
		}
		if excluded[apt.Status] {
			continue
		}
		copied := *apt
		out = append(out, &copied)
	}
	return out, nil
}

func (r *memAppointmentRepo) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Appointment
	for _, apt := range r.items {
		if filters.CitizenID != uuid.Nil && apt.CitizenID != filters.CitizenID {
			continue
		}
		if filters.Status != "" && apt.Status != filters.Status {
			continue
		}
		copied := *apt
		out = append(out, &copied)
	}
	return out, int64(len(out)), nil
}

var testClock = time.Date(2026, 9, 15, 8, 0, 0, 0, time.UTC)

func newTestService(repo *memAppointmentRepo) *Service {
	gen := refnum.NewWithSource(func() time.Time { return testClock }, rand.NewSource(1))
	log := logger.New(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := NewService(repo, nil, gen, nil, log, Scheduling{})
	svc.now = func() time.Time { return testClock }
	return svc
}

func bookRequest(hour, min, duration int) *model.BookAppointmentRequest {
	return &model.BookAppointmentRequest{
		AppointmentType: model.AppointmentTypeConsultation,
		ScheduledDate:   day(hour, min),
		Duration:        duration,
	}
}

var staffActor = model.Actor{ID: uuid.New(), Role: model.RoleStaff}

func citizenActor() model.Actor {
	id := uuid.New()
	return model.Actor{ID: id, Role: model.RoleCitizen, CitizenID: uuid.New()}
}

func TestListAvailableSlots_EmptyDay(t *testing.T) {
	svc := newTestService(newMemRepo())

	slots, err := svc.ListAvailableSlots(context.Background(), day(0, 0), 30)
	require.NoError(t, err)
	require.Len(t, slots, 16)
	assert.Equal(t, day(9, 0), slots[0].Start)
	assert.Equal(t, day(16, 30), slots[len(slots)-1].Start)
}

func TestListAvailableSlots_BookedSlotExcluded(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 0, 30))
	require.NoError(t, err)

	slots, err := svc.ListAvailableSlots(ctx, day(0, 0), 30)
	require.NoError(t, err)
	assert.Len(t, slots, 15)
	for _, s := range slots {
		assert.NotEqual(t, day(10, 0), s.Start)
	}
}

func TestListAvailableSlots_CancelledAppointmentFreesSlot(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	apt, err := svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 0, 30))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, staffActor, apt.ID, "citizen request")
	require.NoError(t, err)

	slots, err := svc.ListAvailableSlots(ctx, day(0, 0), 30)
	require.NoError(t, err)
	assert.Len(t, slots, 16)
}

func TestListAvailableSlots_PastSlotsOmitted(t *testing.T) {
	svc := newTestService(newMemRepo())
	svc.now = func() time.Time { return day(12, 0) }

	slots, err := svc.ListAvailableSlots(context.Background(), day(0, 0), 30)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.Equal(t, day(12, 30), slots[0].Start)
}

func TestListAvailableSlots_InvalidDuration(t *testing.T) {
	svc := newTestService(newMemRepo())

	_, err := svc.ListAvailableSlots(context.Background(), day(0, 0), 10)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestBook_Success(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)

	citizenID := uuid.New()
	apt, err := svc.Book(context.Background(), staffActor, citizenID, bookRequest(10, 0, 30))
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
	assert.Equal(t, citizenID, apt.CitizenID)
	assert.Equal(t, model.AppointmentPriorityNormal, apt.Priority)
	assert.Regexp(t, `^APT-\d{6}-\d{4}$`, apt.AppointmentNumber)
	assert.Equal(t, day(10, 30), apt.EndTime())

	stored, err := repo.Get(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, apt.AppointmentNumber, stored.AppointmentNumber)

	require.Len(t, repo.events, 1)
	assert.Equal(t, model.EventAppointmentBooked, repo.events[0].EventType)
}

func TestBook_DefaultDuration(t *testing.T) {
	svc := newTestService(newMemRepo())

	apt, err := svc.Book(context.Background(), staffActor, uuid.New(), bookRequest(10, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, 30, apt.DurationMinutes)
}

func TestBook_ConflictRejected(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	_, err := svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 0, 30))
	require.NoError(t, err)

	_, err = svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 0, 30))
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	// partial overlap is still a conflict
	_, err = svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 15, 30))
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)
}

func TestBook_TouchingIntervalsAllowed(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	_, err := svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 0, 30))
	require.NoError(t, err)

	_, err = svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 30, 30))
	assert.NoError(t, err)

	_, err = svc.Book(ctx, staffActor, uuid.New(), bookRequest(9, 30, 30))
	assert.NoError(t, err)
}

func TestBook_ValidationFailures(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	tests := []struct {
		name string
		req  *model.BookAppointmentRequest
	}{
		{"in the past", bookRequest(7, 0, 30)},
		{"before opening", bookRequest(8, 30, 30)},
		{"crosses closing time", bookRequest(16, 45, 30)},
		{"too short", bookRequest(10, 0, 10)},
		{"too long", bookRequest(10, 0, 200)},
		{"unknown type", &model.BookAppointmentRequest{
			AppointmentType: "walk_in",
			ScheduledDate:   day(10, 0),
			Duration:        30,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Book(ctx, staffActor, uuid.New(), tt.req)
			var verr *model.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestBook_AppointmentEndingAtCloseAllowed(t *testing.T) {
	svc := newTestService(newMemRepo())

	apt, err := svc.Book(context.Background(), staffActor, uuid.New(), bookRequest(16, 30, 30))
	require.NoError(t, err)
	assert.Equal(t, day(17, 0), apt.EndTime())
}

func TestBook_ReferenceCollisionRetried(t *testing.T) {
	repo := newMemRepo()
	repo.failCreates = 2
	svc := newTestService(repo)

	apt, err := svc.Book(context.Background(), staffActor, uuid.New(), bookRequest(10, 0, 30))
	require.NoError(t, err)
	assert.NotEmpty(t, apt.AppointmentNumber)
}

func TestBook_ReferenceCollisionExhausted(t *testing.T) {
	repo := newMemRepo()
	repo.failCreates = 5
	svc := newTestService(repo)

	_, err := svc.Book(context.Background(), staffActor, uuid.New(), bookRequest(10, 0, 30))
	assert.ErrorIs(t, err, model.ErrDuplicateReference)
}

func TestBook_CitizenAlwaysBooksForSelf(t *testing.T) {
	svc := newTestService(newMemRepo())
	actor := citizenActor()

	apt, err := svc.Book(context.Background(), actor, uuid.New(), bookRequest(10, 0, 30))
	require.NoError(t, err)
	assert.Equal(t, actor.CitizenID, apt.CitizenID)
}

func TestGet_CitizenCannotReadOthers(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	apt, err := svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 0, 30))
	require.NoError(t, err)

	_, err = svc.Get(ctx, citizenActor(), apt.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(newMemRepo())
	_, err := svc.Get(context.Background(), staffActor, uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestList_CitizenScopedToOwnRecords(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()
	actor := citizenActor()

	_, err := svc.Book(ctx, actor, uuid.Nil, bookRequest(10, 0, 30))
	require.NoError(t, err)
	_, err = svc.Book(ctx, staffActor, uuid.New(), bookRequest(11, 0, 30))
	require.NoError(t, err)

	appointments, total, err := svc.List(ctx, actor, &model.AppointmentFilters{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, appointments, 1)
	assert.Equal(t, actor.CitizenID, appointments[0].CitizenID)
}

func TestConfirm(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	apt, err := svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 0, 30))
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, staffActor, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedBy)
	assert.Equal(t, staffActor.ID, *confirmed.ConfirmedBy)
	assert.NotNil(t, confirmed.ConfirmedAt)

	// booked + confirmed
	assert.Len(t, repo.events, 2)
	assert.Equal(t, model.EventAppointmentConfirmed, repo.events[1].EventType)
}

func TestConfirm_CitizenForbidden(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()
	actor := citizenActor()

	apt, err := svc.Book(ctx, actor, uuid.Nil, bookRequest(10, 0, 30))
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, actor, apt.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestComplete(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	apt, err := svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 0, 30))
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, staffActor, apt.ID)
	require.NoError(t, err)

	done, err := svc.Complete(ctx, staffActor, apt.ID, &model.CompleteAppointmentRequest{
		Outcome: "visa interview passed",
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, done.Status)
	require.NotNil(t, done.Outcome)
	assert.Equal(t, "visa interview passed", *done.Outcome)
	assert.NotNil(t, done.CompletedAt)
}

func TestCancel_CompletedAppointmentFails(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	apt, err := svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 0, 30))
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, staffActor, apt.ID)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, staffActor, apt.ID, &model.CompleteAppointmentRequest{Outcome: "done"})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, staffActor, apt.ID, "changed my mind")
	var terr *model.InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, model.AppointmentStatusCompleted, terr.Status)

	// record must be untouched
	stored, err := svc.Get(ctx, staffActor, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, stored.Status)
	assert.Nil(t, stored.CancellationReason)
}

func TestCancel_ReleasedSlotCanBeRebooked(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	apt, err := svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 0, 30))
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, staffActor, apt.ID, "")
	require.NoError(t, err)

	_, err = svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 0, 30))
	assert.NoError(t, err)
}

func TestStateMachine(t *testing.T) {
	type op struct {
		name string
		run  func(svc *Service, id uuid.UUID) error
	}
	confirm := op{"confirm", func(svc *Service, id uuid.UUID) error {
		_, err := svc.Confirm(context.Background(), staffActor, id)
		return err
	}}
	start := op{"start", func(svc *Service, id uuid.UUID) error {
		_, err := svc.Start(context.Background(), staffActor, id)
		return err
	}}
	complete := op{"complete", func(svc *Service, id uuid.UUID) error {
		_, err := svc.Complete(context.Background(), staffActor, id, &model.CompleteAppointmentRequest{Outcome: "ok"})
		return err
	}}
	cancel := op{"cancel", func(svc *Service, id uuid.UUID) error {
		_, err := svc.Cancel(context.Background(), staffActor, id, "reason")
		return err
	}}
	noShow := op{"mark_no_show", func(svc *Service, id uuid.UUID) error {
		_, err := svc.MarkNoShow(context.Background(), staffActor, id)
		return err
	}}

	legal := map[model.AppointmentStatus]map[string]bool{
		model.AppointmentStatusScheduled:  {"confirm": true, "cancel": true},
		model.AppointmentStatusConfirmed:  {"start": true, "complete": true, "cancel": true, "mark_no_show": true},
		model.AppointmentStatusInProgress: {"complete": true, "cancel": true},
		model.AppointmentStatusCompleted:  {},
		model.AppointmentStatusCancelled:  {},
		model.AppointmentStatusNoShow:     {},
	}

	for from, allowed := range legal {
		for _, o := range []op{confirm, start, complete, cancel, noShow} {
			t.Run(string(from)+"/"+o.name, func(t *testing.T) {
				repo := newMemRepo()
				svc := newTestService(repo)
				apt, err := svc.Book(context.Background(), staffActor, uuid.New(), bookRequest(10, 0, 30))
				require.NoError(t, err)

				apt.Status = from
				require.NoError(t, repo.Update(context.Background(), apt))

				err = o.run(svc, apt.ID)
				if allowed[o.name] {
					assert.NoError(t, err)
				} else {
					var terr *model.InvalidTransitionError
					assert.ErrorAs(t, err, &terr)
				}
			})
		}
	}
}

func TestUpdate_OnlyScheduledCanChange(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	apt, err := svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 0, 30))
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, staffActor, apt.ID)
	require.NoError(t, err)

	notes := "bring originals"
	_, err = svc.Update(ctx, staffActor, apt.ID, &model.UpdateAppointmentRequest{Notes: &notes})
	var terr *model.InvalidTransitionError
	assert.ErrorAs(t, err, &terr)
}

func TestUpdate_RescheduleChecksConflicts(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	_, err := svc.Book(ctx, staffActor, uuid.New(), bookRequest(11, 0, 30))
	require.NoError(t, err)
	apt, err := svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 0, 30))
	require.NoError(t, err)

	target := day(11, 0)
	_, err = svc.Update(ctx, staffActor, apt.ID, &model.UpdateAppointmentRequest{ScheduledDate: &target})
	assert.ErrorIs(t, err, model.ErrSlotUnavailable)

	free := day(12, 0)
	updated, err := svc.Update(ctx, staffActor, apt.ID, &model.UpdateAppointmentRequest{ScheduledDate: &free})
	require.NoError(t, err)
	assert.Equal(t, free, updated.ScheduledAt)
}

func TestBook_ConcurrentSameSlotSingleWinner(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Book(ctx, staffActor, uuid.New(), bookRequest(10, 0, 30))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var won, conflicted int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, model.ErrSlotUnavailable):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, attempts-1, conflicted)
}
