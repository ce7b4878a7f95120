package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/model"
	"github.com/embassygq/consular-api/internal/repository"
	"github.com/embassygq/consular-api/internal/service/audit"
	"github.com/embassygq/consular-api/pkg/logger"
	"github.com/embassygq/consular-api/pkg/metrics"
	"github.com/embassygq/consular-api/pkg/refnum"
)

// maxReferenceAttempts bounds retries when a generated appointment
// number collides with an existing one.
const maxReferenceAttempts = 3

// Scheduling holds the office calendar parameters.
type Scheduling struct {
	OpenHour               int
	CloseHour              int
	DefaultDurationMinutes int
}

func (c Scheduling) withDefaults() Scheduling {
	if c.OpenHour == 0 && c.CloseHour == 0 {
		c.OpenHour, c.CloseHour = 9, 17
	}
	if c.DefaultDurationMinutes == 0 {
		c.DefaultDurationMinutes = 30
	}
	return c
}

// officeHours returns the open and close instants for the day that
// contains t, in t's location.
func (c Scheduling) officeHours(t time.Time) (time.Time, time.Time) {
	open := time.Date(t.Year(), t.Month(), t.Day(), c.OpenHour, 0, 0, 0, t.Location())
	close := time.Date(t.Year(), t.Month(), t.Day(), c.CloseHour, 0, 0, 0, t.Location())
	return open, close
}

type Service struct {
	repo    repository.AppointmentRepository
	auditor *audit.Service
	refs    refnum.Generator
	metrics *metrics.Metrics
	logger  *logger.Logger
	sched   Scheduling
	now     func() time.Time
}

func NewService(repo repository.AppointmentRepository, auditor *audit.Service, refs refnum.Generator, m *metrics.Metrics, log *logger.Logger, sched Scheduling) *Service {
	return &Service{
		repo:    repo,
		auditor: auditor,
		refs:    refs,
		metrics: m,
		logger:  log,
		sched:   sched.withDefaults(),
		now:     time.Now,
	}
}

// blockedStatuses are excluded when loading a day's appointments for
// availability: these records no longer hold their interval.
var blockedStatuses = []model.AppointmentStatus{
	model.AppointmentStatusCancelled,
	model.AppointmentStatusNoShow,
}

// ListAvailableSlots computes the bookable intervals for one calendar
// day. Slots already begun relative to the current time are omitted.
func (s *Service) ListAvailableSlots(ctx context.Context, date time.Time, durationMinutes int) ([]model.TimeSlot, error) {
	if durationMinutes == 0 {
		durationMinutes = s.sched.DefaultDurationMinutes
	}
	if err := validateDuration(durationMinutes); err != nil {
		return nil, err
	}

	open, close := s.sched.officeHours(date)
	existing, err := s.repo.FindByDateRange(ctx, open, close, blockedStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	duration := time.Duration(durationMinutes) * time.Minute
	available := filterAvailableSlots(generateTimeSlots(open, close, duration), existing)

	now := s.now()
	upcoming := make([]model.TimeSlot, 0, len(available))
	for _, slot := range available {
		if slot.Start.After(now) {
			upcoming = append(upcoming, slot)
		}
	}

	if s.metrics != nil {
		s.metrics.SlotQueriesTotal.Inc()
	}
	return upcoming, nil
}

// Book places a new appointment for the citizen. The conflict check
// and the insert run atomically under a per-day lock, so two requests
// for the same slot cannot both succeed.
func (s *Service) Book(ctx context.Context, actor model.Actor, citizenID uuid.UUID, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	if !allow(actor, actionBook, nil) {
		return nil, model.ErrForbidden
	}
	if actor.Role == model.RoleCitizen {
		citizenID = actor.CitizenID
	}
	if citizenID == uuid.Nil {
		verr := &model.ValidationError{}
		verr.Add("citizen_id", "is required")
		return nil, verr
	}

	if req.Duration == 0 {
		req.Duration = s.sched.DefaultDurationMinutes
	}
	if req.Priority == "" {
		req.Priority = model.AppointmentPriorityNormal
	}
	if err := s.validateBooking(req); err != nil {
		return nil, err
	}

	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.BookingLatency.Observe(time.Since(start).Seconds())
		}
	}()

	apt := &model.Appointment{
		CitizenID:           citizenID,
		AppointmentType:     req.AppointmentType,
		ScheduledAt:         req.ScheduledDate,
		DurationMinutes:     req.Duration,
		Status:              model.AppointmentStatusScheduled,
		Priority:            req.Priority,
		Notes:               req.Notes,
		SpecialRequirements: req.SpecialRequirements,
		InterpreterRequired: req.InterpreterRequired,
		InterpreterLanguage: req.InterpreterLanguage,
		AccessibilityNeeds:  req.AccessibilityNeeds,
	}

	precheck := func(existing []*model.Appointment) error {
		if conflictsWith(apt.StartTime(), apt.EndTime(), existing) {
			return model.ErrSlotUnavailable
		}
		return nil
	}

	var err error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		apt.AppointmentNumber = s.refs.Next(refnum.PrefixAppointment)
		err = s.repo.CreateInSlot(ctx, apt, bookedEvent(apt), precheck)
		if !errors.Is(err, model.ErrDuplicateReference) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, model.ErrSlotUnavailable) {
			if s.metrics != nil {
				s.metrics.BookingConflicts.Inc()
			}
			return nil, model.ErrSlotUnavailable
		}
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}

	if s.metrics != nil {
		s.metrics.BookingsTotal.Inc()
	}
	s.logger.Info("appointment booked",
		"appointment_id", apt.ID.String(),
		"appointment_number", apt.AppointmentNumber,
		"scheduled_at", apt.ScheduledAt,
	)
	s.audit(ctx, actor, model.AuditActionCreate, apt.ID, apt)

	return apt, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !allow(actor, actionView, apt) {
		return nil, model.ErrForbidden
	}
	return apt, nil
}

// List returns appointments matching the filters. Citizen actors only
// ever see their own records regardless of the filter they send.
func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.AppointmentFilters) ([]*model.Appointment, int64, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}
	if actor.Role == model.RoleCitizen {
		filters.CitizenID = actor.CitizenID
	}
	return s.repo.List(ctx, filters)
}

// Update changes the reschedulable fields of an appointment that is
// still in the scheduled state. A changed time goes back through the
// day-locked conflict check.
func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !allow(actor, actionUpdate, apt) {
		return nil, model.ErrForbidden
	}
	if apt.Status != model.AppointmentStatusScheduled {
		return nil, &model.InvalidTransitionError{Status: apt.Status, Action: string(actionUpdate)}
	}

	if req.Notes != nil {
		apt.Notes = req.Notes
	}
	if req.SpecialRequirements != nil {
		apt.SpecialRequirements = req.SpecialRequirements
	}

	if req.ScheduledDate != nil && !req.ScheduledDate.Equal(apt.ScheduledAt) {
		apt.ScheduledAt = *req.ScheduledDate
		if err := s.validateSchedule(apt.ScheduledAt, apt.DurationMinutes); err != nil {
			return nil, err
		}
		precheck := func(existing []*model.Appointment) error {
			if conflictsWith(apt.StartTime(), apt.EndTime(), existing) {
				return model.ErrSlotUnavailable
			}
			return nil
		}
		if err := s.repo.RescheduleInSlot(ctx, apt, precheck); err != nil {
			if errors.Is(err, model.ErrSlotUnavailable) && s.metrics != nil {
				s.metrics.BookingConflicts.Inc()
			}
			return nil, err
		}
	} else {
		if err := s.repo.Update(ctx, apt); err != nil {
			return nil, err
		}
	}

	s.audit(ctx, actor, model.AuditActionUpdate, apt.ID, req)
	return apt, nil
}

// Confirm moves a scheduled appointment to confirmed and records the
// confirming staff member.
func (s *Service) Confirm(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, actionConfirm, func(apt *model.Appointment) (string, error) {
		if apt.Status != model.AppointmentStatusScheduled {
			return "", &model.InvalidTransitionError{Status: apt.Status, Action: string(actionConfirm)}
		}
		now := s.now()
		apt.Status = model.AppointmentStatusConfirmed
		apt.ConfirmedBy = &actor.ID
		apt.ConfirmedAt = &now
		return model.EventAppointmentConfirmed, nil
	})
}

// Start marks a confirmed appointment as in progress when the citizen
// is called in.
func (s *Service) Start(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, actionStart, func(apt *model.Appointment) (string, error) {
		if apt.Status != model.AppointmentStatusConfirmed {
			return "", &model.InvalidTransitionError{Status: apt.Status, Action: string(actionStart)}
		}
		apt.Status = model.AppointmentStatusInProgress
		return "", nil
	})
}

// Complete closes out an appointment with its outcome.
func (s *Service) Complete(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.CompleteAppointmentRequest) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, actionComplete, func(apt *model.Appointment) (string, error) {
		if apt.Status != model.AppointmentStatusConfirmed && apt.Status != model.AppointmentStatusInProgress {
			return "", &model.InvalidTransitionError{Status: apt.Status, Action: string(actionComplete)}
		}
		now := s.now()
		apt.Status = model.AppointmentStatusCompleted
		apt.CompletedAt = &now
		apt.Outcome = &req.Outcome
		apt.FollowUpRequired = req.FollowUpRequired
		apt.FollowUpDate = req.FollowUpDate
		return model.EventAppointmentCompleted, nil
	})
}

// Cancel releases the slot. Legal from any state that is not terminal.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id uuid.UUID, reason string) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, actionCancel, func(apt *model.Appointment) (string, error) {
		if apt.Status.Terminal() {
			return "", &model.InvalidTransitionError{Status: apt.Status, Action: string(actionCancel)}
		}
		apt.Status = model.AppointmentStatusCancelled
		if reason != "" {
			apt.CancellationReason = &reason
		}
		return model.EventAppointmentCancelled, nil
	})
}

// MarkNoShow records that the citizen did not appear. Only a confirmed
// appointment can be a no-show; an unconfirmed one is cancelled instead.
func (s *Service) MarkNoShow(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, actor, id, actionNoShow, func(apt *model.Appointment) (string, error) {
		if apt.Status != model.AppointmentStatusConfirmed {
			return "", &model.InvalidTransitionError{Status: apt.Status, Action: string(actionNoShow)}
		}
		apt.Status = model.AppointmentStatusNoShow
		return "", nil
	})
}

// transition loads the appointment, checks authorization, applies the
// mutation and persists it, writing an outbox event when the mutation
// names one. The record is never touched when any step fails.
func (s *Service) transition(ctx context.Context, actor model.Actor, id uuid.UUID, act action, mutate func(*model.Appointment) (string, error)) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !allow(actor, act, apt) {
		return nil, model.ErrForbidden
	}

	eventType, err := mutate(apt)
	if err != nil {
		return nil, err
	}

	if eventType != "" {
		err = s.repo.UpdateWithEvent(ctx, apt, statusEvent(eventType, apt))
	} else {
		err = s.repo.Update(ctx, apt)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment transition",
		"appointment_id", apt.ID.String(),
		"action", string(act),
		"status", string(apt.Status),
	)
	s.audit(ctx, actor, string(act), apt.ID, map[string]interface{}{"status": apt.Status})

	return apt, nil
}

func (s *Service) validateBooking(req *model.BookAppointmentRequest) error {
	verr := &model.ValidationError{}
	if !req.AppointmentType.Valid() {
		verr.Add("appointment_type", "unknown appointment type")
	}
	if !req.Priority.Valid() {
		verr.Add("priority", "unknown priority")
	}
	if req.InterpreterRequired && req.InterpreterLanguage == nil {
		verr.Add("interpreter_language", "is required when an interpreter is requested")
	}
	if verr.HasErrors() {
		return verr
	}
	return s.validateSchedule(req.ScheduledDate, req.Duration)
}

func validateDuration(minutes int) error {
	if minutes < model.MinAppointmentDuration || minutes > model.MaxAppointmentDuration {
		verr := &model.ValidationError{}
		verr.Add("duration", fmt.Sprintf("must be between %d and %d minutes",
			model.MinAppointmentDuration, model.MaxAppointmentDuration))
		return verr
	}
	return nil
}

// validateSchedule checks the requested interval against the office
// calendar and the clock.
func (s *Service) validateSchedule(start time.Time, durationMinutes int) error {
	if err := validateDuration(durationMinutes); err != nil {
		return err
	}

	verr := &model.ValidationError{}
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	open, close := s.sched.officeHours(start)

	if start.Before(s.now()) {
		verr.Add("scheduled_date", "cannot be in the past")
	}
	if start.Before(open) || end.After(close) {
		verr.Add("scheduled_date", fmt.Sprintf("must fall within office hours (%02d:00 to %02d:00)",
			s.sched.OpenHour, s.sched.CloseHour))
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func (s *Service) audit(ctx context.Context, actor model.Actor, action string, id uuid.UUID, changes interface{}) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Log(ctx, actor, action, model.AuditEntityAppointment, id, &audit.LogOptions{Changes: changes}); err != nil {
		s.logger.Error(err, "audit log write failed",
			"appointment_id", id.String(),
			"action", action,
		)
	}
}

func bookedEvent(apt *model.Appointment) *model.OutboxEvent {
	return statusEvent(model.EventAppointmentBooked, apt)
}

func statusEvent(eventType string, apt *model.Appointment) *model.OutboxEvent {
	payload, _ := json.Marshal(map[string]interface{}{
		"appointment_id":     apt.ID,
		"appointment_number": apt.AppointmentNumber,
		"citizen_id":         apt.CitizenID,
		"appointment_type":   apt.AppointmentType,
		"scheduled_at":       apt.ScheduledAt,
		"status":             apt.Status,
	})
	return &model.OutboxEvent{EventType: eventType, Payload: payload}
}
