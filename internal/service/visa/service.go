package visa

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
	"github.com/embassygq/consular-api/pkg/refnum"
)

const maxReferenceAttempts = 3

// feeSchedule maps visa types to the application fee in USD.
var feeSchedule = map[model.VisaType]float64{
	model.VisaTypeTourist:    60,
	model.VisaTypeBusiness:   100,
	model.VisaTypeStudent:    80,
	model.VisaTypeWork:       150,
	model.VisaTypeFamily:     60,
	model.VisaTypeTransit:    30,
	model.VisaTypeDiplomatic: 0,
}

// interviewRequired lists the visa types that always need an in-person
// interview.
var interviewRequired = map[model.VisaType]bool{
	model.VisaTypeWork:    true,
	model.VisaTypeStudent: true,
}

type Service struct {
	repo    repository.VisaRepository
	auditor *audit.Service
	refs    refnum.Generator
	now     func() time.Time
}

func NewService(repo repository.VisaRepository, auditor *audit.Service, refs refnum.Generator) *Service {
	return &Service{repo: repo, auditor: auditor, refs: refs, now: time.Now}
}

// Apply files a new visa application for the citizen.
func (s *Service) Apply(ctx context.Context, actor model.Actor, citizenID uuid.UUID, req *model.ApplyVisaRequest) (*model.VisaApplication, error) {
	if actor.Role == model.RoleCitizen {
		citizenID = actor.CitizenID
	}
	if citizenID == uuid.Nil {
		verr := &model.ValidationError{}
		verr.Add("citizen_id", "is required")
		return nil, verr
	}
	if err := validateApplication(req); err != nil {
		return nil, err
	}

	app := &model.VisaApplication{
		CitizenID:          citizenID,
		VisaType:           req.VisaType,
		PurposeOfVisit:     req.PurposeOfVisit,
		IntendedEntryDate:  req.IntendedEntryDate,
		IntendedExitDate:   req.IntendedExitDate,
		IntendedDuration:   req.IntendedDuration,
		DestinationAddress: req.DestinationAddress,
		DestinationCity:    req.DestinationCity,
		SponsorName:        req.SponsorName,
		SponsorPhone:       req.SponsorPhone,
		SponsorEmail:       req.SponsorEmail,
		FinancialSupport:   req.FinancialSupport,
		Status:             model.VisaStatusPending,
		FeeAmount:          feeSchedule[req.VisaType],
		InterviewRequired:  interviewRequired[req.VisaType],
	}

	var err error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		app.ApplicationNumber = s.refs.Next(refnum.PrefixVisa)
		err = s.repo.Create(ctx, app)
		if !errors.Is(err, model.ErrDuplicateReference) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to file application: %w", err)
	}

	s.auditor.Log(ctx, actor, model.AuditActionCreate, model.AuditEntityVisa, app.ID, &audit.LogOptions{Changes: app})
	return app, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.VisaApplication, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleCitizen && app.CitizenID != actor.CitizenID {
		return nil, model.ErrForbidden
	}
	return app, nil
}

func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.VisaFilters) ([]*model.VisaApplication, int64, error) {
	if filters == nil {
		filters = &model.VisaFilters{}
	}
	if actor.Role == model.RoleCitizen {
		filters.CitizenID = actor.CitizenID
	}
	return s.repo.List(ctx, filters)
}

// PayFee records payment of the application fee.
func (s *Service) PayFee(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.PayVisaFeeRequest) (*model.VisaApplication, error) {
	app, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if app.Status.Terminal() {
		verr := &model.ValidationError{}
		verr.Add("status", "application is closed")
		return nil, verr
	}
	if app.FeePaid {
		verr := &model.ValidationError{}
		verr.Add("fee", "is already paid")
		return nil, verr
	}

	now := s.now()
	app.FeePaid = true
	app.PaymentMethod = &req.PaymentMethod
	app.PaymentDate = &now
	if err := s.repo.Update(ctx, app); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor, model.AuditActionUpdate, model.AuditEntityVisa, app.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"fee_paid": true, "payment_method": req.PaymentMethod},
	})
	return app, nil
}

// legalStatusChange defines the review workflow: applications move
// forward from pending to under_review to a decision, and can be
// cancelled at any point before a decision.
func legalStatusChange(from, to model.VisaStatus) bool {
	if from.Terminal() {
		return false
	}
	switch to {
	case model.VisaStatusUnderReview:
		return from == model.VisaStatusPending
	case model.VisaStatusApproved, model.VisaStatusRejected:
		return from == model.VisaStatusUnderReview
	case model.VisaStatusCancelled:
		return true
	}
	return false
}

// UpdateStatus moves an application through the review workflow. Only
// staff may decide; citizens may only cancel their own application.
func (s *Service) UpdateStatus(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateVisaStatusRequest) (*model.VisaApplication, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role == model.RoleCitizen {
		if app.CitizenID != actor.CitizenID || req.Status != model.VisaStatusCancelled {
			return nil, model.ErrForbidden
		}
	} else if !actor.Role.IsStaff() {
		return nil, model.ErrForbidden
	}

	if !legalStatusChange(app.Status, req.Status) {
		verr := &model.ValidationError{}
		verr.Add("status", fmt.Sprintf("cannot move from %s to %s", app.Status, req.Status))
		return nil, verr
	}

	now := s.now()
	app.Status = req.Status
	app.DecisionNotes = req.DecisionNotes

	switch req.Status {
	case model.VisaStatusUnderReview:
		if !app.FeePaid {
			verr := &model.ValidationError{}
			verr.Add("fee", "must be paid before review")
			return nil, verr
		}
		app.ReviewDate = &now
		app.AssignedTo = &actor.ID
	case model.VisaStatusApproved:
		app.DecisionDate = &now
		s.stampVisa(app, now)
	case model.VisaStatusRejected:
		app.DecisionDate = &now
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"application_id":     app.ID,
		"application_number": app.ApplicationNumber,
		"citizen_id":         app.CitizenID,
		"status":             app.Status,
	})
	evt := &model.OutboxEvent{EventType: model.EventVisaStatusChanged, Payload: payload}
	if err := s.repo.UpdateWithEvent(ctx, app, evt); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor, model.AuditActionStatus, model.AuditEntityVisa, app.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"status": app.Status},
	})
	return app, nil
}

// stampVisa fills in the issued visa details on approval.
func (s *Service) stampVisa(app *model.VisaApplication, now time.Time) {
	number := s.refs.Next("EGV")
	expiry := now.AddDate(0, 6, 0)
	entries := 1
	stay := app.IntendedDuration

	app.VisaNumber = &number
	app.VisaIssueDate = &now
	app.VisaExpiryDate = &expiry
	app.EntriesPermitted = &entries
	app.DurationOfStay = &stay
}

func validateApplication(req *model.ApplyVisaRequest) error {
	verr := &model.ValidationError{}
	if !req.VisaType.Valid() {
		verr.Add("visa_type", "unknown visa type")
	}
	if !req.IntendedExitDate.After(req.IntendedEntryDate) {
		verr.Add("intended_exit_date", "must be after the entry date")
	}
	if req.IntendedDuration < 1 {
		verr.Add("intended_duration", "must be at least one day")
	}
	if req.FinancialSupport == model.FinancialSupportSponsor && req.SponsorName == nil {
		verr.Add("sponsor_name", "is required for sponsored applications")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}
