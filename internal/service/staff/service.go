package staff

import (
	"context"
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

type Service struct {
	repo    repository.StaffRepository
	auditor *audit.Service
	refs    refnum.Generator
	now     func() time.Time
}

func NewService(repo repository.StaffRepository, auditor *audit.Service, refs refnum.Generator) *Service {
	return &Service{repo: repo, auditor: auditor, refs: refs, now: time.Now}
}

// Register creates a staff record with a generated employee ID. Admin
// only.
func (s *Service) Register(ctx context.Context, actor model.Actor, req *model.RegisterStaffRequest) (*model.Staff, error) {
	if actor.Role != model.RoleAdmin {
		return nil, model.ErrForbidden
	}

	member := &model.Staff{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		DateOfBirth:    req.DateOfBirth,
		Nationality:    req.Nationality,
		Position:       req.Position,
		Department:     req.Department,
		JobTitle:       req.JobTitle,
		EmploymentType: req.EmploymentType,
		HireDate:       req.HireDate,
		IsActive:       true,
	}

	var err error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		member.EmployeeID = s.refs.NextAnnual(refnum.PrefixEmployee)
		err = s.repo.Create(ctx, member)
		if !errors.Is(err, model.ErrDuplicateReference) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to register staff member: %w", err)
	}

	s.auditor.Log(ctx, actor, model.AuditActionCreate, model.AuditEntityStaff, member.ID, &audit.LogOptions{Changes: member})
	return member, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Staff, error) {
	if !actor.Role.IsStaff() {
		return nil, model.ErrForbidden
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.StaffFilters) ([]*model.Staff, int64, error) {
	if !actor.Role.IsStaff() {
		return nil, 0, model.ErrForbidden
	}
	if filters == nil {
		filters = &model.StaffFilters{}
	}
	return s.repo.List(ctx, filters)
}

// SetLeave records a leave period. Staff on leave are not assignable
// to appointments.
func (s *Service) SetLeave(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateStaffLeaveRequest) (*model.Staff, error) {
	if !actor.Role.IsStaff() {
		return nil, model.ErrForbidden
	}

	member, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.IsOnLeave {
		verr := &model.ValidationError{}
		if req.LeaveStartDate == nil || req.LeaveEndDate == nil {
			verr.Add("leave_dates", "start and end dates are required")
		} else if !req.LeaveEndDate.After(*req.LeaveStartDate) {
			verr.Add("leave_end_date", "must be after the start date")
		}
		if verr.HasErrors() {
			return nil, verr
		}
	}

	member.IsOnLeave = req.IsOnLeave
	member.LeaveStartDate = req.LeaveStartDate
	member.LeaveEndDate = req.LeaveEndDate
	member.LeaveType = req.LeaveType
	if !req.IsOnLeave {
		member.LeaveStartDate = nil
		member.LeaveEndDate = nil
		member.LeaveType = nil
	}

	if err := s.repo.Update(ctx, member); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor, model.AuditActionUpdate, model.AuditEntityStaff, member.ID, &audit.LogOptions{Changes: req})
	return member, nil
}

// Deactivate marks a staff member inactive. Admin only.
func (s *Service) Deactivate(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Staff, error) {
	if actor.Role != model.RoleAdmin {
		return nil, model.ErrForbidden
	}

	member, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	member.IsActive = false
	if err := s.repo.Update(ctx, member); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor, model.AuditActionUpdate, model.AuditEntityStaff, member.ID, &audit.LogOptions{
		Metadata: map[string]interface{}{"is_active": false},
	})
	return member, nil
}
