package citizen

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/model"
	"github.com/embassygq/consular-api/internal/repository"
	"github.com/embassygq/consular-api/internal/service/audit"
)

type Service struct {
	repo    repository.CitizenRepository
	auditor *audit.Service
}

func NewService(repo repository.CitizenRepository, auditor *audit.Service) *Service {
	return &Service{repo: repo, auditor: auditor}
}

// Register creates a citizen record. National IDs are unique; a second
// registration with the same ID is rejected.
func (s *Service) Register(ctx context.Context, actor model.Actor, req *model.RegisterCitizenRequest) (*model.Citizen, error) {
	if _, err := s.repo.GetByNationalID(ctx, req.NationalID); err == nil {
		verr := &model.ValidationError{}
		verr.Add("national_id", "is already registered")
		return nil, verr
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("failed to check national id: %w", err)
	}

	nationality := req.Nationality
	if nationality == "" {
		nationality = "Equatorial Guinea"
	}

	citizen := &model.Citizen{
		NationalID:    req.NationalID,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		MiddleName:    req.MiddleName,
		DateOfBirth:   req.DateOfBirth,
		PlaceOfBirth:  req.PlaceOfBirth,
		Gender:        req.Gender,
		MaritalStatus: req.MaritalStatus,
		Nationality:   nationality,
		Address:       req.Address,
		City:          req.City,
		Province:      req.Province,
		PostalCode:    req.PostalCode,
		Phone:         req.Phone,
		Email:         req.Email,
		IsActive:      true,
	}
	if err := s.repo.Create(ctx, citizen); err != nil {
		return nil, fmt.Errorf("failed to register citizen: %w", err)
	}

	s.auditor.Log(ctx, actor, model.AuditActionCreate, model.AuditEntityCitizen, citizen.ID, &audit.LogOptions{Changes: citizen})
	return citizen, nil
}

// Get returns the record. Citizens may only read their own.
func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Citizen, error) {
	if actor.Role == model.RoleCitizen && actor.CitizenID != id {
		return nil, model.ErrForbidden
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateCitizenRequest) (*model.Citizen, error) {
	if actor.Role == model.RoleCitizen && actor.CitizenID != id {
		return nil, model.ErrForbidden
	}

	citizen, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Address != nil {
		citizen.Address = *req.Address
	}
	if req.City != nil {
		citizen.City = *req.City
	}
	if req.Province != nil {
		citizen.Province = *req.Province
	}
	if req.PostalCode != nil {
		citizen.PostalCode = req.PostalCode
	}
	if req.Phone != nil {
		citizen.Phone = *req.Phone
	}
	if req.Email != nil {
		citizen.Email = req.Email
	}
	if req.EmergencyContact != nil {
		citizen.EmergencyContact = req.EmergencyContact
	}
	if req.EmergencyPhone != nil {
		citizen.EmergencyPhone = req.EmergencyPhone
	}
	if req.Occupation != nil {
		citizen.Occupation = req.Occupation
	}
	if req.Employer != nil {
		citizen.Employer = req.Employer
	}
	if req.MaritalStatus != nil {
		citizen.MaritalStatus = *req.MaritalStatus
	}

	if err := s.repo.Update(ctx, citizen); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor, model.AuditActionUpdate, model.AuditEntityCitizen, citizen.ID, &audit.LogOptions{Changes: req})
	return citizen, nil
}

// List is a staff operation.
func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.CitizenFilters) ([]*model.Citizen, int64, error) {
	if !actor.Role.IsStaff() {
		return nil, 0, model.ErrForbidden
	}
	if filters == nil {
		filters = &model.CitizenFilters{}
	}
	return s.repo.List(ctx, filters)
}
