package model

import (
	"time"

	"github.com/google/uuid"
)

type Department string

const (
	DepartmentConsular       Department = "consular"
	DepartmentAdministrative Department = "administrative"
	DepartmentPolitical      Department = "political"
	DepartmentEconomic       Department = "economic"
	DepartmentCultural       Department = "cultural"
	DepartmentSecurity       Department = "security"
	DepartmentTechnical      Department = "technical"
	DepartmentOther          Department = "other"
)

type EmploymentType string

const (
	EmploymentFullTime  EmploymentType = "full_time"
	EmploymentPartTime  EmploymentType = "part_time"
	EmploymentContract  EmploymentType = "contract"
	EmploymentTemporary EmploymentType = "temporary"
	EmploymentIntern    EmploymentType = "intern"
)

type Staff struct {
	Base
	EmployeeID       string         `db:"employee_id" json:"employee_id"`
	UserID           *uuid.UUID     `db:"user_id" json:"user_id,omitempty"`
	FirstName        string         `db:"first_name" json:"first_name"`
	LastName         string         `db:"last_name" json:"last_name"`
	Email            string         `db:"email" json:"email"`
	Phone            string         `db:"phone" json:"phone"`
	DateOfBirth      time.Time      `db:"date_of_birth" json:"date_of_birth"`
	Nationality      string         `db:"nationality" json:"nationality"`
	Position         string         `db:"position" json:"position"`
	Department       Department     `db:"department" json:"department"`
	JobTitle         string         `db:"job_title" json:"job_title"`
	EmploymentType   EmploymentType `db:"employment_type" json:"employment_type"`
	HireDate         time.Time      `db:"hire_date" json:"hire_date"`
	ContractEndDate  *time.Time     `db:"contract_end_date" json:"contract_end_date,omitempty"`
	SupervisorID     *uuid.UUID     `db:"supervisor_id" json:"supervisor_id,omitempty"`
	OfficeLocation   *string        `db:"office_location" json:"office_location,omitempty"`
	OfficePhone      *string        `db:"office_phone" json:"office_phone,omitempty"`
	IsActive         bool           `db:"is_active" json:"is_active"`
	IsOnLeave        bool           `db:"is_on_leave" json:"is_on_leave"`
	LeaveStartDate   *time.Time     `db:"leave_start_date" json:"leave_start_date,omitempty"`
	LeaveEndDate     *time.Time     `db:"leave_end_date" json:"leave_end_date,omitempty"`
	LeaveType        *string        `db:"leave_type" json:"leave_type,omitempty"`
	EmergencyContact *string        `db:"emergency_contact" json:"emergency_contact,omitempty"`
	EmergencyPhone   *string        `db:"emergency_phone" json:"emergency_phone,omitempty"`
}

type RegisterStaffRequest struct {
	FirstName      string         `json:"first_name" binding:"required,min=2,max=50"`
	LastName       string         `json:"last_name" binding:"required,min=2,max=50"`
	Email          string         `json:"email" binding:"required,email"`
	Phone          string         `json:"phone" binding:"required,min=10,max=15"`
	DateOfBirth    time.Time      `json:"date_of_birth" binding:"required"`
	Nationality    string         `json:"nationality" binding:"required"`
	Position       string         `json:"position" binding:"required"`
	Department     Department     `json:"department" binding:"required,oneof=consular administrative political economic cultural security technical other"`
	JobTitle       string         `json:"job_title" binding:"required"`
	EmploymentType EmploymentType `json:"employment_type" binding:"required,oneof=full_time part_time contract temporary intern"`
	HireDate       time.Time      `json:"hire_date" binding:"required"`
}

type UpdateStaffLeaveRequest struct {
	IsOnLeave      bool       `json:"is_on_leave"`
	LeaveStartDate *time.Time `json:"leave_start_date"`
	LeaveEndDate   *time.Time `json:"leave_end_date"`
	LeaveType      *string    `json:"leave_type" binding:"omitempty,oneof=annual sick maternity paternity unpaid other"`
}

type StaffFilters struct {
	Department     Department
	EmploymentType EmploymentType
	IsActive       *bool
	IsOnLeave      *bool
	Pagination
}
