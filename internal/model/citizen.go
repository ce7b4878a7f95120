package model

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

type MaritalStatus string

const (
	MaritalStatusSingle   MaritalStatus = "single"
	MaritalStatusMarried  MaritalStatus = "married"
	MaritalStatusDivorced MaritalStatus = "divorced"
	MaritalStatusWidowed  MaritalStatus = "widowed"
)

type Citizen struct {
	Base
	NationalID         string        `db:"national_id" json:"national_id"`
	FirstName          string        `db:"first_name" json:"first_name"`
	LastName           string        `db:"last_name" json:"last_name"`
	MiddleName         *string       `db:"middle_name" json:"middle_name,omitempty"`
	DateOfBirth        time.Time     `db:"date_of_birth" json:"date_of_birth"`
	PlaceOfBirth       string        `db:"place_of_birth" json:"place_of_birth"`
	Gender             Gender        `db:"gender" json:"gender"`
	MaritalStatus      MaritalStatus `db:"marital_status" json:"marital_status"`
	Nationality        string        `db:"nationality" json:"nationality"`
	PassportNumber     *string       `db:"passport_number" json:"passport_number,omitempty"`
	PassportIssueDate  *time.Time    `db:"passport_issue_date" json:"passport_issue_date,omitempty"`
	PassportExpiryDate *time.Time    `db:"passport_expiry_date" json:"passport_expiry_date,omitempty"`
	Address            string        `db:"address" json:"address"`
	City               string        `db:"city" json:"city"`
	Province           string        `db:"province" json:"province"`
	PostalCode         *string       `db:"postal_code" json:"postal_code,omitempty"`
	Phone              string        `db:"phone" json:"phone"`
	Email              *string       `db:"email" json:"email,omitempty"`
	EmergencyContact   *string       `db:"emergency_contact" json:"emergency_contact,omitempty"`
	EmergencyPhone     *string       `db:"emergency_phone" json:"emergency_phone,omitempty"`
	Occupation         *string       `db:"occupation" json:"occupation,omitempty"`
	Employer           *string       `db:"employer" json:"employer,omitempty"`
	IsActive           bool          `db:"is_active" json:"is_active"`
}

type RegisterCitizenRequest struct {
	NationalID    string        `json:"national_id" binding:"required,natid"`
	FirstName     string        `json:"first_name" binding:"required,min=2,max=50"`
	LastName      string        `json:"last_name" binding:"required,min=2,max=50"`
	MiddleName    *string       `json:"middle_name" binding:"omitempty,max=50"`
	DateOfBirth   time.Time     `json:"date_of_birth" binding:"required"`
	PlaceOfBirth  string        `json:"place_of_birth" binding:"required"`
	Gender        Gender        `json:"gender" binding:"required,oneof=male female other"`
	MaritalStatus MaritalStatus `json:"marital_status" binding:"required,oneof=single married divorced widowed"`
	Nationality   string        `json:"nationality"`
	Address       string        `json:"address" binding:"required"`
	City          string        `json:"city" binding:"required"`
	Province      string        `json:"province" binding:"required"`
	PostalCode    *string       `json:"postal_code"`
	Phone         string        `json:"phone" binding:"required,min=10,max=15"`
	Email         *string       `json:"email" binding:"omitempty,email"`
}

type UpdateCitizenRequest struct {
	Address          *string `json:"address"`
	City             *string `json:"city"`
	Province         *string `json:"province"`
	PostalCode       *string `json:"postal_code"`
	Phone            *string `json:"phone" binding:"omitempty,min=10,max=15"`
	Email            *string `json:"email" binding:"omitempty,email"`
	EmergencyContact *string `json:"emergency_contact"`
	EmergencyPhone   *string `json:"emergency_phone"`
	Occupation       *string `json:"occupation"`
	Employer         *string `json:"employer"`
	MaritalStatus    *MaritalStatus `json:"marital_status" binding:"omitempty,oneof=single married divorced widowed"`
}

type CitizenFilters struct {
	SearchTerm string
	City       string
	IsActive   *bool
	Pagination
}
