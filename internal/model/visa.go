package model

import (
	"time"

	"github.com/google/uuid"
)

type VisaType string

const (
	VisaTypeTourist    VisaType = "tourist"
	VisaTypeBusiness   VisaType = "business"
	VisaTypeStudent    VisaType = "student"
	VisaTypeWork       VisaType = "work"
	VisaTypeFamily     VisaType = "family"
	VisaTypeTransit    VisaType = "transit"
	VisaTypeDiplomatic VisaType = "diplomatic"
)

func (t VisaType) Valid() bool {
	switch t {
	case VisaTypeTourist, VisaTypeBusiness, VisaTypeStudent, VisaTypeWork,
		VisaTypeFamily, VisaTypeTransit, VisaTypeDiplomatic:
		return true
	}
	return false
}

type VisaStatus string

const (
	VisaStatusPending     VisaStatus = "pending"
	VisaStatusUnderReview VisaStatus = "under_review"
	VisaStatusApproved    VisaStatus = "approved"
	VisaStatusRejected    VisaStatus = "rejected"
	VisaStatusCancelled   VisaStatus = "cancelled"
)

// Terminal reports whether the application can no longer change status.
func (s VisaStatus) Terminal() bool {
	switch s {
	case VisaStatusApproved, VisaStatusRejected, VisaStatusCancelled:
		return true
	}
	return false
}

type FinancialSupport string

const (
	FinancialSupportSelf         FinancialSupport = "self"
	FinancialSupportSponsor      FinancialSupport = "sponsor"
	FinancialSupportOrganization FinancialSupport = "organization"
	FinancialSupportOther        FinancialSupport = "other"
)

type VisaApplication struct {
	Base
	ApplicationNumber  string           `db:"application_number" json:"application_number"`
	CitizenID          uuid.UUID        `db:"citizen_id" json:"citizen_id"`
	VisaType           VisaType         `db:"visa_type" json:"visa_type"`
	PurposeOfVisit     string           `db:"purpose_of_visit" json:"purpose_of_visit"`
	IntendedEntryDate  time.Time        `db:"intended_entry_date" json:"intended_entry_date"`
	IntendedExitDate   time.Time        `db:"intended_exit_date" json:"intended_exit_date"`
	IntendedDuration   int              `db:"intended_duration" json:"intended_duration"`
	DestinationAddress string           `db:"destination_address" json:"destination_address"`
	DestinationCity    string           `db:"destination_city" json:"destination_city"`
	SponsorName        *string          `db:"sponsor_name" json:"sponsor_name,omitempty"`
	SponsorPhone       *string          `db:"sponsor_phone" json:"sponsor_phone,omitempty"`
	SponsorEmail       *string          `db:"sponsor_email" json:"sponsor_email,omitempty"`
	FinancialSupport   FinancialSupport `db:"financial_support" json:"financial_support"`
	Status             VisaStatus       `db:"status" json:"status"`
	FeeAmount          float64          `db:"fee_amount" json:"fee_amount"`
	FeePaid            bool             `db:"fee_paid" json:"fee_paid"`
	PaymentMethod      *string          `db:"payment_method" json:"payment_method,omitempty"`
	PaymentDate        *time.Time       `db:"payment_date" json:"payment_date,omitempty"`
	AssignedTo         *uuid.UUID       `db:"assigned_to" json:"assigned_to,omitempty"`
	ReviewDate         *time.Time       `db:"review_date" json:"review_date,omitempty"`
	DecisionDate       *time.Time       `db:"decision_date" json:"decision_date,omitempty"`
	DecisionNotes      *string          `db:"decision_notes" json:"decision_notes,omitempty"`
	VisaNumber         *string          `db:"visa_number" json:"visa_number,omitempty"`
	VisaIssueDate      *time.Time       `db:"visa_issue_date" json:"visa_issue_date,omitempty"`
	VisaExpiryDate     *time.Time       `db:"visa_expiry_date" json:"visa_expiry_date,omitempty"`
	EntriesPermitted   *int             `db:"entries_permitted" json:"entries_permitted,omitempty"`
	DurationOfStay     *int             `db:"duration_of_stay" json:"duration_of_stay,omitempty"`
	DocumentsSubmitted bool             `db:"documents_submitted" json:"documents_submitted"`
	DocumentsVerified  bool             `db:"documents_verified" json:"documents_verified"`
	InterviewRequired  bool             `db:"interview_required" json:"interview_required"`
	InterviewDate      *time.Time       `db:"interview_date" json:"interview_date,omitempty"`
	Notes              *string          `db:"notes" json:"notes,omitempty"`
}

type ApplyVisaRequest struct {
	VisaType           VisaType         `json:"visa_type" binding:"required"`
	PurposeOfVisit     string           `json:"purpose_of_visit" binding:"required"`
	IntendedEntryDate  time.Time        `json:"intended_entry_date" binding:"required"`
	IntendedExitDate   time.Time        `json:"intended_exit_date" binding:"required,gtfield=IntendedEntryDate"`
	IntendedDuration   int              `json:"intended_duration" binding:"required,min=1"`
	DestinationAddress string           `json:"destination_address" binding:"required"`
	DestinationCity    string           `json:"destination_city" binding:"required"`
	SponsorName        *string          `json:"sponsor_name"`
	SponsorPhone       *string          `json:"sponsor_phone"`
	SponsorEmail       *string          `json:"sponsor_email" binding:"omitempty,email"`
	FinancialSupport   FinancialSupport `json:"financial_support" binding:"required,oneof=self sponsor organization other"`
}

type PayVisaFeeRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required,oneof=cash card bank_transfer online"`
}

type UpdateVisaStatusRequest struct {
	Status        VisaStatus `json:"status" binding:"required,oneof=pending under_review approved rejected cancelled"`
	DecisionNotes *string    `json:"decision_notes"`
}

type VisaFilters struct {
	CitizenID uuid.UUID
	Status    VisaStatus
	VisaType  VisaType
	Pagination
}
