package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// Terminal reports whether no further transition is permitted from s.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

type AppointmentType string

const (
	AppointmentTypeVisaInterview      AppointmentType = "visa_interview"
	AppointmentTypeDocumentSubmission AppointmentType = "document_submission"
	AppointmentTypePassportCollection AppointmentType = "passport_collection"
	AppointmentTypeConsultation       AppointmentType = "consultation"
	AppointmentTypeEmergency          AppointmentType = "emergency"
	AppointmentTypeOther              AppointmentType = "other"
)

func (t AppointmentType) Valid() bool {
	switch t {
	case AppointmentTypeVisaInterview, AppointmentTypeDocumentSubmission,
		AppointmentTypePassportCollection, AppointmentTypeConsultation,
		AppointmentTypeEmergency, AppointmentTypeOther:
		return true
	}
	return false
}

type AppointmentPriority string

const (
	AppointmentPriorityLow    AppointmentPriority = "low"
	AppointmentPriorityNormal AppointmentPriority = "normal"
	AppointmentPriorityHigh   AppointmentPriority = "high"
	AppointmentPriorityUrgent AppointmentPriority = "urgent"
)

func (p AppointmentPriority) Valid() bool {
	switch p {
	case AppointmentPriorityLow, AppointmentPriorityNormal,
		AppointmentPriorityHigh, AppointmentPriorityUrgent:
		return true
	}
	return false
}

// Duration bounds in minutes for a single appointment.
const (
	MinAppointmentDuration = 15
	MaxAppointmentDuration = 180
)

type Appointment struct {
	Base
	AppointmentNumber   string              `db:"appointment_number" json:"appointment_number"`
	CitizenID           uuid.UUID           `db:"citizen_id" json:"citizen_id"`
	StaffID             *uuid.UUID          `db:"staff_id" json:"staff_id,omitempty"`
	AppointmentType     AppointmentType     `db:"appointment_type" json:"appointment_type"`
	ScheduledAt         time.Time           `db:"scheduled_at" json:"scheduled_at"`
	DurationMinutes     int                 `db:"duration_minutes" json:"duration_minutes"`
	Status              AppointmentStatus   `db:"status" json:"status"`
	Priority            AppointmentPriority `db:"priority" json:"priority"`
	Notes               *string             `db:"notes" json:"notes,omitempty"`
	CancellationReason  *string             `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	ConfirmedBy         *uuid.UUID          `db:"confirmed_by" json:"confirmed_by,omitempty"`
	ConfirmedAt         *time.Time          `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CompletedAt         *time.Time          `db:"completed_at" json:"completed_at,omitempty"`
	Outcome             *string             `db:"outcome" json:"outcome,omitempty"`
	FollowUpRequired    bool                `db:"follow_up_required" json:"follow_up_required"`
	FollowUpDate        *time.Time          `db:"follow_up_date" json:"follow_up_date,omitempty"`
	DocumentsRequired   *string             `db:"documents_required" json:"documents_required,omitempty"`
	SpecialRequirements *string             `db:"special_requirements" json:"special_requirements,omitempty"`
	InterpreterRequired bool                `db:"interpreter_required" json:"interpreter_required"`
	InterpreterLanguage *string             `db:"interpreter_language" json:"interpreter_language,omitempty"`
	AccessibilityNeeds  *string             `db:"accessibility_needs" json:"accessibility_needs,omitempty"`
	ReminderSent        bool                `db:"reminder_sent" json:"reminder_sent"`
	ReminderDate        *time.Time          `db:"reminder_date" json:"reminder_date,omitempty"`
}

// StartTime returns the scheduled start instant.
func (a *Appointment) StartTime() time.Time {
	return a.ScheduledAt
}

// EndTime returns the exclusive end of the appointment interval.
func (a *Appointment) EndTime() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Active reports whether this appointment still blocks its interval.
// Cancelled and no-show appointments free the slot.
func (a *Appointment) Active() bool {
	return a.Status != AppointmentStatusCancelled && a.Status != AppointmentStatusNoShow
}

// TimeSlot is a candidate bookable interval of fixed duration within
// office hours. Intervals are half-open: [Start, End).
type TimeSlot struct {
	Start           time.Time `json:"start_time"`
	End             time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration"`
}

// Overlaps applies the half-open interval test; touching endpoints do
// not overlap.
func (s TimeSlot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && s.End.After(start)
}

type BookAppointmentRequest struct {
	AppointmentType     AppointmentType     `json:"appointment_type" binding:"required,apttype"`
	ScheduledDate       time.Time           `json:"scheduled_date" binding:"required"`
	Duration            int                 `json:"duration"`
	Priority            AppointmentPriority `json:"priority"`
	Notes               *string             `json:"notes"`
	SpecialRequirements *string             `json:"special_requirements"`
	InterpreterRequired bool                `json:"interpreter_required"`
	InterpreterLanguage *string             `json:"interpreter_language"`
	AccessibilityNeeds  *string             `json:"accessibility_needs"`
}

// UpdateAppointmentRequest covers the fields a requester may change
// while the appointment is still in the scheduled state.
type UpdateAppointmentRequest struct {
	ScheduledDate       *time.Time `json:"scheduled_date"`
	Notes               *string    `json:"notes"`
	SpecialRequirements *string    `json:"special_requirements"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

type CompleteAppointmentRequest struct {
	Outcome          string     `json:"outcome" binding:"required"`
	FollowUpRequired bool       `json:"follow_up_required"`
	FollowUpDate     *time.Time `json:"follow_up_date"`
}

type AppointmentFilters struct {
	CitizenID       uuid.UUID
	Status          AppointmentStatus
	AppointmentType AppointmentType
	StartDate       time.Time
	EndDate         time.Time
	Pagination
}
