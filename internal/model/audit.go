package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ActorID    uuid.UUID       `json:"actor_id" db:"actor_id"`
	ActorRole  string          `json:"actor_role" db:"actor_role"`
	Action     string          `json:"action" db:"action"`
	EntityType string          `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id" db:"entity_id"`
	Changes    json.RawMessage `json:"changes" db:"changes"`
	Metadata   json.RawMessage `json:"metadata" db:"metadata"`
	IPAddress  string          `json:"ip_address" db:"ip_address"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

type AuditFilters struct {
	ActorID    uuid.UUID
	EntityType string
	EntityID   uuid.UUID
	Action     string
	StartDate  time.Time
	EndDate    time.Time
	Pagination
}

const (
	AuditActionCreate     = "create"
	AuditActionUpdate     = "update"
	AuditActionConfirm    = "confirm"
	AuditActionComplete   = "complete"
	AuditActionCancel     = "cancel"
	AuditActionNoShow     = "no_show"
	AuditActionVerify     = "verify"
	AuditActionStatus     = "status_change"
	AuditActionLogin      = "login"
	AuditActionRegister   = "register"

	AuditEntityUser        = "user"
	AuditEntityCitizen     = "citizen"
	AuditEntityAppointment = "appointment"
	AuditEntityVisa        = "visa_application"
	AuditEntityDocument    = "document"
	AuditEntityStaff       = "staff"
)
