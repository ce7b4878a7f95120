package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationCategory string

const (
	NotificationCategoryVisa        NotificationCategory = "visa"
	NotificationCategoryAppointment NotificationCategory = "appointment"
	NotificationCategoryDocument    NotificationCategory = "document"
	NotificationCategorySystem      NotificationCategory = "system"
	NotificationCategoryGeneral     NotificationCategory = "general"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is a delivery intent. The core records the intent and
// the outbox worker publishes it; delivery mechanics live elsewhere.
type Notification struct {
	Base
	UserID            uuid.UUID            `db:"user_id" json:"user_id"`
	Title             string               `db:"title" json:"title"`
	Message           string               `db:"message" json:"message"`
	Category          NotificationCategory `db:"category" json:"category"`
	Priority          string               `db:"priority" json:"priority"`
	Status            NotificationStatus   `db:"status" json:"status"`
	IsRead            bool                 `db:"is_read" json:"is_read"`
	ReadAt            *time.Time           `db:"read_at" json:"read_at,omitempty"`
	SentAt            *time.Time           `db:"sent_at" json:"sent_at,omitempty"`
	RelatedEntityType *string              `db:"related_entity_type" json:"related_entity_type,omitempty"`
	RelatedEntityID   *uuid.UUID           `db:"related_entity_id" json:"related_entity_id,omitempty"`
}

type NotificationFilters struct {
	UserID   uuid.UUID
	Category NotificationCategory
	IsRead   *bool
	Pagination
}
