package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/model"
)

// ConflictCheck is invoked by the appointment repository inside the
// day-locked booking transaction, with every appointment that still
// blocks an interval on the requested day. Returning an error aborts
// the transaction.
type ConflictCheck func(existing []*model.Appointment) error

type AppointmentRepository interface {
	// CreateInSlot inserts the appointment and its outbox event in one
	// transaction, holding an exclusive per-day lock while precheck
	// runs against the day's active appointments.
	CreateInSlot(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent, precheck ConflictCheck) error
	// RescheduleInSlot persists a changed scheduled time under the same
	// per-day locking discipline as CreateInSlot.
	RescheduleInSlot(ctx context.Context, apt *model.Appointment, precheck ConflictCheck) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Update(ctx context.Context, apt *model.Appointment) error
	// UpdateWithEvent persists the appointment and writes the outbox
	// event in the same transaction.
	UpdateWithEvent(ctx context.Context, apt *model.Appointment, evt *model.OutboxEvent) error
	// FindByDateRange returns appointments whose scheduled time falls
	// in [start, end), excluding the given statuses.
	FindByDateRange(ctx context.Context, start, end time.Time, excludeStatuses []model.AppointmentStatus) ([]*model.Appointment, error)
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int64, error)
}

type CitizenRepository interface {
	Create(ctx context.Context, citizen *model.Citizen) error
	Get(ctx context.Context, id uuid.UUID) (*model.Citizen, error)
	GetByNationalID(ctx context.Context, nationalID string) (*model.Citizen, error)
	Update(ctx context.Context, citizen *model.Citizen) error
	List(ctx context.Context, filters *model.CitizenFilters) ([]*model.Citizen, int64, error)
}

type VisaRepository interface {
	Create(ctx context.Context, app *model.VisaApplication) error
	Get(ctx context.Context, id uuid.UUID) (*model.VisaApplication, error)
	GetByApplicationNumber(ctx context.Context, number string) (*model.VisaApplication, error)
	Update(ctx context.Context, app *model.VisaApplication) error
	UpdateWithEvent(ctx context.Context, app *model.VisaApplication, evt *model.OutboxEvent) error
	List(ctx context.Context, filters *model.VisaFilters) ([]*model.VisaApplication, int64, error)
}

type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	Get(ctx context.Context, id uuid.UUID) (*model.Document, error)
	Update(ctx context.Context, doc *model.Document) error
	List(ctx context.Context, filters *model.DocumentFilters) ([]*model.Document, int64, error)
}

type StaffRepository interface {
	Create(ctx context.Context, staff *model.Staff) error
	Get(ctx context.Context, id uuid.UUID) (*model.Staff, error)
	GetByEmployeeID(ctx context.Context, employeeID string) (*model.Staff, error)
	Update(ctx context.Context, staff *model.Staff) error
	List(ctx context.Context, filters *model.StaffFilters) ([]*model.Staff, int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type TokenRepository interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, token string, expiry time.Time) error
	ValidateRefreshToken(ctx context.Context, token string) (uuid.UUID, error)
	InvalidateRefreshToken(ctx context.Context, token string) error
	InvalidateUserTokens(ctx context.Context, userID uuid.UUID) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	Update(ctx context.Context, n *model.Notification) error
	List(ctx context.Context, filters *model.NotificationFilters) ([]*model.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	// GetPendingEventsWithLock atomically claims up to limit due pending
	// events: the claim bumps retry_count and pushes retry_at past the
	// publish attempt so concurrent workers never hold the same event.
	GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}

type AuditRepository interface {
	Create(ctx context.Context, log *model.AuditLog) error
	List(ctx context.Context, filters *model.AuditFilters) ([]*model.AuditLog, int64, error)
}
