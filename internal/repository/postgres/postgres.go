package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/embassygq/consular-api/internal/repository"
)

type appointmentRepository struct {
	BaseRepository
}

type citizenRepository struct {
	BaseRepository
}

type visaRepository struct {
	BaseRepository
}

type documentRepository struct {
	BaseRepository
}

type staffRepository struct {
	BaseRepository
}

type userRepository struct {
	BaseRepository
}

type tokenRepository struct {
	BaseRepository
}

type notificationRepository struct {
	BaseRepository
}

type outboxRepository struct {
	BaseRepository
}

type auditRepository struct {
	BaseRepository
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}

func NewCitizenRepository(db *sqlx.DB) repository.CitizenRepository {
	return &citizenRepository{NewBaseRepository(db)}
}

func NewVisaRepository(db *sqlx.DB) repository.VisaRepository {
	return &visaRepository{NewBaseRepository(db)}
}

func NewDocumentRepository(db *sqlx.DB) repository.DocumentRepository {
	return &documentRepository{NewBaseRepository(db)}
}

func NewStaffRepository(db *sqlx.DB) repository.StaffRepository {
	return &staffRepository{NewBaseRepository(db)}
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{NewBaseRepository(db)}
}

func NewTokenRepository(db *sqlx.DB) repository.TokenRepository {
	return &tokenRepository{NewBaseRepository(db)}
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{NewBaseRepository(db)}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{NewBaseRepository(db)}
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{NewBaseRepository(db)}
}
