package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/model"
	"github.com/embassygq/consular-api/internal/repository"
)

type Service struct {
	repo repository.NotificationRepository
}

func NewService(repo repository.NotificationRepository) *Service {
	return &Service{repo: repo}
}

// Notify records a delivery intent for the user. Actual delivery is
// handled by the outbox worker.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, category model.NotificationCategory, title, message string, entityType string, entityID uuid.UUID) (*model.Notification, error) {
	n := &model.Notification{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Category: category,
		Priority: "normal",
		Status:   model.NotificationStatusPending,
	}
	if entityType != "" {
		n.RelatedEntityType = &entityType
		n.RelatedEntityID = &entityID
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, filters *model.NotificationFilters) ([]*model.Notification, int64, error) {
	if filters == nil {
		filters = &model.NotificationFilters{}
	}
	filters.UserID = userID
	return s.repo.List(ctx, filters)
}

func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, userID)
}

// MarkSent is called by the delivery worker after a successful send.
func (s *Service) MarkSent(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now()
	n.Status = model.NotificationStatusSent
	n.SentAt = &now
	return s.repo.Update(ctx, n)
}
