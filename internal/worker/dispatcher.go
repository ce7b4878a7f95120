package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/embassygq/consular-api/internal/email"
	"github.com/embassygq/consular-api/internal/model"
	"github.com/embassygq/consular-api/internal/repository"
	"github.com/embassygq/consular-api/pkg/logger"
	"github.com/embassygq/consular-api/pkg/messaging"
)

// EmailDispatcher consumes domain events from the broker and turns
// them into outbound email for the affected citizen.
type EmailDispatcher struct {
	broker   messaging.Broker
	citizens repository.CitizenRepository
	mailer   email.Service
	logger   *logger.Logger
}

func NewEmailDispatcher(
	broker messaging.Broker,
	citizens repository.CitizenRepository,
	mailer email.Service,
	log *logger.Logger,
) *EmailDispatcher {
	return &EmailDispatcher{
		broker:   broker,
		citizens: citizens,
		mailer:   mailer,
		logger:   log,
	}
}

type appointmentEvent struct {
	AppointmentNumber string    `json:"appointment_number"`
	CitizenID         uuid.UUID `json:"citizen_id"`
	ScheduledAt       time.Time `json:"scheduled_at"`
	Status            string    `json:"status"`
}

type visaEvent struct {
	ApplicationNumber string    `json:"application_number"`
	CitizenID         uuid.UUID `json:"citizen_id"`
	Status            string    `json:"status"`
}

// Start subscribes to the channels the outbox processor publishes to
// and blocks until the context is cancelled.
func (d *EmailDispatcher) Start(ctx context.Context) error {
	channels := []string{
		model.EventAppointmentConfirmed,
		model.EventAppointmentCancelled,
		model.EventVisaStatusChanged,
	}

	for _, channel := range channels {
		msgs, err := d.broker.Subscribe(ctx, channel)
		if err != nil {
			return err
		}
		go d.consume(ctx, channel, msgs)
	}

	d.logger.Info("email dispatcher started", "channels", len(channels))
	<-ctx.Done()
	return nil
}

func (d *EmailDispatcher) consume(ctx context.Context, channel string, msgs <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-msgs:
			if !ok {
				return
			}
			if err := d.dispatch(ctx, channel, raw); err != nil {
				d.logger.Error(err, "failed to dispatch event", "channel", channel)
			}
		}
	}
}

func (d *EmailDispatcher) dispatch(ctx context.Context, channel string, raw []byte) error {
	switch channel {
	case model.EventAppointmentConfirmed, model.EventAppointmentCancelled:
		var evt appointmentEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return err
		}

		to, err := d.citizenEmail(ctx, evt.CitizenID)
		if err != nil || to == "" {
			return err
		}

		if channel == model.EventAppointmentConfirmed {
			return d.mailer.SendAppointmentConfirmation(ctx, to, evt.AppointmentNumber, evt.ScheduledAt)
		}
		return d.mailer.SendAppointmentCancellation(ctx, to, evt.AppointmentNumber, "")

	case model.EventVisaStatusChanged:
		var evt visaEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return err
		}

		to, err := d.citizenEmail(ctx, evt.CitizenID)
		if err != nil || to == "" {
			return err
		}
		return d.mailer.SendVisaDecision(ctx, to, evt.ApplicationNumber, evt.Status)
	}
	return nil
}

// citizenEmail resolves the citizen's contact address. A citizen
// without one is skipped, not an error.
func (d *EmailDispatcher) citizenEmail(ctx context.Context, id uuid.UUID) (string, error) {
	citizen, err := d.citizens.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if citizen.Email == nil {
		return "", nil
	}
	return *citizen.Email, nil
}
