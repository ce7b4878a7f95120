package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

// Service delivers consular notifications over email.
type Service interface {
	SendAppointmentConfirmation(ctx context.Context, to, referenceNumber string, scheduledAt time.Time) error
	SendAppointmentCancellation(ctx context.Context, to, referenceNumber, reason string) error
	SendVisaDecision(ctx context.Context, to, applicationNumber, status string) error
	SendCustom(ctx context.Context, to, subject, body string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

type smtpService struct {
	cfg    Config
	dialer *gomail.Dialer
}

func NewService(cfg Config) Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &smtpService{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (s *smtpService) SendAppointmentConfirmation(ctx context.Context, to, referenceNumber string, scheduledAt time.Time) error {
	subject := fmt.Sprintf("Appointment %s confirmed", referenceNumber)
	body := fmt.Sprintf(
		"Your consular appointment %s is confirmed for %s.\n\nPlease arrive 15 minutes early and bring a valid photo ID.",
		referenceNumber,
		scheduledAt.Format("Monday, 2 January 2006 at 15:04 MST"),
	)
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) SendAppointmentCancellation(ctx context.Context, to, referenceNumber, reason string) error {
	subject := fmt.Sprintf("Appointment %s cancelled", referenceNumber)
	body := fmt.Sprintf("Your consular appointment %s has been cancelled.", referenceNumber)
	if reason != "" {
		body += "\n\nReason: " + reason
	}
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) SendVisaDecision(ctx context.Context, to, applicationNumber, status string) error {
	subject := fmt.Sprintf("Visa application %s update", applicationNumber)
	body := fmt.Sprintf("The status of your visa application %s is now: %s.", applicationNumber, status)
	return s.send(ctx, to, subject, body)
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, body string) error {
	return s.send(ctx, to, subject, body)
}

// send runs DialAndSend in a goroutine so a stalled SMTP server cannot
// block past the context deadline.
func (s *smtpService) send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(msg)
	}()

	wait := s.cfg.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < wait {
			wait = d
		}
	}

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return context.DeadlineExceeded
	}
}
