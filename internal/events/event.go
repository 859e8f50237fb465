package events

import (
	"context"
	"time"

	"clinicbook/internal/domain"
)

type Type string

const (
	TypeAppointmentBooked    Type = "appointment.booked"
	TypeAppointmentCancelled Type = "appointment.cancelled"
	TypePaymentCompleted     Type = "payment.completed"
)

// Event is what the notification subsystem consumes. The engine only emits;
// it never calls into chat or notification delivery directly.
type Event struct {
	Type Type                   `json:"type"`
	At   time.Time              `json:"at"`
	Data map[string]interface{} `json:"data"`
}

// Sink receives domain events from the scheduling and payment services.
type Sink interface {
	AppointmentBooked(ctx context.Context, a *domain.Appointment) error
	AppointmentCancelled(ctx context.Context, a *domain.Appointment, reason string) error
	PaymentCompleted(ctx context.Context, p *domain.Payment) error
}
