package booking

import (
	"context"
	"time"

	"clinicbook/internal/domain"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) error
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]domain.Appointment, error)
	UpdateStatusFrom(ctx context.Context, id int64, from, to domain.AppointmentStatus) (bool, error)
	MarkCheckedIn(ctx context.Context, id int64, at time.Time) (bool, error)
	CancelWithReason(ctx context.Context, id int64, from domain.AppointmentStatus, reason string, at time.Time) (bool, error)
	ListUnpaidStale(ctx context.Context, cutoff time.Time) ([]domain.Appointment, error)
}

type DoctorReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Doctor, error)
}

// SlotChecker is the slot generator view the ledger consults before insert.
type SlotChecker interface {
	HasBookableSlot(ctx context.Context, doctorID int64, date, startTime string) (bool, domain.SlotStatus, error)
	SlotMinutes() int
}

// PaymentReader exposes the payment attempts the auto-cancel pass inspects.
type PaymentReader interface {
	GetLatestForAppointment(ctx context.Context, appointmentID int64) (*domain.Payment, error)
}

// RefundRequester starts the refund flow when staff cancel a paid
// appointment. Refund failure never rolls the cancellation back.
type RefundRequester interface {
	RequestRefund(ctx context.Context, appointmentID int64, reason string) error
}

// PaymentExpirer lets the auto-cancel pass terminate the expired attempt it
// found before freeing the slot.
type PaymentExpirer interface {
	ExpireIfDue(ctx context.Context, paymentID int64) (bool, error)
}
