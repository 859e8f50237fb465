package payment

import (
	"context"
	"time"

	"clinicbook/internal/domain"
)

type PaymentStore interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByProviderRef(ctx context.Context, ref string) (*domain.Payment, error)
	GetLatestForAppointment(ctx context.Context, appointmentID int64) (*domain.Payment, error)
	GetPendingForAppointment(ctx context.Context, appointmentID int64) (*domain.Payment, error)
	GetCompletedForAppointment(ctx context.Context, appointmentID int64) (*domain.Payment, error)
	MarkPaidIdempotent(ctx context.Context, id int64, rawBody string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id int64, reason string) (bool, error)
	ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Payment, error)

	CreateRefund(ctx context.Context, rf *domain.Refund) error
	GetRefundByID(ctx context.Context, id int64) (*domain.Refund, error)
	GetPendingRefundForPayment(ctx context.Context, paymentID int64) (*domain.Refund, error)
	UpdateRefundStatus(ctx context.Context, id int64, status domain.RefundStatus, settledAt *time.Time) error
	ListPendingRefunds(ctx context.Context) ([]domain.Refund, error)
}

// AppointmentStore is the slice of the ledger the payment lifecycle may
// touch: reads plus the aggregated payment_status column, nothing else.
type AppointmentStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error
}
