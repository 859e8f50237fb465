package payment

import (
	"context"
	"fmt"
	"log"
	"time"

	"clinicbook/internal/domain"
	"clinicbook/internal/events"
)

// PendingTTL is the soft-reservation window: a slot stays booked while the
// attempt is live, and is reclaimed automatically once it lapses.
const PendingTTL = 15 * time.Minute

type Service struct {
	payments     PaymentStore
	appointments AppointmentStore
	gateways     map[domain.PaymentMethod]Gateway
	sink         events.Sink

	callbackURL string
	now         func() time.Time
}

func NewService(payments PaymentStore, appointments AppointmentStore, gateways []Gateway, sink events.Sink, callbackURL string) *Service {
	byMethod := make(map[domain.PaymentMethod]Gateway, len(gateways))
	for _, g := range gateways {
		byMethod[g.Method()] = g
	}
	return &Service{
		payments:     payments,
		appointments: appointments,
		gateways:     byMethod,
		sink:         sink,
		callbackURL:  callbackURL,
		now:          time.Now,
	}
}

// CreatePayment opens a payment attempt for the appointment. At most one
// non-terminal attempt may exist: a live unexpired PENDING one is rejected,
// an expired one is lazily failed first. CASH is recorded, not awaited.
func (s *Service) CreatePayment(ctx context.Context, appointmentID int64, method domain.PaymentMethod) (*CreatePaymentResponse, error) {
	if !method.Valid() {
		return nil, ErrInvalidMethod
	}

	a, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if !a.IsActive() || a.PaymentStatus == domain.PaymentPaid {
		return nil, ErrNotPayable
	}

	now := s.now().UTC()

	if pending, err := s.payments.GetPendingForAppointment(ctx, appointmentID); err != nil {
		return nil, err
	} else if pending != nil {
		if !pending.Expired(now) {
			return nil, ErrAlreadyPending
		}
		if _, err := s.ExpireIfDue(ctx, pending.ID); err != nil {
			return nil, err
		}
	}

	if method == domain.MethodCash {
		paidAt := now
		p := &domain.Payment{
			AppointmentID: appointmentID,
			Amount:        a.ConsultationFee,
			Method:        domain.MethodCash,
			Status:        domain.PaymentStateCompleted,
			PaidAt:        &paidAt,
		}
		if err := s.payments.Create(ctx, p); err != nil {
			return nil, err
		}
		if err := s.appointments.UpdatePaymentStatus(ctx, appointmentID, domain.PaymentPaid); err != nil {
			return nil, err
		}
		if s.sink != nil {
			_ = s.sink.PaymentCompleted(ctx, p)
		}
		return &CreatePaymentResponse{PaymentID: p.ID, Status: p.Status}, nil
	}

	gw, ok := s.gateways[method]
	if !ok {
		return nil, ErrInvalidMethod
	}

	providerRef := fmt.Sprintf("%d-%d", appointmentID, now.UnixNano())
	redirectURL, err := gw.CreateIntent(a.ConsultationFee, providerRef, s.callbackURL)
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(PendingTTL)
	p := &domain.Payment{
		AppointmentID: appointmentID,
		Amount:        a.ConsultationFee,
		Method:        method,
		Status:        domain.PaymentStatePending,
		ProviderRef:   providerRef,
		RedirectURL:   redirectURL,
		ExpiresAt:     &expiresAt,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, err
	}
	if err := s.appointments.UpdatePaymentStatus(ctx, appointmentID, domain.PaymentPending); err != nil {
		return nil, err
	}

	return &CreatePaymentResponse{
		PaymentID:   p.ID,
		Status:      p.Status,
		RedirectURL: redirectURL,
		ExpiresAt:   &expiresAt,
	}, nil
}

// GetPaymentStatus reads the latest attempt, applying lazy expiry: a PENDING
// attempt past its deadline reports FAILED on this very read, with no
// background sweep needed for correctness.
func (s *Service) GetPaymentStatus(ctx context.Context, appointmentID int64) (*PaymentStatusResponse, error) {
	p, err := s.payments.GetLatestForAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoPaymentFound
	}

	if p.Expired(s.now()) {
		if _, err := s.ExpireIfDue(ctx, p.ID); err != nil {
			return nil, err
		}
		p, err = s.payments.GetByID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
	}

	return &PaymentStatusResponse{
		PaymentID: p.ID,
		Method:    p.Method,
		Status:    p.Status,
		ExpiresAt: p.ExpiresAt,
		PaidAt:    p.PaidAt,
	}, nil
}

// ExpireIfDue terminates one overdue PENDING attempt and pulls the
// appointment aggregate back to UNPAID when no other live attempt remains.
// Safe to race with callbacks: the conditional update loses to a completion.
func (s *Service) ExpireIfDue(ctx context.Context, paymentID int64) (bool, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return false, err
	}
	if !p.Expired(s.now()) {
		return false, nil
	}

	changed, err := s.payments.MarkFailed(ctx, paymentID, "expired")
	if err != nil || !changed {
		return false, err
	}

	if err := s.revertAggregateIfIdle(ctx, p.AppointmentID); err != nil {
		return true, err
	}
	return true, nil
}

// HandleProviderResult processes the asynchronous provider callback.
// Callbacks are untrusted: unknown references and amount mismatches are
// reported to the caller for logging but never mutate unrelated state, and
// duplicate success callbacks are no-ops.
func (s *Service) HandleProviderResult(ctx context.Context, providerRef string, success bool, amount float64, rawBody string) error {
	p, err := s.payments.GetByProviderRef(ctx, providerRef)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownProviderRef, providerRef)
	}

	if amount == 0 {
		// Providers omit the amount on some failure callbacks; the HMAC over
		// (partner, ref, amount) already ties the value to the signature, so
		// only log the omission and fall through.
		log.Printf("payment callback without amount provider_ref=%s payment_id=%d", providerRef, p.ID)
	} else if amount != p.Amount {
		if _, err := s.payments.MarkFailed(ctx, p.ID, fmt.Sprintf("amount mismatch callback=%.2f expected=%.2f", amount, p.Amount)); err != nil {
			return err
		}
		_ = s.revertAggregateIfIdle(ctx, p.AppointmentID)
		return ErrAmountMismatch
	}

	if !success {
		if changed, err := s.payments.MarkFailed(ctx, p.ID, "provider reported failure"); err != nil {
			return err
		} else if changed {
			_ = s.revertAggregateIfIdle(ctx, p.AppointmentID)
		}
		return nil
	}

	changed, err := s.payments.MarkPaidIdempotent(ctx, p.ID, rawBody, s.now().UTC())
	if err != nil {
		return err
	}
	if !changed {
		log.Printf("idempotent callback already completed provider_ref=%s", providerRef)
		return nil
	}

	if err := s.appointments.UpdatePaymentStatus(ctx, p.AppointmentID, domain.PaymentPaid); err != nil {
		return err
	}
	if s.sink != nil {
		updated, err := s.payments.GetByID(ctx, p.ID)
		if err == nil {
			_ = s.sink.PaymentCompleted(ctx, updated)
		}
	}
	return nil
}

// VerifyCallbackSignature checks the provider's signature for the method.
func (s *Service) VerifyCallbackSignature(ctx context.Context, method domain.PaymentMethod, req CallbackRequest) bool {
	gw, ok := s.gateways[method]
	if !ok {
		return false
	}
	return gw.VerifyCallback(req.ProviderRef, req.Amount, req.Signature)
}

// RequestRefund opens a pending refund against the appointment's settled
// payment. The completed payment row is never rewritten; the appointment only
// flips to REFUNDED once the refund settles.
func (s *Service) RequestRefund(ctx context.Context, appointmentID int64, reason string) error {
	p, err := s.payments.GetCompletedForAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrNoPaymentFound
	}

	existing, err := s.payments.GetPendingRefundForPayment(ctx, p.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	return s.payments.CreateRefund(ctx, &domain.Refund{
		PaymentID: p.ID,
		Amount:    p.Amount,
		Reason:    reason,
	})
}

// SettleRefund records the provider's confirmation of a refund and flips the
// appointment aggregate to REFUNDED. An unsettled refund simply stays
// pending, visible through ListPendingRefunds.
func (s *Service) SettleRefund(ctx context.Context, refundID int64) error {
	rf, err := s.payments.GetRefundByID(ctx, refundID)
	if err != nil {
		return err
	}
	if rf.Status != domain.RefundPending {
		return nil
	}

	p, err := s.payments.GetByID(ctx, rf.PaymentID)
	if err != nil {
		return err
	}

	settledAt := s.now().UTC()
	if err := s.payments.UpdateRefundStatus(ctx, refundID, domain.RefundSettled, &settledAt); err != nil {
		return err
	}
	return s.appointments.UpdatePaymentStatus(ctx, p.AppointmentID, domain.PaymentRefunded)
}

func (s *Service) ListPendingRefunds(ctx context.Context) ([]domain.Refund, error) {
	return s.payments.ListPendingRefunds(ctx)
}

// revertAggregateIfIdle sets the appointment back to UNPAID when no live or
// completed attempt remains.
func (s *Service) revertAggregateIfIdle(ctx context.Context, appointmentID int64) error {
	if completed, err := s.payments.GetCompletedForAppointment(ctx, appointmentID); err != nil {
		return err
	} else if completed != nil {
		return nil
	}
	if pending, err := s.payments.GetPendingForAppointment(ctx, appointmentID); err != nil {
		return err
	} else if pending != nil && !pending.Expired(s.now()) {
		return nil
	}
	return s.appointments.UpdatePaymentStatus(ctx, appointmentID, domain.PaymentUnpaid)
}
