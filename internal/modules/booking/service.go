package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"clinicbook/internal/domain"
	"clinicbook/internal/events"
	"clinicbook/internal/repository"
)

// DefaultUnpaidGrace is how long a claim with no payment attempt at all may
// hold its slot before the reclaim pass can cancel it.
const DefaultUnpaidGrace = 15 * time.Minute

type Service struct {
	appointments AppointmentRepository
	doctors      DoctorReader
	slots        SlotChecker
	payments     PaymentReader
	expirer      PaymentExpirer
	refunds      RefundRequester
	sink         events.Sink

	gate        GatePolicy
	unpaidGrace time.Duration
	now         func() time.Time
}

func NewService(
	appointments AppointmentRepository,
	doctors DoctorReader,
	slots SlotChecker,
	payments PaymentReader,
	expirer PaymentExpirer,
	refunds RefundRequester,
	sink events.Sink,
) *Service {
	return &Service{
		appointments: appointments,
		doctors:      doctors,
		slots:        slots,
		payments:     payments,
		expirer:      expirer,
		refunds:      refunds,
		sink:         sink,
		gate:         DeferredPaymentGate{},
		unpaidGrace:  DefaultUnpaidGrace,
		now:          time.Now,
	}
}

// SetGatePolicy swaps the check-in policy rule.
func (s *Service) SetGatePolicy(p GatePolicy) {
	if p != nil {
		s.gate = p
	}
}

// ClaimSlot creates the appointment that exclusively owns (doctor, date,
// time). The generator check catches stale client slot lists up front; the
// partial unique index is what actually decides races, so of two concurrent
// claims exactly one sees the created appointment and the other
// ErrSlotConflict.
func (s *Service) ClaimSlot(ctx context.Context, patientID int64, req ClaimSlotRequest) (*domain.Appointment, error) {
	if _, err := domain.ParseDateTime(req.Date, req.StartTime, time.UTC); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	doctor, err := s.doctors.GetByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidSlot
		}
		return nil, err
	}

	bookable, status, err := s.slots.HasBookableSlot(ctx, req.DoctorID, req.Date, req.StartTime)
	if err != nil {
		return nil, err
	}
	if !bookable {
		if status == domain.SlotBooked {
			return nil, ErrSlotConflict
		}
		return nil, ErrInvalidSlot
	}

	initial := domain.AppointmentPending
	if doctor.AutoConfirm {
		initial = domain.AppointmentConfirmed
	}

	a := &domain.Appointment{
		DoctorID:        req.DoctorID,
		PatientID:       patientID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		Duration:        s.slots.SlotMinutes(),
		Status:          initial,
		PaymentStatus:   domain.PaymentUnpaid,
		ConsultationFee: doctor.ConsultationFee,
		Notes:           req.Notes,
	}

	if err := s.appointments.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicateClaim) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}

	if s.sink != nil {
		_ = s.sink.AppointmentBooked(ctx, a)
	}
	return a, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return a, err
}

func (s *Service) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]domain.Appointment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

// CanCheckIn exposes the gate decision without performing the transition.
func (s *Service) CanCheckIn(ctx context.Context, id int64) (GateDecision, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return GateDecision{}, err
	}
	return s.gate.Evaluate(a), nil
}

// CheckIn records the patient's arrival. A repeat call against an already
// checked-in appointment returns the same state without a second timestamp;
// terminal states report ErrAlreadyProcessed.
func (s *Service) CheckIn(ctx context.Context, id int64) (*domain.Appointment, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if a.Status == domain.AppointmentCheckedIn {
		return a, nil
	}

	decision := s.gate.Evaluate(a)
	if !decision.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessed, decision.Reason)
	}

	// Arrival implicitly confirms a still-pending appointment; the machine
	// passes through confirmed rather than skipping it. A lost race here is
	// fine, MarkCheckedIn's own guard decides the outcome.
	if a.Status == domain.AppointmentPending {
		if _, err := s.appointments.UpdateStatusFrom(ctx, id, domain.AppointmentPending, domain.AppointmentConfirmed); err != nil {
			return nil, err
		}
	}

	ok, err := s.appointments.MarkCheckedIn(ctx, id, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another receptionist; surface whatever state won.
		return s.GetByID(ctx, id)
	}
	return s.GetByID(ctx, id)
}

// StartConsultation moves a checked-in appointment to in_progress.
func (s *Service) StartConsultation(ctx context.Context, id int64) (*domain.Appointment, error) {
	return s.transition(ctx, id, domain.AppointmentInProgress)
}

// Complete finishes an in-progress consultation.
func (s *Service) Complete(ctx context.Context, id int64) (*domain.Appointment, error) {
	return s.transition(ctx, id, domain.AppointmentCompleted)
}

// Confirm moves a pending appointment to confirmed.
func (s *Service) Confirm(ctx context.Context, id int64) (*domain.Appointment, error) {
	return s.transition(ctx, id, domain.AppointmentConfirmed)
}

// MarkNoShow records that a confirmed patient never arrived.
func (s *Service) MarkNoShow(ctx context.Context, id int64) (*domain.Appointment, error) {
	return s.transition(ctx, id, domain.AppointmentNoShow)
}

func (s *Service) transition(ctx context.Context, id int64, to domain.AppointmentStatus) (*domain.Appointment, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == to {
		return a, nil
	}
	if a.Status.IsTerminal() {
		return nil, ErrAlreadyProcessed
	}
	if !domain.CanTransition(a.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, a.Status, to)
	}

	// The guard makes the write conditional on the status we validated
	// against; a concurrent transition means zero rows and a re-check.
	ok, err := s.appointments.UpdateStatusFrom(ctx, id, a.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == to {
			return current, nil
		}
		if current.Status.IsTerminal() {
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, to)
	}
	return s.GetByID(ctx, id)
}

// Cancel releases the slot. Cancelling and refunding are two sequenced
// operations: when the appointment is PAID a refund is requested afterwards,
// and a refund failure leaves a pending refund for staff instead of rolling
// the cancellation back.
func (s *Service) Cancel(ctx context.Context, id int64, reason string) (*domain.Appointment, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == domain.AppointmentCancelled {
		return nil, ErrAlreadyProcessed
	}
	if !domain.CanTransition(a.Status, domain.AppointmentCancelled) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, a.Status, domain.AppointmentCancelled)
	}

	ok, err := s.appointments.CancelWithReason(ctx, id, a.Status, reason, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		// The appointment moved on while we were deciding; report against
		// the state that won.
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current.Status == domain.AppointmentCancelled {
			return nil, ErrAlreadyProcessed
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, domain.AppointmentCancelled)
	}

	if a.PaymentStatus == domain.PaymentPaid && s.refunds != nil {
		if err := s.refunds.RequestRefund(ctx, id, reason); err != nil {
			log.Printf("refund request failed appointment_id=%d err=%v", id, err)
		}
	}

	updated, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.sink != nil {
		_ = s.sink.AppointmentCancelled(ctx, updated, reason)
	}
	return updated, nil
}

// CancelIfUnpaidExpired reclaims an abandoned booking: pending/confirmed,
// never checked in, and either its only live payment attempt has expired or
// it has no attempt and is past the unpaid grace window. Returns true when
// the appointment was cancelled.
func (s *Service) CancelIfUnpaidExpired(ctx context.Context, id int64) (bool, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if a.Status != domain.AppointmentPending && a.Status != domain.AppointmentConfirmed {
		return false, nil
	}
	if a.CheckedInAt != nil || a.PaymentStatus == domain.PaymentPaid {
		return false, nil
	}

	now := s.now()

	latest, err := s.payments.GetLatestForAppointment(ctx, id)
	if err != nil {
		return false, err
	}
	switch {
	case latest == nil:
		if now.Sub(a.CreatedAt) < s.unpaidGrace {
			return false, nil
		}
	case latest.Status == domain.PaymentStatePending:
		if !latest.Expired(now) {
			return false, nil
		}
		if _, err := s.expirer.ExpireIfDue(ctx, latest.ID); err != nil {
			return false, err
		}
	case latest.Status == domain.PaymentStateCompleted:
		return false, nil
	default:
		// Last attempt already failed or was cancelled; the slot is only
		// held by goodwill, reclaim it.
	}

	if _, err := s.Cancel(ctx, id, "payment not completed in time"); err != nil {
		return false, err
	}
	return true, nil
}

// ReclaimAbandoned sweeps all stale unpaid candidates; used by the periodic
// reconciliation pass and the maintenance binary.
func (s *Service) ReclaimAbandoned(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.unpaidGrace)
	candidates, err := s.appointments.ListUnpaidStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, a := range candidates {
		ok, err := s.CancelIfUnpaidExpired(ctx, a.ID)
		if err != nil {
			log.Printf("reclaim failed appointment_id=%d err=%v", a.ID, err)
			continue
		}
		if ok {
			reclaimed++
		}
	}
	return reclaimed, nil
}
