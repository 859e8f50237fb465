package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"clinicbook/internal/domain"
)

// ErrDuplicateClaim is returned when an insert loses the race on the
// idx_no_double_booking partial unique index.
var ErrDuplicateClaim = errors.New("slot already claimed")

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create inserts the appointment. The partial unique index on
// (doctor_id, date, start_time) WHERE status <> 'cancelled' is the single
// authority for the at-most-one-claim invariant; a violation maps to
// ErrDuplicateClaim.
func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateClaim
		}
		return err
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	var a domain.Appointment
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// ListActiveForDoctorRange returns non-cancelled appointments for slot
// materialization over [fromDate, toDate] inclusive.
func (r *AppointmentRepository) ListActiveForDoctorRange(ctx context.Context, doctorID int64, fromDate, toDate string) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND date >= ? AND date <= ? AND status <> ?",
			doctorID, fromDate, toDate, domain.AppointmentCancelled).
		Order("date, start_time").
		Find(&out).Error
	return out, err
}

func (r *AppointmentRepository) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("date DESC, start_time DESC").
		Limit(limit).Offset(offset).
		Find(&out).Error
	return out, err
}

// UpdateStatusFrom applies the transition only while the row still holds the
// expected status, so two racing desk operations cannot silently overwrite
// each other. Reports whether a row changed.
func (r *AppointmentRepository) UpdateStatusFrom(ctx context.Context, id int64, from, to domain.AppointmentStatus) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// MarkCheckedIn transitions to checked_in and stamps checked_in_at in one
// conditional update; the status guard keeps concurrent check-ins from
// stamping twice.
func (r *AppointmentRepository) MarkCheckedIn(ctx context.Context, id int64, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ? AND status = ?", id, domain.AppointmentConfirmed).
		Updates(map[string]interface{}{
			"status":        domain.AppointmentCheckedIn,
			"checked_in_at": at,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// CancelWithReason cancels the row only while it still holds the status the
// caller observed; the guard keeps a cancel from clobbering a consultation
// that started in the meantime.
func (r *AppointmentRepository) CancelWithReason(ctx context.Context, id int64, from domain.AppointmentStatus, reason string, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":              domain.AppointmentCancelled,
			"cancellation_reason": reason,
			"cancelled_at":        at,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *AppointmentRepository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	return r.db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ?", id).
		Update("payment_status", status).Error
}

// ListUnpaidStale returns pending/confirmed, never-checked-in appointments
// created before cutoff that are still UNPAID or payment-PENDING. Candidates
// for the abandoned-booking reclaim pass.
func (r *AppointmentRepository) ListUnpaidStale(ctx context.Context, cutoff time.Time) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := r.db.WithContext(ctx).
		Where("status IN ? AND payment_status IN ? AND checked_in_at IS NULL AND created_at < ?",
			[]domain.AppointmentStatus{domain.AppointmentPending, domain.AppointmentConfirmed},
			[]domain.PaymentStatus{domain.PaymentUnpaid, domain.PaymentPending},
			cutoff).
		Find(&out).Error
	return out, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate")
}
