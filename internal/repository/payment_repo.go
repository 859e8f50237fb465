package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"clinicbook/internal/domain"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByProviderRef(ctx context.Context, ref string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("provider_ref = ?", ref).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetLatestForAppointment returns the newest attempt, or nil when the
// appointment has none yet.
func (r *PaymentRepository) GetLatestForAppointment(ctx context.Context, appointmentID int64) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("created_at DESC, id DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPendingForAppointment returns the non-terminal attempt if one exists.
func (r *PaymentRepository) GetPendingForAppointment(ctx context.Context, appointmentID int64) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).
		Where("appointment_id = ? AND status = ?", appointmentID, domain.PaymentStatePending).
		Order("created_at DESC, id DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetCompletedForAppointment returns the settled attempt, if any.
func (r *PaymentRepository) GetCompletedForAppointment(ctx context.Context, appointmentID int64) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).
		Where("appointment_id = ? AND status = ?", appointmentID, domain.PaymentStateCompleted).
		Order("created_at DESC, id DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// MarkPaidIdempotent flips PENDING -> COMPLETED exactly once. Returns false
// without error when the attempt was already completed, so duplicate provider
// callbacks stay no-ops.
func (r *PaymentRepository) MarkPaidIdempotent(ctx context.Context, id int64, rawBody string, paidAt time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentStatePending).
		Updates(map[string]interface{}{
			"status":            domain.PaymentStateCompleted,
			"paid_at":           paidAt,
			"callback_raw_body": rawBody,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// MarkFailed terminates a PENDING attempt; the guard keeps it from clobbering
// a completion that raced in.
func (r *PaymentRepository) MarkFailed(ctx context.Context, id int64, reason string) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentStatePending).
		Updates(map[string]interface{}{
			"status":         domain.PaymentStateFailed,
			"failure_reason": reason,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *PaymentRepository) MarkCancelled(ctx context.Context, id int64, reason string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentStatePending).
		Updates(map[string]interface{}{
			"status":         domain.PaymentStateCancelled,
			"failure_reason": reason,
		}).Error
}

// ListExpiredPending returns PENDING attempts past their deadline; the
// reconciliation sweep feeds these through the same lazy-expiry path reads use.
func (r *PaymentRepository) ListExpiredPending(ctx context.Context, now time.Time) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", domain.PaymentStatePending, now).
		Find(&out).Error
	return out, err
}

func (r *PaymentRepository) CreateRefund(ctx context.Context, rf *domain.Refund) error {
	return r.db.WithContext(ctx).Create(rf).Error
}

func (r *PaymentRepository) GetRefundByID(ctx context.Context, id int64) (*domain.Refund, error) {
	var rf domain.Refund
	if err := r.db.WithContext(ctx).First(&rf, id).Error; err != nil {
		return nil, err
	}
	return &rf, nil
}

func (r *PaymentRepository) GetPendingRefundForPayment(ctx context.Context, paymentID int64) (*domain.Refund, error) {
	var rf domain.Refund
	err := r.db.WithContext(ctx).
		Where("payment_id = ? AND status = ?", paymentID, domain.RefundPending).
		First(&rf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rf, nil
}

func (r *PaymentRepository) UpdateRefundStatus(ctx context.Context, id int64, status domain.RefundStatus, settledAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if settledAt != nil {
		updates["settled_at"] = *settledAt
	}
	return r.db.WithContext(ctx).
		Model(&domain.Refund{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ListPendingRefunds surfaces refunds awaiting settlement to staff.
func (r *PaymentRepository) ListPendingRefunds(ctx context.Context) ([]domain.Refund, error) {
	var out []domain.Refund
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.RefundPending).
		Order("created_at").
		Find(&out).Error
	return out, err
}
