package repository

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"clinicbook/internal/domain"
)

type AvailabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ReplaceTemplate swaps the doctor's entire weekly template in one
// transaction. There is deliberately no per-day mutation: every write is a
// full-template replace, so two sessions editing different days can never
// interleave into a half-updated week.
func (r *AvailabilityRepository) ReplaceTemplate(ctx context.Context, doctorID int64, entries []domain.WeeklyAvailability) ([]domain.WeeklyAvailability, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doctor_id = ?", doctorID).
			Delete(&domain.WeeklyAvailability{}).Error; err != nil {
			return err
		}
		for i := range entries {
			entries[i].ID = 0
			entries[i].DoctorID = doctorID
			if err := tx.Create(&entries[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetTemplate(ctx, doctorID)
}

// GetTemplate returns the 0..7 entries in canonical Mon..Sun order.
func (r *AvailabilityRepository) GetTemplate(ctx context.Context, doctorID int64) ([]domain.WeeklyAvailability, error) {
	var out []domain.WeeklyAvailability
	if err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return domain.CanonicalDayOrder(out[i].DayOfWeek) < domain.CanonicalDayOrder(out[j].DayOfWeek)
	})
	return out, nil
}

type OverrideRepository struct {
	db *gorm.DB
}

func NewOverrideRepository(db *gorm.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

func (r *OverrideRepository) Create(ctx context.Context, o *domain.SlotOverride) error {
	err := r.db.WithContext(ctx).Create(o).Error
	if err != nil && isUniqueViolation(err) {
		// Disabling an already disabled slot is a no-op.
		return nil
	}
	return err
}

func (r *OverrideRepository) Delete(ctx context.Context, doctorID int64, date, startTime string) error {
	return r.db.WithContext(ctx).
		Where("doctor_id = ? AND date = ? AND start_time = ?", doctorID, date, startTime).
		Delete(&domain.SlotOverride{}).Error
}

func (r *OverrideRepository) ListForDoctorRange(ctx context.Context, doctorID int64, fromDate, toDate string) ([]domain.SlotOverride, error) {
	var out []domain.SlotOverride
	err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND date >= ? AND date <= ?", doctorID, fromDate, toDate).
		Find(&out).Error
	return out, err
}
