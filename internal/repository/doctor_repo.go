package repository

import (
	"context"

	"gorm.io/gorm"

	"clinicbook/internal/domain"
)

type DoctorRepository struct {
	db *gorm.DB
}

func NewDoctorRepository(db *gorm.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

func (r *DoctorRepository) GetByID(ctx context.Context, id int64) (*domain.Doctor, error) {
	var d domain.Doctor
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DoctorRepository) List(ctx context.Context) ([]domain.Doctor, error) {
	var out []domain.Doctor
	err := r.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}
