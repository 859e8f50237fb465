package availability

import (
	"context"

	"clinicbook/internal/domain"
)

// TemplateRepository persists weekly templates; the only write is a whole
// template replace.
type TemplateRepository interface {
	ReplaceTemplate(ctx context.Context, doctorID int64, entries []domain.WeeklyAvailability) ([]domain.WeeklyAvailability, error)
	GetTemplate(ctx context.Context, doctorID int64) ([]domain.WeeklyAvailability, error)
}

type OverrideRepository interface {
	Create(ctx context.Context, o *domain.SlotOverride) error
	Delete(ctx context.Context, doctorID int64, date, startTime string) error
}

type DoctorReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Doctor, error)
}
