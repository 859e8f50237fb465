package schedule

import (
	"context"

	"clinicbook/internal/domain"
)

type TemplateReader interface {
	GetTemplate(ctx context.Context, doctorID int64) ([]domain.WeeklyAvailability, error)
}

type OverrideReader interface {
	ListForDoctorRange(ctx context.Context, doctorID int64, fromDate, toDate string) ([]domain.SlotOverride, error)
}

type AppointmentReader interface {
	ListActiveForDoctorRange(ctx context.Context, doctorID int64, fromDate, toDate string) ([]domain.Appointment, error)
}
