package availability

import (
	"context"
	"fmt"
	"time"

	"clinicbook/internal/domain"
)

type Service struct {
	templates TemplateRepository
	overrides OverrideRepository
	doctors   DoctorReader
}

func NewService(templates TemplateRepository, overrides OverrideRepository, doctors DoctorReader) *Service {
	return &Service{templates: templates, overrides: overrides, doctors: doctors}
}

// SetWeeklyTemplate replaces the doctor's whole week atomically. Partial-day
// edits do not exist: the caller resubmits the full template every time, so
// concurrent edits resolve to last-write-wins on the entire week rather than
// interleaving per day.
func (s *Service) SetWeeklyTemplate(ctx context.Context, doctorID int64, entries []TemplateEntry) ([]domain.WeeklyAvailability, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		return nil, ErrDoctorNotFound
	}

	seen := make(map[time.Weekday]bool, len(entries))
	rows := make([]domain.WeeklyAvailability, 0, len(entries))
	for _, e := range entries {
		if e.DayOfWeek < time.Sunday || e.DayOfWeek > time.Saturday {
			return nil, fmt.Errorf("%w: unknown day_of_week %d", ErrInvalidTemplate, e.DayOfWeek)
		}
		if seen[e.DayOfWeek] {
			return nil, fmt.Errorf("%w: duplicate entry for %s", ErrInvalidTemplate, e.DayOfWeek)
		}
		seen[e.DayOfWeek] = true

		row := domain.WeeklyAvailability{
			DoctorID:  doctorID,
			DayOfWeek: e.DayOfWeek,
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
		}
		if err := row.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
		rows = append(rows, row)
	}

	return s.templates.ReplaceTemplate(ctx, doctorID, rows)
}

func (s *Service) GetWeeklyTemplate(ctx context.Context, doctorID int64) ([]domain.WeeklyAvailability, error) {
	return s.templates.GetTemplate(ctx, doctorID)
}

// DisableSlot marks one concrete slot "off" outside the weekly template.
func (s *Service) DisableSlot(ctx context.Context, doctorID int64, date, startTime, reason string) error {
	if _, err := domain.ParseDateTime(date, startTime, time.UTC); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return s.overrides.Create(ctx, &domain.SlotOverride{
		DoctorID:  doctorID,
		Date:      date,
		StartTime: startTime,
		Reason:    reason,
	})
}

func (s *Service) EnableSlot(ctx context.Context, doctorID int64, date, startTime string) error {
	return s.overrides.Delete(ctx, doctorID, date, startTime)
}
