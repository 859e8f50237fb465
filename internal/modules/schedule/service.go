package schedule

import (
	"context"
	"fmt"
	"time"

	"clinicbook/internal/domain"
)

// DefaultSlotMinutes is the institutional consultation length. It is policy,
// not per-slot data.
const DefaultSlotMinutes = 50

type Service struct {
	templates    TemplateReader
	overrides    OverrideReader
	appointments AppointmentReader

	slotMinutes int
	loc         *time.Location
	now         func() time.Time
}

func NewService(templates TemplateReader, overrides OverrideReader, appointments AppointmentReader, slotMinutes int, loc *time.Location) *Service {
	if slotMinutes <= 0 {
		slotMinutes = DefaultSlotMinutes
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		templates:    templates,
		overrides:    overrides,
		appointments: appointments,
		slotMinutes:  slotMinutes,
		loc:          loc,
		now:          time.Now,
	}
}

// SlotMinutes exposes the configured consultation length to collaborators.
func (s *Service) SlotMinutes() int { return s.slotMinutes }

// ListSlots materializes the doctor's bookable slots over [from, to]. The
// result is a pure function of template, overrides, active claims and the
// current time; calling it again with the same inputs yields the same slots.
func (s *Service) ListSlots(ctx context.Context, doctorID int64, from, to string) ([]domain.Slot, error) {
	fromDay, err := time.ParseInLocation(domain.DateLayout, from, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid from date %q", ErrValidation, from)
	}
	toDay, err := time.ParseInLocation(domain.DateLayout, to, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid to date %q", ErrValidation, to)
	}
	if toDay.Before(fromDay) {
		return nil, fmt.Errorf("%w: to before from", ErrValidation)
	}

	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	// Nothing is ever generated before today's local midnight.
	if fromDay.Before(today) {
		fromDay = today
	}
	if toDay.Before(fromDay) {
		return []domain.Slot{}, nil
	}

	template, err := s.templates.GetTemplate(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if len(template) == 0 {
		return []domain.Slot{}, nil
	}
	byDay := make(map[time.Weekday]domain.WeeklyAvailability, len(template))
	for _, e := range template {
		byDay[e.DayOfWeek] = e
	}

	fromStr := fromDay.Format(domain.DateLayout)
	toStr := toDay.Format(domain.DateLayout)

	overrides, err := s.overrides.ListForDoctorRange(ctx, doctorID, fromStr, toStr)
	if err != nil {
		return nil, err
	}
	off := make(map[string]bool, len(overrides))
	for _, o := range overrides {
		off[o.Date+" "+o.StartTime] = true
	}

	claims, err := s.appointments.ListActiveForDoctorRange(ctx, doctorID, fromStr, toStr)
	if err != nil {
		return nil, err
	}
	booked := make(map[string]bool, len(claims))
	for _, a := range claims {
		booked[a.Date+" "+a.StartTime] = true
	}

	step := time.Duration(s.slotMinutes) * time.Minute
	out := make([]domain.Slot, 0)

	for day := fromDay; !day.After(toDay); day = day.AddDate(0, 0, 1) {
		entry, ok := byDay[day.Weekday()]
		if !ok {
			continue
		}
		open, err := domain.ParseDateTime(day.Format(domain.DateLayout), entry.StartTime, s.loc)
		if err != nil {
			return nil, err
		}
		close, err := domain.ParseDateTime(day.Format(domain.DateLayout), entry.EndTime, s.loc)
		if err != nil {
			return nil, err
		}

		// No partial trailing slot: the last increment must fit entirely.
		for start := open; !start.Add(step).After(close); start = start.Add(step) {
			slot := domain.Slot{
				DoctorID:  doctorID,
				Date:      day.Format(domain.DateLayout),
				StartTime: start.Format(domain.TimeLayout),
				Duration:  s.slotMinutes,
			}
			slot.Status = s.resolveStatus(slot, booked, off, start, now)
			out = append(out, slot)
		}
	}
	return out, nil
}

// resolveStatus applies the precedence expired > off > booked > available,
// with one carve-out: a past slot that still holds an active claim reports
// booked (the doctor may be mid-consultation on it), never expired.
func (s *Service) resolveStatus(slot domain.Slot, booked, off map[string]bool, start, now time.Time) domain.SlotStatus {
	key := slot.Date + " " + slot.StartTime
	claimed := booked[key]

	if start.Before(now) && !claimed {
		return domain.SlotExpired
	}
	if off[key] {
		return domain.SlotOff
	}
	if claimed {
		return domain.SlotBooked
	}
	return domain.SlotAvailable
}

// HasBookableSlot reports whether (date, startTime) is one of the generator's
// slots for the doctor and currently claimable. The booking ledger consults
// this before inserting, which is what turns stale client slot lists into
// InvalidSlot instead of phantom appointments.
func (s *Service) HasBookableSlot(ctx context.Context, doctorID int64, date, startTime string) (bool, domain.SlotStatus, error) {
	slots, err := s.ListSlots(ctx, doctorID, date, date)
	if err != nil {
		return false, "", err
	}
	for _, sl := range slots {
		if sl.StartTime == startTime {
			return sl.Status == domain.SlotAvailable, sl.Status, nil
		}
	}
	return false, "", nil
}
