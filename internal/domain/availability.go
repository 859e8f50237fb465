package domain

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// CanonicalDayOrder sorts weekdays the way templates are returned: Mon..Sun.
func CanonicalDayOrder(w time.Weekday) int {
	if w == time.Sunday {
		return 7
	}
	return int(w)
}

// WeeklyAvailability is one day-of-week entry of a doctor's recurring
// template. At most one row exists per (doctor_id, day_of_week); the whole
// template is replaced on every edit.
type WeeklyAvailability struct {
	ID        int64        `json:"id" gorm:"primaryKey"`
	DoctorID  int64        `json:"doctor_id" gorm:"not null;uniqueIndex:idx_availability_doctor_day"`
	DayOfWeek time.Weekday `json:"day_of_week" gorm:"not null;uniqueIndex:idx_availability_doctor_day"`
	StartTime string       `json:"start_time" gorm:"type:varchar(5);not null"` // 15:04
	EndTime   string       `json:"end_time" gorm:"type:varchar(5);not null"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (WeeklyAvailability) TableName() string { return "weekly_availabilities" }

// Validate checks the single-entry invariant start < end on wall-clock times.
func (w *WeeklyAvailability) Validate() error {
	start, err := time.Parse(TimeLayout, w.StartTime)
	if err != nil {
		return fmt.Errorf("invalid start_time %q: %w", w.StartTime, err)
	}
	end, err := time.Parse(TimeLayout, w.EndTime)
	if err != nil {
		return fmt.Errorf("invalid end_time %q: %w", w.EndTime, err)
	}
	if !start.Before(end) {
		return fmt.Errorf("start_time %s must be before end_time %s", w.StartTime, w.EndTime)
	}
	return nil
}

// SlotOverride disables a single concrete slot outside the weekly template
// (slot status "off"). Removing the row re-enables the slot.
type SlotOverride struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	DoctorID  int64     `json:"doctor_id" gorm:"not null;uniqueIndex:idx_override_doctor_slot"`
	Date      string    `json:"date" gorm:"type:varchar(10);not null;uniqueIndex:idx_override_doctor_slot"`
	StartTime string    `json:"start_time" gorm:"type:varchar(5);not null;uniqueIndex:idx_override_doctor_slot"`
	Reason    string    `json:"reason,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

func (SlotOverride) TableName() string { return "slot_overrides" }

// ParseDateTime combines a 2006-01-02 date and 15:04 time into a moment in loc.
func ParseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	t, err := time.Parse(TimeLayout, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
