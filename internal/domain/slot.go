package domain

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotOff       SlotStatus = "off"
	SlotExpired   SlotStatus = "expired"
)

// Slot is derived, never persisted: materialized per doctor per date range
// from the weekly template minus exclusions.
type Slot struct {
	DoctorID  int64      `json:"doctor_id"`
	Date      string     `json:"date"`       // 2006-01-02
	StartTime string     `json:"start_time"` // 15:04
	Duration  int        `json:"duration_minutes"`
	Status    SlotStatus `json:"status"`
}
