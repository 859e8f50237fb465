package domain

import "time"

type AppointmentStatus string

const (
	AppointmentPending    AppointmentStatus = "pending"
	AppointmentConfirmed  AppointmentStatus = "confirmed"
	AppointmentCheckedIn  AppointmentStatus = "checked_in"
	AppointmentInProgress AppointmentStatus = "in_progress"
	AppointmentCompleted  AppointmentStatus = "completed"
	AppointmentCancelled  AppointmentStatus = "cancelled"
	AppointmentNoShow     AppointmentStatus = "no_show"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// appointmentTransitions is the full one-directional status machine.
// No transition ever returns an appointment to an earlier state.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentPending:    {AppointmentConfirmed, AppointmentCancelled},
	AppointmentConfirmed:  {AppointmentCheckedIn, AppointmentCancelled, AppointmentNoShow},
	AppointmentCheckedIn:  {AppointmentInProgress, AppointmentCancelled},
	AppointmentInProgress: {AppointmentCompleted},
	AppointmentCompleted:  {},
	AppointmentCancelled:  {},
	AppointmentNoShow:     {},
}

// CanTransition reports whether the status machine allows from -> to.
func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range appointmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status transition is possible.
func (s AppointmentStatus) IsTerminal() bool {
	return len(appointmentTransitions[s]) == 0
}

type Appointment struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	DoctorID  int64  `json:"doctor_id" gorm:"index;not null"`
	PatientID int64  `json:"patient_id" gorm:"index;not null"`
	Date      string `json:"date" gorm:"type:varchar(10);not null"`       // 2006-01-02
	StartTime string `json:"start_time" gorm:"type:varchar(5);not null"`  // 15:04
	Duration  int    `json:"duration_minutes" gorm:"not null"`            // minutes

	Status        AppointmentStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentStatus PaymentStatus     `json:"payment_status" gorm:"type:varchar(10);not null;default:'UNPAID'"`

	ConsultationFee float64 `json:"consultation_fee"`
	Notes           string  `json:"notes,omitempty" gorm:"type:text"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CancellationReason string `json:"cancellation_reason,omitempty" gorm:"type:text"`

	Doctor  *Doctor `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`
	Patient *User   `json:"patient,omitempty" gorm:"foreignKey:PatientID"`
}

func (Appointment) TableName() string { return "appointments" }

// IsActive reports whether the appointment still holds its slot.
// Only cancellation releases the (doctor, date, time) claim.
func (a *Appointment) IsActive() bool {
	return a.Status != AppointmentCancelled
}

// StartAt resolves the appointment's wall-clock start in loc.
func (a *Appointment) StartAt(loc *time.Location) (time.Time, error) {
	return ParseDateTime(a.Date, a.StartTime, loc)
}
