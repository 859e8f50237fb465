package domain

import "time"

// Doctor carries the scheduling-relevant policy knobs; profile data lives
// elsewhere.
type Doctor struct {
	ID              int64   `json:"id" gorm:"primaryKey"`
	Name            string  `json:"name" gorm:"type:varchar(255);not null"`
	Specialty       string  `json:"specialty,omitempty" gorm:"type:varchar(255)"`
	ConsultationFee float64 `json:"consultation_fee" gorm:"not null;default:0"`

	// AutoConfirm makes freshly claimed appointments start at confirmed
	// instead of pending.
	AutoConfirm bool `json:"auto_confirm" gorm:"not null;default:false"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Doctor) TableName() string { return "doctors" }
