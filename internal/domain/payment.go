package domain

import "time"

type PaymentState string

const (
	PaymentStatePending   PaymentState = "PENDING"
	PaymentStateCompleted PaymentState = "COMPLETED"
	PaymentStateFailed    PaymentState = "FAILED"
	PaymentStateCancelled PaymentState = "CANCELLED"
)

// IsTerminal reports whether the payment attempt can no longer change state.
func (s PaymentState) IsTerminal() bool {
	return s != PaymentStatePending
}

type PaymentMethod string

const (
	MethodCash  PaymentMethod = "CASH"
	MethodMomo  PaymentMethod = "MOMO"
	MethodVNPay PaymentMethod = "VNPAY"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodMomo, MethodVNPay:
		return true
	}
	return false
}

// Payment is a single payment attempt. An appointment may accumulate several
// attempts but at most one non-terminal one at a time.
type Payment struct {
	ID            int64         `json:"id" gorm:"primaryKey"`
	AppointmentID int64         `json:"appointment_id" gorm:"index;not null"`
	Amount        float64       `json:"amount" gorm:"not null"`
	Method        PaymentMethod `json:"method" gorm:"type:varchar(10);not null"`
	Status        PaymentState  `json:"status" gorm:"type:varchar(10);not null;default:'PENDING';index"`

	// ProviderRef identifies this attempt to the external gateway and in its
	// callbacks. Empty for CASH; uniqueness of non-empty refs is enforced by a
	// partial index created in database.Migrate.
	ProviderRef string `json:"provider_ref,omitempty" gorm:"type:varchar(64);index"`
	RedirectURL string `json:"redirect_url,omitempty" gorm:"type:text"`

	ExpiresAt *time.Time `json:"expires_at,omitempty"` // nil for CASH
	PaidAt    *time.Time `json:"paid_at,omitempty"`

	FailureReason   string `json:"failure_reason,omitempty" gorm:"type:text"`
	CallbackRawBody string `json:"-" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// Expired reports lazy expiry: a PENDING attempt past its deadline.
func (p *Payment) Expired(now time.Time) bool {
	return p.Status == PaymentStatePending && p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

type RefundStatus string

const (
	RefundPending RefundStatus = "pending"
	RefundSettled RefundStatus = "settled"
	RefundFailed  RefundStatus = "failed"
)

// Refund is tracked separately from the completed payment it reverses;
// the payment row itself is never mutated back out of COMPLETED.
type Refund struct {
	ID        int64        `json:"id" gorm:"primaryKey"`
	PaymentID int64        `json:"payment_id" gorm:"index;not null"`
	Amount    float64      `json:"amount" gorm:"not null"`
	Status    RefundStatus `json:"status" gorm:"type:varchar(10);not null;default:'pending';index"`
	Reason    string       `json:"reason,omitempty" gorm:"type:text"`
	CreatedAt time.Time    `json:"created_at"`
	SettledAt *time.Time   `json:"settled_at,omitempty"`
}

func (Refund) TableName() string { return "refunds" }
