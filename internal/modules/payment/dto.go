package payment

import (
	"time"

	"clinicbook/internal/domain"
)

type CreatePaymentRequest struct {
	AppointmentID int64                `json:"appointment_id" binding:"required"`
	Method        domain.PaymentMethod `json:"method" binding:"required"`
}

type CreatePaymentResponse struct {
	PaymentID   int64               `json:"payment_id"`
	Status      domain.PaymentState `json:"status"`
	RedirectURL string              `json:"redirect_url,omitempty"`
	ExpiresAt   *time.Time          `json:"expires_at,omitempty"`
}

type PaymentStatusResponse struct {
	PaymentID int64                `json:"payment_id"`
	Method    domain.PaymentMethod `json:"method"`
	Status    domain.PaymentState  `json:"status"`
	ExpiresAt *time.Time           `json:"expires_at,omitempty"`
	PaidAt    *time.Time           `json:"paid_at,omitempty"`
}

// CallbackRequest is the asynchronous provider result. It is untrusted
// external input: anything malformed is logged and dropped.
type CallbackRequest struct {
	ProviderRef string  `json:"provider_ref" form:"provider_ref" binding:"required"`
	Result      string  `json:"result" form:"result" binding:"required"` // success|fail
	Amount      float64 `json:"amount" form:"amount"`
	Signature   string  `json:"signature" form:"signature"`
}
