package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clinicbook/internal/domain"
)

func TestDeferredPaymentGate(t *testing.T) {
	gate := DeferredPaymentGate{}

	cases := []struct {
		status  domain.AppointmentStatus
		allowed bool
		reason  string
	}{
		{domain.AppointmentPending, true, ReasonOK},
		{domain.AppointmentConfirmed, true, ReasonOK},
		{domain.AppointmentCheckedIn, false, ReasonAlreadyCheckedIn},
		{domain.AppointmentInProgress, false, ReasonInProgress},
		{domain.AppointmentCompleted, false, ReasonCompleted},
		{domain.AppointmentCancelled, false, ReasonCancelled},
		{domain.AppointmentNoShow, false, ReasonNoShow},
	}

	for _, tc := range cases {
		d := gate.Evaluate(&domain.Appointment{Status: tc.status})
		assert.Equal(t, tc.allowed, d.Allowed, "status %s", tc.status)
		assert.Equal(t, tc.reason, d.Reason, "status %s", tc.status)
	}
}

// Unpaid appointments still pass the default gate.
func TestDeferredPaymentGate_UnpaidAllowed(t *testing.T) {
	gate := DeferredPaymentGate{}

	d := gate.Evaluate(&domain.Appointment{
		Status:        domain.AppointmentConfirmed,
		PaymentStatus: domain.PaymentUnpaid,
	})

	assert.True(t, d.Allowed)
	assert.Equal(t, ReasonOK, d.Reason)
}
