package booking

import "clinicbook/internal/domain"

// GateDecision is a policy answer, not an exception: refusals always carry a
// machine-readable reason code.
type GateDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

const (
	ReasonOK               = "ok"
	ReasonAlreadyCheckedIn = "already_checked_in"
	ReasonInProgress       = "in_progress"
	ReasonCompleted        = "completed"
	ReasonCancelled        = "cancelled"
	ReasonNoShow           = "no_show"
)

// GatePolicy decides whether an appointment may be checked in. It is a
// replaceable business rule, deliberately kept out of the status machine
// itself so a clinic can swap it without touching ledger invariants.
type GatePolicy interface {
	Evaluate(a *domain.Appointment) GateDecision
}

// DeferredPaymentGate is the default policy: payment status never blocks
// check-in (payment may be settled after the consultation); only appointments
// that have already moved past arrival are refused.
type DeferredPaymentGate struct{}

func (DeferredPaymentGate) Evaluate(a *domain.Appointment) GateDecision {
	switch a.Status {
	case domain.AppointmentCheckedIn:
		return GateDecision{Allowed: false, Reason: ReasonAlreadyCheckedIn}
	case domain.AppointmentInProgress:
		return GateDecision{Allowed: false, Reason: ReasonInProgress}
	case domain.AppointmentCompleted:
		return GateDecision{Allowed: false, Reason: ReasonCompleted}
	case domain.AppointmentCancelled:
		return GateDecision{Allowed: false, Reason: ReasonCancelled}
	case domain.AppointmentNoShow:
		return GateDecision{Allowed: false, Reason: ReasonNoShow}
	}
	return GateDecision{Allowed: true, Reason: ReasonOK}
}
