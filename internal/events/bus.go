package events

import (
	"context"
	"log"
	"time"

	"clinicbook/internal/domain"
)

// Bus is the in-process Sink implementation: it logs each event and pushes it
// to websocket subscribers through the hub.
type Bus struct {
	hub *Hub
}

func NewBus(hub *Hub) *Bus {
	return &Bus{hub: hub}
}

func (b *Bus) publish(t Type, data map[string]interface{}) {
	ev := &Event{Type: t, At: time.Now().UTC(), Data: data}
	log.Printf("event type=%s data=%+v", t, data)
	if b.hub != nil {
		b.hub.Broadcast(ev)
	}
}

func (b *Bus) AppointmentBooked(_ context.Context, a *domain.Appointment) error {
	b.publish(TypeAppointmentBooked, map[string]interface{}{
		"appointment_id": a.ID,
		"doctor_id":      a.DoctorID,
		"patient_id":     a.PatientID,
		"date":           a.Date,
		"start_time":     a.StartTime,
		"status":         a.Status,
	})
	return nil
}

func (b *Bus) AppointmentCancelled(_ context.Context, a *domain.Appointment, reason string) error {
	b.publish(TypeAppointmentCancelled, map[string]interface{}{
		"appointment_id": a.ID,
		"doctor_id":      a.DoctorID,
		"patient_id":     a.PatientID,
		"date":           a.Date,
		"start_time":     a.StartTime,
		"reason":         reason,
	})
	return nil
}

func (b *Bus) PaymentCompleted(_ context.Context, p *domain.Payment) error {
	b.publish(TypePaymentCompleted, map[string]interface{}{
		"payment_id":     p.ID,
		"appointment_id": p.AppointmentID,
		"amount":         p.Amount,
		"method":         p.Method,
	})
	return nil
}
