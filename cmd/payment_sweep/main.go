// One-shot expiry pass for cron-style deployments. The API binary runs the
// same pass on a ticker; this exists for setups that prefer external
// scheduling.
package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"clinicbook/internal/config"
	"clinicbook/internal/database"
	"clinicbook/internal/events"
	"clinicbook/internal/modules/booking"
	"clinicbook/internal/modules/payment"
	"clinicbook/internal/modules/schedule"
	"clinicbook/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	appointmentRepo := repository.NewAppointmentRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	bus := events.NewBus(events.NewHub())

	scheduleService := schedule.NewService(availabilityRepo, overrideRepo, appointmentRepo, cfg.SlotMinutes, cfg.Location)
	paymentService := payment.NewService(paymentRepo, appointmentRepo, nil, bus, cfg.PaymentCallbackURL)
	bookingService := booking.NewService(appointmentRepo, doctorRepo, scheduleService, paymentRepo, paymentService, paymentService, bus)

	sweeper := payment.NewSweeper(paymentService, bookingService, cfg.SweepInterval)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := sweeper.RunOnce(ctx); err != nil {
		log.Fatalf("payment sweep failed: %v", err)
	}

	log.Println("payment sweep completed")
}
