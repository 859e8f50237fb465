package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"clinicbook/internal/config"
	"clinicbook/internal/database"
	"clinicbook/internal/events"
	"clinicbook/internal/middleware"
	"clinicbook/internal/modules/availability"
	"clinicbook/internal/modules/booking"
	"clinicbook/internal/modules/payment"
	"clinicbook/internal/modules/schedule"
	jwtsvc "clinicbook/internal/pkg/jwt"
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
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	appointmentRepo := repository.NewAppointmentRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	hub := events.NewHub()
	bus := events.NewBus(hub)
	wsHandler := events.NewWSHandler(hub, j)

	availabilityService := availability.NewService(availabilityRepo, overrideRepo, doctorRepo)
	availabilityHandler := availability.NewHandler(availabilityService)

	scheduleService := schedule.NewService(
		availabilityRepo,
		overrideRepo,
		appointmentRepo,
		cfg.SlotMinutes,
		cfg.Location,
	)
	scheduleHandler := schedule.NewHandler(scheduleService)

	gateways := []payment.Gateway{
		payment.NewMomoGateway(),
		payment.NewVNPayGateway(),
	}
	paymentService := payment.NewService(paymentRepo, appointmentRepo, gateways, bus, cfg.PaymentCallbackURL)
	paymentHandler := payment.NewHandler(paymentService)

	bookingService := booking.NewService(
		appointmentRepo,
		doctorRepo,
		scheduleService,
		paymentRepo,
		paymentService,
		paymentService,
		bus,
	)
	bookingHandler := booking.NewHandler(bookingService)

	sweeper := payment.NewSweeper(paymentService, bookingService, cfg.SweepInterval)
	stopSweep := sweeper.Start(context.Background())
	defer close(stopSweep)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		// public: provider callbacks and event stream
		paymentHandler.RegisterCallbackRoutes(v1)
		wsHandler.RegisterRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			staff := middleware.StaffOnly()
			availabilityHandler.RegisterRoutes(protected, staff)
			scheduleHandler.RegisterRoutes(protected)
			bookingHandler.RegisterRoutes(protected, staff)
			paymentHandler.RegisterRoutes(protected, staff)
		}
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
