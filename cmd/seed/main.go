package main

import (
	"log"
	"os"
	"time"

	"clinicbook/internal/database"
	"clinicbook/internal/domain"
)

// Seeds a local database with a handful of doctors, users and weekly
// templates so the API is usable right after startup.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "sqlite://clinicbook.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM refunds")
	db.Exec("DELETE FROM payments")
	db.Exec("DELETE FROM appointments")
	db.Exec("DELETE FROM slot_overrides")
	db.Exec("DELETE FROM weekly_availabilities")
	db.Exec("DELETE FROM doctors")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")
	users := []domain.User{
		{Email: "admin@clinicbook.vn", Role: domain.RoleAdmin, Name: "Clinic Admin"},
		{Email: "front-desk@clinicbook.vn", Role: domain.RoleReceptionist, Name: "Front Desk"},
		{Email: "an.nguyen@example.com", Role: domain.RolePatient, Name: "Nguyen Van An", Phone: "+84901234567"},
		{Email: "binh.tran@example.com", Role: domain.RolePatient, Name: "Tran Thi Binh", Phone: "+84907654321"},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			log.Fatal("user seed failed:", err)
		}
	}

	log.Println("Creating doctors...")
	doctors := []domain.Doctor{
		{Name: "Dr. Le Minh Hoang", Specialty: "Cardiology", ConsultationFee: 300000, AutoConfirm: true},
		{Name: "Dr. Pham Thu Ha", Specialty: "Dermatology", ConsultationFee: 250000, AutoConfirm: false},
		{Name: "Dr. Vo Quang Dung", Specialty: "General Medicine", ConsultationFee: 200000, AutoConfirm: true},
	}
	for i := range doctors {
		if err := db.Create(&doctors[i]).Error; err != nil {
			log.Fatal("doctor seed failed:", err)
		}
	}

	log.Println("Creating weekly templates...")
	weekdays := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	for _, d := range doctors {
		for _, wd := range weekdays {
			entry := domain.WeeklyAvailability{
				DoctorID:  d.ID,
				DayOfWeek: wd,
				StartTime: "08:00",
				EndTime:   "16:30",
			}
			if err := db.Create(&entry).Error; err != nil {
				log.Fatal("template seed failed:", err)
			}
		}
	}
	// Saturday mornings for general medicine only.
	sat := domain.WeeklyAvailability{
		DoctorID:  doctors[2].ID,
		DayOfWeek: time.Saturday,
		StartTime: "08:00",
		EndTime:   "11:30",
	}
	if err := db.Create(&sat).Error; err != nil {
		log.Fatal("template seed failed:", err)
	}

	log.Printf("Seed completed: %d users, %d doctors", len(users), len(doctors))
}
