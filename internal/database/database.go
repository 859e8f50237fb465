package database

import (
	"log"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	// Registers the cgo-free "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"clinicbook/internal/domain"
)

func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	dsn = strings.TrimPrefix(dsn, "sqlite://")
	log.Println("Using SQLite for local development:", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{},
	)
}

// Migrate creates the schema and the partial unique index behind the
// at-most-one-claim guarantee. Cancelled rows are excluded so a freed slot
// can be claimed again.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Doctor{},
		&domain.WeeklyAvailability{},
		&domain.SlotOverride{},
		&domain.Appointment{},
		&domain.Payment{},
		&domain.Refund{},
	); err != nil {
		return err
	}

	if err := db.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_no_double_booking
ON appointments(doctor_id, date, start_time)
WHERE status <> 'cancelled'
`).Error; err != nil {
		return err
	}

	// CASH attempts carry no provider ref, so uniqueness only applies to
	// rows that have one.
	return db.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_provider_ref
ON payments(provider_ref)
WHERE provider_ref <> ''
`).Error
}
