package database

import (
	"fmt"

	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/utils"
	"gorm.io/gorm"
)

type checkConstraint struct {
	name  string
	model interface{}
	table string
	check string
}

var checkConstraints = []checkConstraint{
	{"chk_reservations_party_size", &models.Reservation{}, "reservations", "party_size > 0"},
	{"chk_reservations_status", &models.Reservation{}, "reservations", "status IN ('confirmed', 'cancelled', 'completed', 'no_show')"},
	{"chk_reservations_source", &models.Reservation{}, "reservations", "source IN ('guest', 'override')"},
	{"chk_restaurants_limits", &models.Restaurant{}, "restaurants", "max_party_size >= 0 AND max_reservations_per_slot >= 0"},
}

// confirmedSlotIndex backs the per-slot capacity count. MySQL has no partial
// indexes and relies on idx_reservation_slot instead.
const confirmedSlotIndex = `CREATE INDEX IF NOT EXISTS idx_reservations_confirmed_slot
	ON reservations (restaurant_id, date, time_slot) WHERE status = 'confirmed'`

// Migrate runs AutoMigrate and then the dialect specific constraints.
// Constraint failures are logged and skipped.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	ApplyConstraints(db)
	return nil
}

func ApplyConstraints(db *gorm.DB) {
	dialect := db.Dialector.Name()

	if dialect == "postgres" || dialect == "mysql" {
		for _, c := range checkConstraints {
			if db.Migrator().HasConstraint(c.model, c.name) {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)", c.table, c.name, c.check)
			if err := db.Exec(stmt).Error; err != nil {
				utils.ErrorLogger.Printf("Error adding constraint %s: %v", c.name, err)
				continue
			}
			utils.InfoLogger.Printf("Constraint %s added on %s", c.name, c.table)
		}
	}

	if dialect == "postgres" || dialect == "sqlite" {
		if err := db.Exec(confirmedSlotIndex).Error; err != nil {
			utils.ErrorLogger.Printf("Error creating confirmed slot index: %v", err)
		} else if db.Migrator().HasIndex(&models.Reservation{}, "idx_reservations_confirmed_slot") {
			utils.InfoLogger.Printf("Index verified: idx_reservations_confirmed_slot")
		}
	}
}
