package services

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/utils"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

// setupTestDB opens a private in-memory SQLite database. One connection keeps
// the schema alive and serialises writers the way a row lock would.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

// setupFileDB opens a connection pool on a shared SQLite file, standing in for
// a second process pointed at the same database.
func setupFileDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedRestaurant(t *testing.T, db *gorm.DB, capacity int) *models.Restaurant {
	t.Helper()
	restaurant := &models.Restaurant{
		Name:                   "Carmelitas",
		Slug:                   "carmelitas",
		Phone:                  "(555) 010-2000",
		TimeSlots:              datatypes.JSONSlice[string]{"5:00 PM", "6:00 PM", "7:30 PM"},
		MaxPartySize:           10,
		MaxReservationsPerSlot: capacity,
	}
	require.NoError(t, db.Create(restaurant).Error)
	return restaurant
}

var seeded int

// seedConfirmed inserts n confirmed reservations directly and returns their codes.
func seedConfirmed(t *testing.T, db *gorm.DB, restaurantID uint, date, slot string, n int) []string {
	t.Helper()
	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		seeded++
		r := &models.Reservation{
			Code:         codeFor(seeded),
			RestaurantID: restaurantID,
			GuestName:    "Seed Guest",
			GuestEmail:   "seed@example.com",
			Date:         date,
			TimeSlot:     slot,
			PartySize:    2,
			Status:       models.ReservationConfirmed,
			Source:       models.SourceGuest,
		}
		require.NoError(t, db.Create(r).Error)
		codes = append(codes, r.Code)
	}
	return codes
}

func codeFor(i int) string {
	return string([]byte{'S', 'E', 'E', 'D', codeAlphabet[i/36%36], codeAlphabet[i%36]})
}
