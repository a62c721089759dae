package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tablereserve/reservation-app/models"
)

type recordingNotifier struct {
	mu    sync.Mutex
	codes []string
}

func (n *recordingNotifier) NotifyConfirmation(r *models.Reservation, restaurant *models.Restaurant) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes = append(n.codes, r.Code)
}

func guestRequest(restaurantID uint, party int) BookingRequest {
	return BookingRequest{
		RestaurantID: restaurantID,
		GuestName:    "Ada Lovelace",
		GuestEmail:   "ada@example.com",
		GuestPhone:   "555-010-3000",
		Date:         "2025-01-01",
		TimeSlot:     "6:00 PM",
		PartySize:    party,
	}
}

var dayBefore = time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC)

func TestCreateReservationRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, 10)
	notifier := &recordingNotifier{}
	svc := NewBookingService(db, notifier, time.UTC)

	req := guestRequest(restaurant.ID, 4)
	req.Notes = "  window seat  "
	created, err := svc.CreateReservation(context.Background(), req, dayBefore)
	require.NoError(t, err)
	require.Len(t, created.Code, CodeLength)

	var stored models.Reservation
	require.NoError(t, db.Where("code = ?", created.Code).First(&stored).Error)
	assert.Equal(t, created.ID, stored.ID)
	assert.Equal(t, "Ada Lovelace", stored.GuestName)
	assert.Equal(t, "2025-01-01", stored.Date)
	assert.Equal(t, "6:00 PM", stored.TimeSlot)
	assert.Equal(t, 4, stored.PartySize)
	assert.Equal(t, models.ReservationConfirmed, stored.Status)
	assert.Equal(t, models.SourceGuest, stored.Source)
	require.NotNil(t, stored.Notes)
	assert.Equal(t, "window seat", *stored.Notes)
	assert.Nil(t, stored.CreatedBy)

	assert.Equal(t, []string{created.Code}, notifier.codes)
}

func TestCreateReservationRequiresContact(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, 10)
	svc := NewBookingService(db, nil, time.UTC)

	req := guestRequest(restaurant.ID, 2)
	req.GuestEmail = " "
	_, err := svc.CreateReservation(context.Background(), req, dayBefore)

	assert.Equal(t, ErrContactRequired, err)
}

func TestCreateReservationRejectsFullSlot(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, 2)
	seedConfirmed(t, db, restaurant.ID, "2025-01-01", "6:00 PM", 2)
	notifier := &recordingNotifier{}
	svc := NewBookingService(db, notifier, time.UTC)

	_, err := svc.CreateReservation(context.Background(), guestRequest(restaurant.ID, 1), dayBefore)

	assert.Equal(t, ErrSlotFullyBooked, err)
	var count int64
	db.Model(&models.Reservation{}).Count(&count)
	assert.Equal(t, int64(2), count)
	assert.Empty(t, notifier.codes)
}

func TestCreateReservationFullSlotWinsOverPartyLimit(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, 1)
	seedConfirmed(t, db, restaurant.ID, "2025-01-01", "6:00 PM", 1)
	svc := NewBookingService(db, nil, time.UTC)

	_, err := svc.CreateReservation(context.Background(), guestRequest(restaurant.ID, 12), dayBefore)
	assert.Equal(t, ErrSlotFullyBooked, err)

	req := guestRequest(restaurant.ID, 12)
	req.TimeSlot = "7:30 PM"
	_, err = svc.CreateReservation(context.Background(), req, dayBefore)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "cannot exceed 10")
}

func TestCreateReservationRejectsSameDayWithinNotice(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, 10)
	svc := NewBookingService(db, nil, time.UTC)

	now := time.Date(2025, 1, 1, 17, 30, 0, 0, time.UTC)
	_, err := svc.CreateReservation(context.Background(), guestRequest(restaurant.ID, 2), now)

	assert.Equal(t, ErrTooLateToBook, err)
}

func TestConcurrentBookingsForLastSeat(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, 1)
	svc := NewBookingService(db, nil, time.UTC)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, party := range []int{2, 4} {
		wg.Add(1)
		go func(i, party int) {
			defer wg.Done()
			_, errs[i] = svc.CreateReservation(context.Background(), guestRequest(restaurant.ID, party), dayBefore)
		}(i, party)
	}
	wg.Wait()

	succeeded, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrSlotFullyBooked):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	var count int64
	db.Model(&models.Reservation{}).
		Where("restaurant_id = ? AND date = ? AND time_slot = ? AND status = ?", restaurant.ID, "2025-01-01", "6:00 PM", models.ReservationConfirmed).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

// Two services share nothing in process, so only the slot lock row inside the
// transaction keeps them from both taking the last seat.
func TestSeparateServicesShareLastSeat(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "bookings.db") + "?_busy_timeout=5000&_txlock=immediate"
	first := setupFileDB(t, dsn)
	second := setupFileDB(t, dsn)
	restaurant := seedRestaurant(t, first, 1)

	svcs := []*BookingService{
		NewBookingService(first, nil, time.UTC),
		NewBookingService(second, nil, time.UTC),
	}

	for round := 0; round < 10; round++ {
		date := time.Date(2025, 2, 1+round, 0, 0, 0, 0, time.UTC).Format(models.DateLayout)

		var wg sync.WaitGroup
		start := make(chan struct{})
		errs := make([]error, len(svcs))
		for i, svc := range svcs {
			wg.Add(1)
			go func(i int, svc *BookingService) {
				defer wg.Done()
				req := guestRequest(restaurant.ID, 2)
				req.Date = date
				<-start
				_, errs[i] = svc.CreateReservation(context.Background(), req, dayBefore)
			}(i, svc)
		}
		close(start)
		wg.Wait()

		succeeded, rejected := 0, 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrSlotFullyBooked):
				rejected++
			default:
				t.Fatalf("round %d: unexpected error: %v", round, err)
			}
		}
		assert.Equal(t, 1, succeeded, "round %d", round)
		assert.Equal(t, 1, rejected, "round %d", round)

		var count int64
		require.NoError(t, first.Model(&models.Reservation{}).
			Where("restaurant_id = ? AND date = ? AND status = ?", restaurant.ID, date, models.ReservationConfirmed).
			Count(&count).Error)
		assert.Equal(t, int64(1), count, "round %d", round)
	}
}

func TestOverrideBooksFullSlot(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, 1)
	seedConfirmed(t, db, restaurant.ID, "2025-01-01", "6:00 PM", 1)
	notifier := &recordingNotifier{}
	svc := NewBookingService(db, notifier, time.UTC)

	admin := Actor{UserID: 7, Role: models.RoleAdmin, RestaurantID: &restaurant.ID}
	req := guestRequest(restaurant.ID, 6)
	req.Notes = "anniversary"
	created, err := svc.CreateOverrideReservation(context.Background(), admin, req, "VIP regular")
	require.NoError(t, err)

	assert.Equal(t, models.SourceOverride, created.Source)
	require.NotNil(t, created.CreatedBy)
	assert.Equal(t, uint(7), *created.CreatedBy)
	require.NotNil(t, created.Notes)
	assert.True(t, strings.HasPrefix(*created.Notes, "[admin override] by admin #7: VIP regular"))
	assert.Contains(t, *created.Notes, "anniversary")
	assert.Equal(t, []string{created.Code}, notifier.codes)

	var count int64
	db.Model(&models.Reservation{}).Where("status = ?", models.ReservationConfirmed).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestOverrideSkipsAdvanceNotice(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, 10)
	svc := NewBookingService(db, nil, time.UTC)

	admin := Actor{UserID: 1, Role: models.RoleSuperAdmin}
	req := guestRequest(restaurant.ID, 2)
	req.TimeSlot = "5:00 PM"
	_, err := svc.CreateOverrideReservation(context.Background(), admin, req, "")
	assert.NoError(t, err)
}

func TestOverrideRequiresAdminOfRestaurant(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, 10)
	svc := NewBookingService(db, nil, time.UTC)
	other := restaurant.ID + 1

	_, err := svc.CreateOverrideReservation(context.Background(), Actor{UserID: 3, Role: models.RoleCustomer}, guestRequest(restaurant.ID, 2), "")
	assert.Equal(t, ErrOverrideForbidden, err)

	_, err = svc.CreateOverrideReservation(context.Background(), Actor{UserID: 4, Role: models.RoleAdmin, RestaurantID: &other}, guestRequest(restaurant.ID, 2), "")
	assert.Equal(t, ErrOverrideForbidden, err)
}

func TestOverrideStillValidatesRecord(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, 10)
	svc := NewBookingService(db, nil, time.UTC)
	admin := Actor{UserID: 1, Role: models.RoleSuperAdmin}

	req := guestRequest(restaurant.ID, 0)
	_, err := svc.CreateOverrideReservation(context.Background(), admin, req, "")
	assert.True(t, IsValidationError(err))

	req = guestRequest(restaurant.ID, 2)
	req.Date = ""
	_, err = svc.CreateOverrideReservation(context.Background(), admin, req, "")
	assert.Equal(t, ErrDateAndSlotRequired, err)
}

func TestCreateReservationDuplicateCodeIsRetryablePersistenceError(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, 10)
	svc := NewBookingService(db, nil, time.UTC).
		WithCodeGenerator(&CodeGenerator{lookup: GormCodeLookup{DB: db}, intn: func(int) int { return 0 }})

	_, err := svc.CreateReservation(context.Background(), guestRequest(restaurant.ID, 2), dayBefore)
	require.NoError(t, err)

	_, err = svc.CreateReservation(context.Background(), guestRequest(restaurant.ID, 2), dayBefore)
	require.Error(t, err)

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.True(t, perr.Retryable)
	assert.True(t, errors.Is(err, ErrCodeCollision))
}

func TestCreateReservationStorageFailure(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, 10)
	svc := NewBookingService(db, nil, time.UTC)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.CreateReservation(context.Background(), guestRequest(restaurant.ID, 2), dayBefore)
	assert.True(t, IsPersistenceError(err))
	assert.False(t, IsValidationError(err))
	assert.False(t, IsCapacityError(err))
}

func TestAvailability(t *testing.T) {
	db := setupTestDB(t)
	restaurant := seedRestaurant(t, db, 2)
	seedConfirmed(t, db, restaurant.ID, "2025-01-01", "7:30 PM", 2)
	seedConfirmed(t, db, restaurant.ID, "2025-01-01", "6:00 PM", 1)
	svc := NewBookingService(db, nil, time.UTC)

	now := time.Date(2025, 1, 1, 16, 30, 0, 0, time.UTC)
	slots, err := svc.Availability(context.Background(), restaurant, "2025-01-01", 2, now)
	require.NoError(t, err)
	require.Len(t, slots, 3)

	assert.Equal(t, "5:00 PM", slots[0].TimeSlot)
	assert.False(t, slots[0].Bookable)
	assert.Equal(t, ErrTooLateToBook.Error(), slots[0].Reason)

	assert.True(t, slots[1].Bookable)
	assert.Equal(t, int64(1), slots[1].Remaining)

	assert.False(t, slots[2].Bookable)
	assert.Equal(t, int64(0), slots[2].Remaining)
	assert.Equal(t, ErrSlotFullyBooked.Error(), slots[2].Reason)

	_, err = svc.Availability(context.Background(), restaurant, "tomorrow", 2, now)
	assert.True(t, IsValidationError(err))
}

func TestActorCanManage(t *testing.T) {
	one := uint(1)
	assert.True(t, Actor{Role: models.RoleSuperAdmin}.CanManage(5))
	assert.True(t, Actor{Role: models.RoleAdmin, RestaurantID: &one}.CanManage(1))
	assert.False(t, Actor{Role: models.RoleAdmin, RestaurantID: &one}.CanManage(2))
	assert.False(t, Actor{Role: models.RoleCustomer}.CanManage(1))
}
