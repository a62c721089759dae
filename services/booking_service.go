package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrRestaurantNotFound = &ValidationError{Message: "restaurant not found"}
	ErrContactRequired    = &ValidationError{Message: "guest name and email required"}

	// ErrOverrideForbidden is returned when a non-admin, or an admin scoped to
	// another restaurant, attempts an override booking.
	ErrOverrideForbidden = errors.New("override bookings require an admin of this restaurant")
)

const overrideNotePrefix = "[admin override]"

// BookingRequest is the full guest booking payload.
type BookingRequest struct {
	RestaurantID uint
	UserID       *uint
	GuestName    string
	GuestEmail   string
	GuestPhone   string
	Date         string
	TimeSlot     string
	PartySize    int
	Notes        string
}

// Actor is the authenticated caller, threaded in by the HTTP layer.
type Actor struct {
	UserID       uint
	Role         string
	RestaurantID *uint
}

// CanManage reports whether the actor administers restaurantID.
func (a Actor) CanManage(restaurantID uint) bool {
	if !models.IsAdminRole(a.Role) {
		return false
	}
	return a.RestaurantID == nil || *a.RestaurantID == restaurantID
}

// ConfirmationNotifier sends booking confirmations without blocking the caller.
type ConfirmationNotifier interface {
	NotifyConfirmation(reservation *models.Reservation, restaurant *models.Restaurant)
}

type BookingService struct {
	db       *gorm.DB
	codes    *CodeGenerator
	checker  EligibilityChecker
	notifier ConfirmationNotifier
	slots    *slotMutex
	loc      *time.Location
}

func NewBookingService(db *gorm.DB, notifier ConfirmationNotifier, loc *time.Location) *BookingService {
	if loc == nil {
		loc = time.Local
	}
	return &BookingService{
		db:       db,
		codes:    NewCodeGenerator(GormCodeLookup{DB: db}),
		notifier: notifier,
		slots:    newSlotMutex(),
		loc:      loc,
	}
}

// WithCodeGenerator swaps the code source.
func (s *BookingService) WithCodeGenerator(g *CodeGenerator) *BookingService {
	s.codes = g
	return s
}

// Location is the zone in which "today" is evaluated.
func (s *BookingService) Location() *time.Location {
	return s.loc
}

func (s *BookingService) GenerateUniqueCode(ctx context.Context) string {
	return s.codes.Generate(ctx)
}

// CheckEligibility is read-only: calling it twice without writes in between
// gives the same answer. A nil error means the slot can be booked.
func (s *BookingService) CheckEligibility(ctx context.Context, restaurantID uint, date, timeSlot string, partySize int, now time.Time) error {
	restaurant, err := s.findRestaurant(ctx, restaurantID)
	if err != nil {
		return err
	}
	return s.checker.Check(ctx, s.db, restaurant, date, timeSlot, partySize, now.In(s.loc))
}

// Availability lists each configured slot of restaurant on date.
func (s *BookingService) Availability(ctx context.Context, restaurant *models.Restaurant, date string, partySize int, now time.Time) ([]SlotAvailability, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, &ValidationError{Message: "invalid date, expected YYYY-MM-DD"}
	}
	if partySize < 1 {
		partySize = 1
	}
	now = now.In(s.loc)

	slots := make([]SlotAvailability, 0, len(restaurant.TimeSlots))
	for _, label := range restaurant.TimeSlots {
		count, err := countConfirmed(ctx, s.db, models.SlotKey{RestaurantID: restaurant.ID, Date: date, TimeSlot: label})
		if err != nil {
			return nil, &PersistenceError{Err: err}
		}
		remaining := int64(restaurant.SlotCapacity()) - count
		if remaining < 0 {
			remaining = 0
		}
		item := SlotAvailability{TimeSlot: label, Confirmed: count, Remaining: remaining, Bookable: true}
		if err := s.checker.Check(ctx, s.db, restaurant, date, label, partySize, now); err != nil {
			item.Bookable = false
			item.Reason = err.Error()
		}
		slots = append(slots, item)
	}
	return slots, nil
}

// CreateReservation books a slot for a guest. Capacity is counted and the
// record inserted inside one transaction holding the slot's lock row, so two
// requests for the last seat cannot both succeed.
func (s *BookingService) CreateReservation(ctx context.Context, req BookingRequest, now time.Time) (*models.Reservation, error) {
	restaurant, err := s.findRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}
	now = now.In(s.loc)

	req.normalize()
	if err := s.checker.validate(restaurant, req.Date, req.TimeSlot, req.PartySize); err != nil {
		return nil, err
	}
	if req.GuestName == "" || req.GuestEmail == "" {
		return nil, ErrContactRequired
	}
	if err := s.checker.checkAdvanceNotice(req.Date, req.TimeSlot, now); err != nil {
		return nil, err
	}

	reservation := req.toReservation(s.codes.Generate(ctx), models.SourceGuest)

	unlock := s.slots.Lock(reservation.Slot())
	defer unlock()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockSlot(tx, reservation.Slot()); err != nil {
			return &PersistenceError{Err: err}
		}
		if err := s.checker.checkCapacity(ctx, tx, restaurant, req.Date, req.TimeSlot); err != nil {
			return err
		}
		if err := s.checker.checkPartyLimit(restaurant, req.PartySize); err != nil {
			return err
		}
		if err := tx.Create(reservation).Error; err != nil {
			return persistenceError(err)
		}
		return nil
	})
	if err != nil {
		if IsPersistenceError(err) {
			utils.ErrorLogger.Printf("Reservation insert failed for restaurant %d (%s %s): %v",
				req.RestaurantID, req.Date, req.TimeSlot, err)
		}
		return nil, err
	}

	reservation.Restaurant = restaurant
	utils.InfoLogger.Printf("Reservation %s confirmed for restaurant %d on %s %s (party of %d)",
		reservation.Code, restaurant.ID, reservation.Date, reservation.TimeSlot, reservation.PartySize)
	s.dispatch(reservation, restaurant)
	return reservation, nil
}

// CreateOverrideReservation lets an admin book regardless of capacity or
// advance notice. The record is marked source=override with the admin id,
// and its notes carry the override marker.
func (s *BookingService) CreateOverrideReservation(ctx context.Context, admin Actor, req BookingRequest, reason string) (*models.Reservation, error) {
	if !admin.CanManage(req.RestaurantID) {
		return nil, ErrOverrideForbidden
	}
	restaurant, err := s.findRestaurant(ctx, req.RestaurantID)
	if err != nil {
		return nil, err
	}

	req.normalize()
	if req.Date == "" || req.TimeSlot == "" {
		return nil, ErrDateAndSlotRequired
	}
	if _, err := ParseDate(req.Date); err != nil {
		return nil, &ValidationError{Message: "invalid date, expected YYYY-MM-DD"}
	}
	if req.GuestName == "" || req.GuestEmail == "" {
		return nil, ErrContactRequired
	}
	if req.PartySize < 1 {
		return nil, &ValidationError{Message: "party size must be at least 1"}
	}

	reservation := req.toReservation(s.codes.Generate(ctx), models.SourceOverride)
	reservation.CreatedBy = &admin.UserID
	reservation.Notes = overrideNotes(admin.UserID, reason, req.Notes)

	if err := s.db.WithContext(ctx).Create(reservation).Error; err != nil {
		perr := persistenceError(err)
		utils.ErrorLogger.Printf("Override reservation insert failed for restaurant %d: %v", req.RestaurantID, perr)
		return nil, perr
	}

	reservation.Restaurant = restaurant
	utils.InfoLogger.Printf("Override reservation %s created by admin %d for restaurant %d on %s %s",
		reservation.Code, admin.UserID, restaurant.ID, reservation.Date, reservation.TimeSlot)
	s.dispatch(reservation, restaurant)
	return reservation, nil
}

func (s *BookingService) dispatch(reservation *models.Reservation, restaurant *models.Restaurant) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyConfirmation(reservation, restaurant)
}

func (s *BookingService) findRestaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.db.WithContext(ctx).First(&restaurant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, &PersistenceError{Err: err}
	}
	return &restaurant, nil
}

// lockSlot creates the slot's lock row on first use and bumps its version,
// which holds a row lock until the transaction ends.
func lockSlot(tx *gorm.DB, key models.SlotKey) error {
	lock := models.SlotLock{RestaurantID: key.RestaurantID, Date: key.Date, TimeSlot: key.TimeSlot}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&lock).Error; err != nil {
		return err
	}
	return tx.Model(&models.SlotLock{}).
		Where("restaurant_id = ? AND date = ? AND time_slot = ?", key.RestaurantID, key.Date, key.TimeSlot).
		UpdateColumn("version", gorm.Expr("version + ?", 1)).Error
}

func persistenceError(err error) *PersistenceError {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &PersistenceError{Err: fmt.Errorf("%w: %v", ErrCodeCollision, err), Retryable: true}
	}
	return &PersistenceError{Err: err}
}

func overrideNotes(adminID uint, reason, notes string) *string {
	text := fmt.Sprintf("%s by admin #%d", overrideNotePrefix, adminID)
	if reason = strings.TrimSpace(reason); reason != "" {
		text += ": " + reason
	}
	if notes != "" {
		text += "\n" + notes
	}
	return &text
}

func (r *BookingRequest) normalize() {
	r.GuestName = strings.TrimSpace(r.GuestName)
	r.GuestEmail = strings.TrimSpace(r.GuestEmail)
	r.GuestPhone = strings.TrimSpace(r.GuestPhone)
	r.Date = strings.TrimSpace(r.Date)
	r.TimeSlot = strings.TrimSpace(r.TimeSlot)
	r.Notes = strings.TrimSpace(r.Notes)
}

func (r BookingRequest) toReservation(code string, source models.ReservationSource) *models.Reservation {
	reservation := &models.Reservation{
		Code:         code,
		RestaurantID: r.RestaurantID,
		UserID:       r.UserID,
		GuestName:    r.GuestName,
		GuestEmail:   r.GuestEmail,
		Date:         r.Date,
		TimeSlot:     r.TimeSlot,
		PartySize:    r.PartySize,
		Status:       models.ReservationConfirmed,
		Source:       source,
	}
	if r.GuestPhone != "" {
		phone := r.GuestPhone
		reservation.GuestPhone = &phone
	}
	if r.Notes != "" {
		notes := r.Notes
		reservation.Notes = &notes
	}
	return reservation
}
