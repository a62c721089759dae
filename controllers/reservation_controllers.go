package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/realtime"
	"github.com/tablereserve/reservation-app/services"
	"github.com/tablereserve/reservation-app/utils"
	"gorm.io/gorm"
)

type ReservationController struct {
	DB          *gorm.DB
	Bookings    *services.BookingService
	Restaurants *services.RestaurantCache
	Now         func() time.Time
}

func NewReservationController(db *gorm.DB, bookings *services.BookingService, restaurants *services.RestaurantCache) *ReservationController {
	return &ReservationController{
		DB:          db,
		Bookings:    bookings,
		Restaurants: restaurants,
		Now:         time.Now,
	}
}

type bookingBody struct {
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	GuestPhone string `json:"guest_phone"`
	Date       string `json:"date"`
	TimeSlot   string `json:"time_slot"`
	PartySize  int    `json:"party_size"`
	Notes      string `json:"notes"`
}

func (b bookingBody) request(restaurantID uint) services.BookingRequest {
	return services.BookingRequest{
		RestaurantID: restaurantID,
		GuestName:    b.GuestName,
		GuestEmail:   b.GuestEmail,
		GuestPhone:   b.GuestPhone,
		Date:         b.Date,
		TimeSlot:     b.TimeSlot,
		PartySize:    b.PartySize,
		Notes:        b.Notes,
	}
}

func (rc *ReservationController) restaurantBySlug(c *gin.Context) (*models.Restaurant, bool) {
	restaurant, err := rc.Restaurants.BySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, ErrRestaurantNotFound)
		} else {
			respondInternal(c, err)
		}
		return nil, false
	}
	return restaurant, true
}

// CreateReservation -> guest booking for /restaurants/:slug/reservations
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	restaurant, ok := rc.restaurantBySlug(c)
	if !ok {
		return
	}

	var body bookingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondInvalidBooking(c, err)
		return
	}

	req := body.request(restaurant.ID)
	if userID, ok := contextUserID(c); ok {
		req.UserID = &userID
	}

	reservation, err := rc.Bookings.CreateReservation(c.Request.Context(), req, rc.Now())
	if err != nil {
		respondBookingError(c, err)
		return
	}

	realtime.BroadcastReservation(realtime.EventReservationCreated, *reservation)
	utils.RespondJSON(c, http.StatusCreated, "Reservation confirmed", reservation)
}

// GetReservationByCode -> case-insensitive lookup
func (rc *ReservationController) GetReservationByCode(c *gin.Context) {
	code := strings.ToUpper(strings.TrimSpace(c.Param("code")))
	if len(code) != services.CodeLength {
		utils.RespondError(c, http.StatusNotFound, ErrReservationNotFound)
		return
	}

	var reservation models.Reservation
	err := rc.DB.WithContext(c.Request.Context()).
		Preload("Restaurant").
		Where("code = ?", code).
		First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, ErrReservationNotFound)
			return
		}
		respondInternal(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Reservation detail", reservation)
}

// GetMyReservations -> reservations booked while signed in
func (rc *ReservationController) GetMyReservations(c *gin.Context) {
	userID, ok := contextUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var reservations []models.Reservation
	err := rc.DB.WithContext(c.Request.Context()).
		Preload("Restaurant").
		Where("user_id = ?", userID).
		Order("date DESC").Order("time_slot DESC").
		Find(&reservations).Error
	if err != nil {
		respondInternal(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "My reservations", reservations)
}

// GetAvailability -> /restaurants/:slug/slots?date=YYYY-MM-DD&party_size=N
func (rc *ReservationController) GetAvailability(c *gin.Context) {
	restaurant, ok := rc.restaurantBySlug(c)
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		utils.RespondError(c, http.StatusBadRequest, services.ErrDateAndSlotRequired)
		return
	}
	partySize, _ := strconv.Atoi(c.DefaultQuery("party_size", "1"))

	slots, err := rc.Bookings.Availability(c.Request.Context(), restaurant, date, partySize, rc.Now())
	if err != nil {
		respondBookingError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Slot availability", gin.H{
		"restaurant": restaurant.Slug,
		"date":       date,
		"slots":      slots,
	})
}
