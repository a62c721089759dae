package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/realtime"
	"github.com/tablereserve/reservation-app/services"
	"github.com/tablereserve/reservation-app/utils"
	"gorm.io/gorm"
)

type AdminController struct {
	DB       *gorm.DB
	Bookings *services.BookingService
	Now      func() time.Time
}

func NewAdminController(db *gorm.DB, bookings *services.BookingService) *AdminController {
	return &AdminController{DB: db, Bookings: bookings, Now: time.Now}
}

func (ac *AdminController) scopedReservations(c *gin.Context, actor services.Actor) (*gorm.DB, error) {
	q := scopeReservations(ac.DB.WithContext(c.Request.Context()).Model(&models.Reservation{}), actor)
	if status := c.Query("status"); status != "" {
		if !models.ReservationStatus(status).Valid() {
			return nil, fmt.Errorf("invalid status %q", status)
		}
		q = q.Where("status = ?", status)
	}
	if date := c.Query("date"); date != "" {
		q = q.Where("date = ?", date)
	}
	return q, nil
}

// GetReservations -> ordered by date, then time slot
func (ac *AdminController) GetReservations(c *gin.Context) {
	actor, ok := requireActor(ac.DB, c)
	if !ok {
		return
	}

	q, err := ac.scopedReservations(c, actor)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var reservations []models.Reservation
	if err := q.Preload("Restaurant").Order("date ASC").Order("time_slot ASC").Find(&reservations).Error; err != nil {
		respondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of reservations", reservations)
}

func (ac *AdminController) loadReservation(c *gin.Context, actor services.Actor) (*models.Reservation, bool) {
	var reservation models.Reservation
	if err := ac.DB.WithContext(c.Request.Context()).First(&reservation, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, ErrReservationNotFound)
			return nil, false
		}
		respondInternal(c, err)
		return nil, false
	}
	if !actor.CanManage(reservation.RestaurantID) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return nil, false
	}
	return &reservation, true
}

// UpdateReservation -> admin edit; capacity is not re-checked
func (ac *AdminController) UpdateReservation(c *gin.Context) {
	actor, ok := requireActor(ac.DB, c)
	if !ok {
		return
	}
	reservation, ok := ac.loadReservation(c, actor)
	if !ok {
		return
	}

	var body struct {
		Date      *string `json:"date"`
		TimeSlot  *string `json:"time_slot"`
		PartySize *int    `json:"party_size"`
		Status    *string `json:"status"`
		Notes     *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	updates := map[string]interface{}{}
	if body.Date != nil {
		if _, err := services.ParseDate(*body.Date); err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid date, expected YYYY-MM-DD"))
			return
		}
		updates["date"] = strings.TrimSpace(*body.Date)
	}
	if body.TimeSlot != nil {
		if strings.TrimSpace(*body.TimeSlot) == "" {
			utils.RespondError(c, http.StatusBadRequest, services.ErrDateAndSlotRequired)
			return
		}
		updates["time_slot"] = strings.TrimSpace(*body.TimeSlot)
	}
	if body.PartySize != nil {
		if *body.PartySize < 1 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("party size must be at least 1"))
			return
		}
		updates["party_size"] = *body.PartySize
	}
	if body.Status != nil {
		if !models.ReservationStatus(*body.Status).Valid() {
			utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid status %q", *body.Status))
			return
		}
		updates["status"] = *body.Status
	}
	if body.Notes != nil {
		updates["notes"] = *body.Notes
	}
	if len(updates) == 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("nothing to update"))
		return
	}

	if err := ac.DB.WithContext(c.Request.Context()).Model(reservation).Updates(updates).Error; err != nil {
		respondInternal(c, err)
		return
	}
	if err := ac.DB.WithContext(c.Request.Context()).Preload("Restaurant").First(reservation, "id = ?", reservation.ID).Error; err != nil {
		respondInternal(c, err)
		return
	}

	realtime.BroadcastReservation(realtime.EventReservationUpdated, *reservation)
	utils.InfoLogger.Printf("Reservation %s updated by admin %d", reservation.Code, actor.UserID)
	utils.RespondJSON(c, http.StatusOK, "Reservation updated", reservation)
}

func (ac *AdminController) CancelReservation(c *gin.Context) {
	actor, ok := requireActor(ac.DB, c)
	if !ok {
		return
	}
	reservation, ok := ac.loadReservation(c, actor)
	if !ok {
		return
	}

	if err := ac.DB.WithContext(c.Request.Context()).Model(reservation).Update("status", models.ReservationCancelled).Error; err != nil {
		respondInternal(c, err)
		return
	}
	reservation.Status = models.ReservationCancelled

	realtime.BroadcastReservation(realtime.EventReservationUpdated, *reservation)
	utils.InfoLogger.Printf("Reservation %s cancelled by admin %d", reservation.Code, actor.UserID)
	utils.RespondJSON(c, http.StatusOK, "Reservation cancelled", reservation)
}

// CreateOverrideReservation -> books past capacity and advance notice
func (ac *AdminController) CreateOverrideReservation(c *gin.Context) {
	actor, ok := requireActor(ac.DB, c)
	if !ok {
		return
	}

	var body struct {
		bookingBody
		RestaurantID uint   `json:"restaurant_id"`
		Reason       string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondInvalidBooking(c, err)
		return
	}
	if body.RestaurantID == 0 {
		if actor.RestaurantID == nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("restaurant_id is required"))
			return
		}
		body.RestaurantID = *actor.RestaurantID
	}

	reservation, err := ac.Bookings.CreateOverrideReservation(c.Request.Context(), actor, body.request(body.RestaurantID), body.Reason)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	realtime.BroadcastReservation(realtime.EventReservationCreated, *reservation)
	utils.RespondJSON(c, http.StatusCreated, "Override reservation created", reservation)
}

// GetStats -> totals for the admin's scope
func (ac *AdminController) GetStats(c *gin.Context) {
	actor, ok := requireActor(ac.DB, c)
	if !ok {
		return
	}

	today := ac.Now().In(ac.Bookings.Location()).Format(models.DateLayout)
	base := func() *gorm.DB {
		return scopeReservations(ac.DB.WithContext(c.Request.Context()).Model(&models.Reservation{}), actor)
	}

	var stats struct {
		Total     int64  `json:"total"`
		Confirmed int64  `json:"confirmed"`
		Today     int64  `json:"today"`
		Cancelled int64  `json:"cancelled"`
		Overrides int64  `json:"overrides"`
		Date      string `json:"date"`
	}
	stats.Date = today

	for _, q := range []struct {
		dest *int64
		db   *gorm.DB
	}{
		{&stats.Total, base()},
		{&stats.Confirmed, base().Where("status = ?", models.ReservationConfirmed)},
		{&stats.Today, base().Where("date = ?", today)},
		{&stats.Cancelled, base().Where("status = ?", models.ReservationCancelled)},
		{&stats.Overrides, base().Where("source = ?", models.SourceOverride)},
	} {
		if err := q.db.Count(q.dest).Error; err != nil {
			respondInternal(c, err)
			return
		}
	}

	utils.RespondJSON(c, http.StatusOK, "Reservation stats", stats)
}

// ExportReservations -> xlsx of the scoped, filtered list
func (ac *AdminController) ExportReservations(c *gin.Context) {
	actor, ok := requireActor(ac.DB, c)
	if !ok {
		return
	}

	q, err := ac.scopedReservations(c, actor)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var reservations []models.Reservation
	if err := q.Preload("Restaurant").Order("date ASC").Order("time_slot ASC").Find(&reservations).Error; err != nil {
		respondInternal(c, err)
		return
	}

	data, err := services.ExportReservations(reservations)
	if err != nil {
		respondInternal(c, err)
		return
	}

	filename := fmt.Sprintf("reservations_%s.xlsx", ac.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
