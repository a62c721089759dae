package controllers

import (
	"errors"
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/tablereserve/reservation-app/middlewares"
	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/services"
	"github.com/tablereserve/reservation-app/utils"
	"gorm.io/gorm"
)

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

var (
	ErrNoPermission         = &CustomError{"You do not have permission"}
	ErrRestaurantNotFound   = &CustomError{"Restaurant not found"}
	ErrReservationNotFound  = &CustomError{"Reservation not found"}
	ErrReservationFailed    = &CustomError{"We could not complete your reservation. Please try again."}
	ErrSomethingWentWrong   = &CustomError{"Something went wrong. Please try again."}
	ErrRestaurantHasBooking = &CustomError{"Restaurant still has reservations"}
	ErrInvalidBookingBody   = &CustomError{"Invalid reservation request"}
)

// respondInvalidBooking answers a malformed booking payload with a fixed
// message; the binder's error is only logged.
func respondInvalidBooking(c *gin.Context, err error) {
	utils.InfoLogger.Printf("Rejected reservation payload on %s: %v", c.Request.URL.Path, err)
	utils.RespondError(c, http.StatusBadRequest, ErrInvalidBookingBody)
}

// respondBookingError maps booking failures onto HTTP statuses. Storage
// details are logged and reported, never returned.
func respondBookingError(c *gin.Context, err error) {
	switch {
	case services.IsValidationError(err):
		utils.RespondError(c, http.StatusBadRequest, err)
	case services.IsCapacityError(err):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrOverrideForbidden):
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
	default:
		utils.ErrorLogger.Printf("Reservation request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		captureError(c, err)
		utils.RespondError(c, http.StatusInternalServerError, ErrReservationFailed)
	}
}

// respondInternal logs err and answers with a generic 500.
func respondInternal(c *gin.Context, err error) {
	utils.ErrorLogger.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	captureError(c, err)
	utils.RespondError(c, http.StatusInternalServerError, ErrSomethingWentWrong)
}

func captureError(c *gin.Context, err error) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
}

func contextUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(middlewares.ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// currentActor reloads the caller's role and restaurant scope from the
// users table, so scope changes apply before the token expires.
func currentActor(db *gorm.DB, c *gin.Context) (services.Actor, error) {
	userID, ok := contextUserID(c)
	if !ok {
		return services.Actor{}, ErrNoPermission
	}
	var user models.User
	if err := db.WithContext(c.Request.Context()).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.Actor{}, ErrNoPermission
		}
		return services.Actor{}, err
	}
	return services.Actor{UserID: user.ID, Role: user.Role, RestaurantID: user.RestaurantID}, nil
}

// requireActor writes the error response itself and reports false when the
// caller is not an admin.
func requireActor(db *gorm.DB, c *gin.Context) (services.Actor, bool) {
	actor, err := currentActor(db, c)
	if err != nil {
		if errors.Is(err, ErrNoPermission) {
			utils.RespondError(c, http.StatusUnauthorized, err)
		} else {
			respondInternal(c, err)
		}
		return actor, false
	}
	if !models.IsAdminRole(actor.Role) {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return actor, false
	}
	return actor, true
}

// scopeReservations limits a reservations query to the admin's restaurant.
func scopeReservations(q *gorm.DB, actor services.Actor) *gorm.DB {
	if actor.RestaurantID != nil {
		return q.Where("reservations.restaurant_id = ?", *actor.RestaurantID)
	}
	return q
}
