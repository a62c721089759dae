package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/services"
	"github.com/tablereserve/reservation-app/utils"
	"gorm.io/gorm"
)

type NotificationController struct {
	DB  *gorm.DB
	SMS *services.TwilioClient
}

func NewNotificationController(db *gorm.DB, sms *services.TwilioClient) *NotificationController {
	return &NotificationController{DB: db, SMS: sms}
}

// GetAllNotifications -> delivery attempts, newest first
func (nc *NotificationController) GetAllNotifications(c *gin.Context) {
	actor, ok := requireActor(nc.DB, c)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 100
	}

	q := nc.DB.WithContext(c.Request.Context()).Order("created_at DESC").Limit(limit)
	if actor.RestaurantID != nil {
		q = q.Where("restaurant_id = ?", *actor.RestaurantID)
	}
	if channel := c.Query("channel"); channel != "" {
		q = q.Where("channel = ?", channel)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var logs []models.NotificationLog
	if err := q.Find(&logs).Error; err != nil {
		respondInternal(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification log", logs)
}

// SendTestSMS -> synchronous send so the admin sees the provider's answer
func (nc *NotificationController) SendTestSMS(c *gin.Context) {
	if nc.SMS == nil {
		utils.RespondError(c, http.StatusServiceUnavailable, errors.New("SMS is not configured"))
		return
	}

	var body struct {
		Phone   string `json:"phone" binding:"required"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		body.Message = "Test message from Tablereserve. SMS notifications are working."
	}

	to := services.NormalizePhone(body.Phone)
	msg, err := nc.SMS.SendSMS(c.Request.Context(), to, body.Message)

	entry := models.NotificationLog{Channel: models.ChannelSMS, Destination: to, Status: models.NotificationSent}
	if err != nil {
		entry.Status = models.NotificationFailed
		entry.Error = err.Error()
	} else {
		entry.ProviderID = msg.SID
	}
	if dbErr := nc.DB.WithContext(c.Request.Context()).Create(&entry).Error; dbErr != nil {
		utils.ErrorLogger.Printf("Failed to record test SMS: %v", dbErr)
	}

	if err != nil {
		utils.ErrorLogger.Printf("Test SMS to %s failed: %v", to, err)
		utils.RespondError(c, http.StatusBadGateway, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Test SMS sent", gin.H{
		"sid":    msg.SID,
		"status": msg.Status,
		"to":     to,
	})
}
