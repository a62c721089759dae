package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/tablereserve/reservation-app/models"
	"github.com/tablereserve/reservation-app/utils"
	"gorm.io/gorm"
)

// Summary is what a guest is told about a confirmed reservation.
type Summary struct {
	ReservationID   string
	RestaurantID    uint
	GuestName       string
	RestaurantName  string
	RestaurantPhone string
	Code            string
	Date            string
	TimeSlot        string
	PartySize       int
}

func SummaryFor(r *models.Reservation, restaurant *models.Restaurant) Summary {
	s := Summary{
		ReservationID: r.ID,
		RestaurantID:  r.RestaurantID,
		GuestName:     r.GuestName,
		Code:          r.Code,
		Date:          r.Date,
		TimeSlot:      r.TimeSlot,
		PartySize:     r.PartySize,
	}
	if restaurant != nil {
		s.RestaurantName = restaurant.Name
		s.RestaurantPhone = restaurant.Phone
	}
	return s
}

// Sender delivers a summary over one channel and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, destination string, summary Summary) (string, error)
}

// NotificationDispatcher sends confirmations in the background. Failures are
// logged and recorded, never returned: at most one attempt per channel.
type NotificationDispatcher struct {
	db      *gorm.DB
	senders map[string]Sender
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewNotificationDispatcher(db *gorm.DB, timeout time.Duration) *NotificationDispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NotificationDispatcher{
		db:      db,
		senders: make(map[string]Sender),
		timeout: timeout,
	}
}

// Register must be called before the dispatcher is shared.
func (d *NotificationDispatcher) Register(channel string, sender Sender) {
	d.senders[channel] = sender
}

func (d *NotificationDispatcher) Configured(channel string) bool {
	_, ok := d.senders[channel]
	return ok
}

// NotifyConfirmation fans out SMS (when the guest left a phone) and email concurrently.
func (d *NotificationDispatcher) NotifyConfirmation(r *models.Reservation, restaurant *models.Restaurant) {
	summary := SummaryFor(r, restaurant)
	if r.GuestPhone != nil && *r.GuestPhone != "" {
		d.Notify(models.ChannelSMS, *r.GuestPhone, summary)
	}
	if r.GuestEmail != "" {
		d.Notify(models.ChannelEmail, r.GuestEmail, summary)
	}
}

// Notify is fire-and-forget.
func (d *NotificationDispatcher) Notify(channel, destination string, summary Summary) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(channel, destination, summary)
	}()
}

// Wait blocks until in-flight sends finish.
func (d *NotificationDispatcher) Wait() {
	d.wg.Wait()
}

func (d *NotificationDispatcher) deliver(channel, destination string, summary Summary) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic delivering %s notification: %v", channel, rec)
			utils.ErrorLogger.Print(err)
			sentry.CaptureException(err)
		}
	}()

	sender, ok := d.senders[channel]
	if !ok {
		utils.InfoLogger.Printf("Notification channel %s not configured, skipping reservation %s", channel, summary.Code)
		d.record(channel, destination, summary, models.NotificationSkipped, "", "channel not configured")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	providerID, err := sender.Send(ctx, destination, summary)
	if err != nil {
		utils.ErrorLogger.Printf("Failed to send %s confirmation for reservation %s: %v", channel, summary.Code, err)
		sentry.CaptureException(fmt.Errorf("%s notification for %s: %w", channel, summary.Code, err))
		d.record(channel, destination, summary, models.NotificationFailed, "", err.Error())
		return
	}

	utils.InfoLogger.Printf("Sent %s confirmation for reservation %s (%s)", channel, summary.Code, providerID)
	d.record(channel, destination, summary, models.NotificationSent, providerID, "")
}

func (d *NotificationDispatcher) record(channel, destination string, summary Summary, status, providerID, errMsg string) {
	if d.db == nil {
		return
	}
	entry := models.NotificationLog{
		Channel:     channel,
		Destination: destination,
		Status:      status,
		ProviderID:  providerID,
		Error:       errMsg,
	}
	if summary.ReservationID != "" {
		id := summary.ReservationID
		entry.ReservationID = &id
	}
	if summary.RestaurantID != 0 {
		rid := summary.RestaurantID
		entry.RestaurantID = &rid
	}
	if err := d.db.Create(&entry).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to record %s notification attempt: %v", channel, err)
	}
}
