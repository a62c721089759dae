package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// TwilioClient sends SMS through the Twilio Messages API.
type TwilioClient struct {
	httpClient *resty.Client
	accountSID string
	from       string
}

type TwilioMessage struct {
	SID          string  `json:"sid"`
	Status       string  `json:"status"`
	ErrorCode    *int    `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewTwilioClient(baseURL, accountSID, authToken, from string, timeout time.Duration) *TwilioClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetBasicAuth(accountSID, authToken).
		SetHeader("Accept", "application/json")

	return &TwilioClient{
		httpClient: client,
		accountSID: accountSID,
		from:       from,
	}
}

// SendSMS posts one message. to is normalised to E.164 first.
func (c *TwilioClient) SendSMS(ctx context.Context, to, body string) (*TwilioMessage, error) {
	if strings.TrimSpace(to) == "" {
		return nil, errors.New("twilio: destination phone required")
	}

	var msg TwilioMessage
	var apiErr twilioError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("sid", c.accountSID).
		SetFormData(map[string]string{
			"From": c.from,
			"To":   NormalizePhone(to),
			"Body": body,
		}).
		SetResult(&msg).
		SetError(&apiErr).
		Post("/2010-04-01/Accounts/{sid}/Messages.json")
	if err != nil {
		return nil, fmt.Errorf("twilio: %w", err)
	}
	if resp.IsError() {
		if apiErr.Message != "" {
			return nil, fmt.Errorf("twilio: %s (code %d)", apiErr.Message, apiErr.Code)
		}
		return nil, fmt.Errorf("twilio: unexpected status %s", resp.Status())
	}
	return &msg, nil
}

func (c *TwilioClient) Send(ctx context.Context, destination string, summary Summary) (string, error) {
	msg, err := c.SendSMS(ctx, destination, SMSBody(summary))
	if err != nil {
		return "", err
	}
	return msg.SID, nil
}

// SMSBody renders the confirmation text message.
func SMSBody(s Summary) string {
	restaurant := s.RestaurantName
	if restaurant == "" {
		restaurant = "the restaurant"
	}
	guests := "guests"
	if s.PartySize == 1 {
		guests = "guest"
	}

	var b strings.Builder
	b.WriteString("Reservation Confirmed!\n\n")
	fmt.Fprintf(&b, "Hi %s, you're all set at %s.\n\n", s.GuestName, restaurant)
	fmt.Fprintf(&b, "Date: %s\nTime: %s\nParty: %d %s\nCode: %s\n", s.Date, s.TimeSlot, s.PartySize, guests, s.Code)
	if s.RestaurantPhone != "" {
		fmt.Fprintf(&b, "Questions? Call us at %s.\n", s.RestaurantPhone)
	}
	b.WriteString("\nSee you soon! - Tablereserve")
	return b.String()
}

// NormalizePhone converts a free-form number to E.164, assuming +1 for
// ten-digit numbers.
func NormalizePhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	switch {
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		return "+" + d
	case len(d) == 10:
		return "+1" + d
	default:
		return "+" + d
	}
}
