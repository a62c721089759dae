package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ResendClient sends email through the Resend API.
type ResendClient struct {
	httpClient *resty.Client
	from       string
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResult struct {
	ID string `json:"id"`
}

type resendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func NewResendClient(baseURL, apiKey, from string, timeout time.Duration) *ResendClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &ResendClient{httpClient: client, from: from}
}

func (c *ResendClient) Send(ctx context.Context, destination string, summary Summary) (string, error) {
	if strings.TrimSpace(destination) == "" {
		return "", errors.New("resend: destination email required")
	}

	html, err := EmailBody(summary)
	if err != nil {
		return "", err
	}

	var result resendResult
	var apiErr resendError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(resendEmail{
			From:    c.from,
			To:      []string{destination},
			Subject: EmailSubject(summary),
			HTML:    html,
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return "", fmt.Errorf("resend: %w", err)
	}
	if resp.IsError() {
		if apiErr.Message != "" {
			return "", fmt.Errorf("resend: %s", apiErr.Message)
		}
		return "", fmt.Errorf("resend: unexpected status %s", resp.Status())
	}
	return result.ID, nil
}

func EmailSubject(s Summary) string {
	return "Your reservation is confirmed! Code: " + s.Code
}

var emailTemplate = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Your Reservation is Confirmed</title></head>
<body style="background:#FDF6E3;margin:0;padding:20px;font-family:sans-serif;">
  <div style="max-width:520px;margin:0 auto;background:white;border-radius:24px;overflow:hidden;">
    <div style="background:#1A0A00;padding:24px;text-align:center;">
      <h1 style="color:#D4A520;font-size:24px;margin:0;">{{if .RestaurantName}}{{.RestaurantName}}{{else}}Tablereserve{{end}}</h1>
    </div>
    <div style="padding:32px;text-align:center;">
      <h2 style="color:#1A0A00;font-size:20px;margin:0 0 8px;">Reservation Confirmed!</h2>
      <p style="color:#6B7280;margin:0 0 24px;">Hi {{.GuestName}}, we can't wait to host you!</p>
      <p style="color:#9CA3AF;font-size:11px;text-transform:uppercase;letter-spacing:2px;margin:0 0 8px;">Reservation Code</p>
      <p style="color:#1A0A00;font-size:40px;font-weight:900;letter-spacing:8px;margin:0 0 24px;font-family:monospace;">{{.Code}}</p>
      <table style="width:100%;border-collapse:collapse;text-align:left;">
        <tr><td>Date</td><td style="text-align:right;font-weight:600;">{{.Date}}</td></tr>
        <tr><td>Time</td><td style="text-align:right;font-weight:600;">{{.TimeSlot}}</td></tr>
        <tr><td>Party Size</td><td style="text-align:right;font-weight:600;">{{.PartySize}} guests</td></tr>
      </table>
    </div>
    {{if .RestaurantPhone}}<div style="background:#FDF6E3;padding:16px;text-align:center;">
      <p style="color:#9CA3AF;font-size:12px;margin:0;">Questions? Call {{.RestaurantPhone}}</p>
    </div>{{end}}
  </div>
</body>
</html>`))

// EmailBody renders the HTML confirmation; guest input is escaped.
func EmailBody(s Summary) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, s); err != nil {
		return "", fmt.Errorf("render confirmation email: %w", err)
	}
	return buf.String(), nil
}
