package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwilioSendSMS(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+15550100000", r.PostForm.Get("From"))
		assert.Equal(t, "+15550103000", r.PostForm.Get("To"))
		assert.Contains(t, r.PostForm.Get("Body"), "Code: ABC123")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer server.Close()

	client := NewTwilioClient(server.URL, "AC123", "secret", "+15550100000", time.Second)
	sid, err := client.Send(context.Background(), "(555) 010-3000", Summary{Code: "ABC123", GuestName: "Ada", PartySize: 2})

	require.NoError(t, err)
	assert.Equal(t, "SM1", sid)
}

func TestTwilioSendSMSError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number."}`))
	}))
	defer server.Close()

	client := NewTwilioClient(server.URL, "AC123", "secret", "+15550100000", time.Second)
	_, err := client.SendSMS(context.Background(), "123", "hello")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
}

func TestTwilioRequiresDestination(t *testing.T) {
	client := NewTwilioClient("http://127.0.0.1:0", "AC123", "secret", "+15550100000", time.Second)
	_, err := client.SendSMS(context.Background(), "  ", "hello")
	assert.Error(t, err)
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+15550103000", NormalizePhone("(555) 010-3000"))
	assert.Equal(t, "+15550103000", NormalizePhone("1-555-010-3000"))
	assert.Equal(t, "+447700900123", NormalizePhone("+44 7700 900123"))
}

func TestSMSBody(t *testing.T) {
	body := SMSBody(Summary{GuestName: "Ada", RestaurantName: "Carmelitas", RestaurantPhone: "555", Code: "ABC123", Date: "2025-01-01", TimeSlot: "6:00 PM", PartySize: 1})

	assert.Contains(t, body, "Hi Ada, you're all set at Carmelitas.")
	assert.Contains(t, body, "Party: 1 guest\n")
	assert.Contains(t, body, "Call us at 555")
}
