package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResendSend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))

		var payload resendEmail
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, []string{"ada@example.com"}, payload.To)
		assert.Equal(t, "Your reservation is confirmed! Code: ABC123", payload.Subject)
		assert.Contains(t, payload.HTML, "ABC123")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer server.Close()

	client := NewResendClient(server.URL, "re_test", "Tablereserve <noreply@example.com>", time.Second)
	id, err := client.Send(context.Background(), "ada@example.com", Summary{Code: "ABC123", GuestName: "Ada"})

	require.NoError(t, err)
	assert.Equal(t, "email-1", id)
}

func TestResendSendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"name":"validation_error","message":"Invalid to field"}`))
	}))
	defer server.Close()

	client := NewResendClient(server.URL, "re_test", "noreply@example.com", time.Second)
	_, err := client.Send(context.Background(), "not-an-email", Summary{Code: "ABC123"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid to field")
}

func TestEmailBodyEscapesGuestInput(t *testing.T) {
	html, err := EmailBody(Summary{GuestName: "<script>x</script>", Code: "ABC123"})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>x</script>")
	assert.Contains(t, html, "Tablereserve")
}
