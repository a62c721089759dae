package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTimeSlot(t *testing.T) {
	tests := []struct {
		label  string
		hour   int
		minute int
	}{
		{"6:00 PM", 18, 0},
		{"7:30 pm", 19, 30},
		{"12:00 PM", 12, 0},
		{"12:15 AM", 0, 15},
		{"  9:45   AM ", 9, 45},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			hour, minute, err := ParseTimeSlot(tt.label)
			assert.NoError(t, err)
			assert.Equal(t, tt.hour, hour)
			assert.Equal(t, tt.minute, minute)
		})
	}
}

func TestParseTimeSlotRejectsGarbage(t *testing.T) {
	for _, label := range []string{"", "18:00", "six pm", "13:00 PM"} {
		_, _, err := ParseTimeSlot(label)
		assert.Error(t, err, label)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2025-01-01 ")
	assert.NoError(t, err)
	assert.Equal(t, 2025, d.Year())

	_, err = ParseDate("01/01/2025")
	assert.Error(t, err)
}
