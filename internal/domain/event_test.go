package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexPrice_Unmarshal(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantValue   float64
		wantInvalid bool
	}{
		{"number", `49.99`, 49.99, false},
		{"integer", `25`, 25, false},
		{"quoted number", `"49.99"`, 49.99, false},
		{"quoted integer", `"25"`, 25, false},
		{"quoted with whitespace", `" 12.50 "`, 12.5, false},
		{"null", `null`, 0, false},
		{"empty string", `""`, 0, false},
		{"garbage string", `"free!"`, 0, true},
		{"negative number", `-5`, 0, true},
		{"negative string", `"-5"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p FlexPrice
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &p))
			assert.Equal(t, tt.wantValue, p.Value)
			assert.Equal(t, tt.wantInvalid, p.Invalid)
		})
	}
}

func TestFlexPrice_MarshalEmitsNumber(t *testing.T) {
	out, err := json.Marshal(FlexPrice{Value: 49.99})
	require.NoError(t, err)
	assert.Equal(t, `49.99`, string(out))
}

func TestEvent_StartsAt(t *testing.T) {
	date := time.Date(2025, 7, 1, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		event     Event
		wantTime  time.Time
		wantFound bool
	}{
		{
			"prefers startDate",
			Event{StartDate: "2025-07-01T20:00:00Z", StartTime: "2025-01-01T00:00:00Z"},
			date, true,
		},
		{
			"falls back to startTime",
			Event{StartTime: "2025-07-01T20:00:00Z"},
			date, true,
		},
		{
			"skips unparseable startDate",
			Event{StartDate: "next friday", StartTime: "2025-07-01T20:00:00Z"},
			date, true,
		},
		{
			"neither set",
			Event{},
			time.Time{}, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.event.StartsAt()
			assert.Equal(t, tt.wantFound, ok)
			if tt.wantFound {
				assert.True(t, got.Equal(tt.wantTime))
			}
		})
	}
}
