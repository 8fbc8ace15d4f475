package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingRecord(t *testing.T) {
	received := time.Date(2025, 5, 20, 14, 3, 7, 250_000_000, time.FixedZone("CEST", 2*3600))
	b := Booking{Name: "A", Email: "a@b.com", Checkin: "2025-06-01", Checkout: "2025-06-03", Guests: 2}

	rec := NewBookingRecord(b, received, "203.0.113.9")

	assert.Equal(t, "2025-05-20T12:03:07.250Z", rec.ReceivedAt)
	assert.Equal(t, "203.0.113.9", rec.IP)
	assert.Equal(t, 2, rec.Guests)
}

func TestBookingRecord_JSONFieldOrder(t *testing.T) {
	rec := BookingRecord{ReceivedAt: "t", IP: "i", Name: "n", Email: "e", Checkin: "c1", Checkout: "c2", Guests: 3, Notes: "x"}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	assert.Equal(t,
		`{"receivedAt":"t","ip":"i","name":"n","email":"e","checkin":"c1","checkout":"c2","guests":3,"notes":"x"}`,
		string(data))
}

func TestBookingRecord_Fields(t *testing.T) {
	rec := BookingRecord{ReceivedAt: "t", IP: "i", Name: "n", Email: "e", Checkin: "c1", Checkout: "c2", Guests: 3}

	fields := rec.Fields()

	require.Len(t, fields, 8)
	assert.Equal(t, Field{Key: "receivedAt", Value: "t"}, fields[0])
	assert.Equal(t, Field{Key: "guests", Value: "3"}, fields[6])
	assert.Equal(t, Field{Key: "notes", Value: ""}, fields[7])
}
