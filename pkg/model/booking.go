package model

import (
	"strconv"
	"time"
)

// ReceivedAtLayout matches JavaScript's Date.toISOString, the format already
// present in existing booking logs.
const ReceivedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// BookingRequest is the untrusted form submission, as text, before sanitizing.
type BookingRequest struct {
	Name         string
	Email        string
	Checkin      string
	Checkout     string
	Guests       string
	Notes        string
	CaptchaToken string
}

// Booking is a request that passed validation.
type Booking struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,simple_email"`
	Checkin  string `validate:"required"`
	Checkout string `validate:"required"`
	Guests   int    `validate:"gte=1,lte=20"`
	Notes    string
}

// BookingRecord is one entry of the booking log. Field order is the order
// written to disk and to notification emails.
type BookingRecord struct {
	ReceivedAt string `json:"receivedAt" bson:"received_at"`
	IP         string `json:"ip" bson:"ip"`
	Name       string `json:"name" bson:"name"`
	Email      string `json:"email" bson:"email"`
	Checkin    string `json:"checkin" bson:"checkin"`
	Checkout   string `json:"checkout" bson:"checkout"`
	Guests     int    `json:"guests" bson:"guests"`
	Notes      string `json:"notes" bson:"notes"`
}

type Field struct {
	Key   string
	Value string
}

func NewBookingRecord(b Booking, receivedAt time.Time, ip string) BookingRecord {
	return BookingRecord{
		ReceivedAt: receivedAt.UTC().Format(ReceivedAtLayout),
		IP:         ip,
		Name:       b.Name,
		Email:      b.Email,
		Checkin:    b.Checkin,
		Checkout:   b.Checkout,
		Guests:     b.Guests,
		Notes:      b.Notes,
	}
}

func (r BookingRecord) Fields() []Field {
	return []Field{
		{Key: "receivedAt", Value: r.ReceivedAt},
		{Key: "ip", Value: r.IP},
		{Key: "name", Value: r.Name},
		{Key: "email", Value: r.Email},
		{Key: "checkin", Value: r.Checkin},
		{Key: "checkout", Value: r.Checkout},
		{Key: "guests", Value: strconv.Itoa(r.Guests)},
		{Key: "notes", Value: r.Notes},
	}
}
