package booking

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusInProgress BookingStatus = "in_progress"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// Occupies reports whether a booking in this status blocks the provider's
// time. Pending bookings never block a slot: time is only reserved once a
// provider accepts.
func (s BookingStatus) Occupies() bool {
	return s == StatusConfirmed || s == StatusInProgress
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
)

type Provider struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactInfo holds the customer fields gated by the privacy policy.
type ContactInfo struct {
	Phone            string
	Address          string
	EmergencyContact string
}

type Customer struct {
	ID        uuid.UUID
	Name      string
	Contact   ContactInfo
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Booking keeps its date and time-of-day as the naive strings the booking
// store serves ("YYYY-MM-DD", "HH:MM"). No timezone is attached anywhere;
// all interval math happens within a single day's span.
type Booking struct {
	ID            uuid.UUID
	ProviderID    *uuid.UUID
	CustomerID    uuid.UUID
	ServiceName   string
	ScheduledDate string
	ScheduledTime string
	DurationHours float64
	Status        BookingStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Slot is a candidate (date, start, duration) being checked for provider
// availability. It is not yet a booking.
type Slot struct {
	Date          string
	StartTime     string
	DurationHours float64
}

type EventLog struct {
	ID        int64
	EventType string
	BookingID *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}

type BookingDetail struct {
	Booking
	Provider *Provider
	Customer *Customer
}
