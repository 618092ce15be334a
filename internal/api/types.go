package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/carelink/booking-availability/internal/booking"
)

type AvailabilityResponse struct {
	ProviderID uuid.UUID `json:"provider_id"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	Duration   float64   `json:"duration_hours"`
	Available  bool      `json:"available"`
	Reason     string    `json:"reason"`
}

type BookingResponse struct {
	ID            uuid.UUID  `json:"id"`
	ProviderID    *uuid.UUID `json:"provider_id,omitempty"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	ServiceName   string     `json:"service_name"`
	ScheduledDate string     `json:"scheduled_date"`
	ScheduledTime string     `json:"scheduled_time"`
	DurationHours float64    `json:"duration_hours"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}

type ScheduleResponse struct {
	ProviderID uuid.UUID         `json:"provider_id"`
	Date       string            `json:"date"`
	Bookings   []BookingResponse `json:"bookings"`
}

type AssignProviderRequest struct {
	ProviderID string `json:"provider_id"`
}

type ContactResponse struct {
	BookingID        uuid.UUID `json:"booking_id"`
	CustomerName     string    `json:"customer_name"`
	ScheduledDate    string    `json:"scheduled_date"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	EmergencyContact string    `json:"emergency_contact"`
	Visible          bool      `json:"visible"`
	Reason           string    `json:"reason"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toBookingResponse(b booking.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		ProviderID:    b.ProviderID,
		CustomerID:    b.CustomerID,
		ServiceName:   b.ServiceName,
		ScheduledDate: b.ScheduledDate,
		ScheduledTime: b.ScheduledTime,
		DurationHours: b.DurationHours,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt,
	}
}
