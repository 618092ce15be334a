package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrProviderNotFound = errors.New("provider not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrBookingNotFound  = errors.New("booking not found")
)

// ProviderDate identifies one provider's schedule for one calendar date.
type ProviderDate struct {
	ProviderID uuid.UUID
	Date       string
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetProviderByID(ctx context.Context, id uuid.UUID) (*Provider, error)
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetBookingDetail(ctx context.Context, id uuid.UUID) (*BookingDetail, error)

	// Conflict evaluation inputs
	ListProviderBookings(ctx context.Context, providerID uuid.UUID, date string) ([]Booking, error)

	// Provider assignment
	AssignProvider(ctx context.Context, bookingID, providerID uuid.UUID) (*Booking, error)

	// Cache refresh worker
	ListActiveProviderDates(ctx context.Context, from string, horizonDays int) ([]ProviderDate, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
