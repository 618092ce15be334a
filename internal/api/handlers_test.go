package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/booking-availability/internal/booking"
)

// stubRepo serves a single provider, customer and set of bookings.
type stubRepo struct {
	provider *booking.Provider
	customer *booking.Customer
	bookings []booking.Booking
}

func (s *stubRepo) GetProviderByID(_ context.Context, id uuid.UUID) (*booking.Provider, error) {
	if s.provider != nil && s.provider.ID == id {
		return s.provider, nil
	}
	return nil, booking.ErrProviderNotFound
}

func (s *stubRepo) GetCustomerByID(_ context.Context, id uuid.UUID) (*booking.Customer, error) {
	if s.customer != nil && s.customer.ID == id {
		return s.customer, nil
	}
	return nil, booking.ErrCustomerNotFound
}

func (s *stubRepo) GetBookingByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	for i := range s.bookings {
		if s.bookings[i].ID == id {
			b := s.bookings[i]
			return &b, nil
		}
	}
	return nil, booking.ErrBookingNotFound
}

func (s *stubRepo) GetBookingDetail(ctx context.Context, id uuid.UUID) (*booking.BookingDetail, error) {
	b, err := s.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &booking.BookingDetail{Booking: *b, Provider: s.provider, Customer: s.customer}, nil
}

func (s *stubRepo) ListProviderBookings(_ context.Context, providerID uuid.UUID, date string) ([]booking.Booking, error) {
	var out []booking.Booking
	for _, b := range s.bookings {
		if b.ProviderID != nil && *b.ProviderID == providerID && b.ScheduledDate == date {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *stubRepo) AssignProvider(_ context.Context, bookingID, providerID uuid.UUID) (*booking.Booking, error) {
	for i := range s.bookings {
		if s.bookings[i].ID == bookingID && s.bookings[i].Status == booking.StatusPending {
			s.bookings[i].ProviderID = &providerID
			s.bookings[i].Status = booking.StatusConfirmed
			b := s.bookings[i]
			return &b, nil
		}
	}
	return nil, booking.ErrBookingNotFound
}

func (s *stubRepo) ListActiveProviderDates(_ context.Context, _ string, _ int) ([]booking.ProviderDate, error) {
	return nil, nil
}

func (s *stubRepo) InsertEvent(_ context.Context, _ booking.EventLog) error { return nil }

// stubLocker runs the critical section inline.
type stubLocker struct{}

func (stubLocker) WithAssignmentLock(ctx context.Context, _ uuid.UUID, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// stubCache never holds anything, so every read goes to the repo.
type stubCache struct{}

func (stubCache) Get(context.Context, uuid.UUID, string) ([]byte, bool, error) {
	return nil, false, nil
}
func (stubCache) Set(context.Context, uuid.UUID, string, []byte) error { return nil }
func (stubCache) Invalidate(context.Context, uuid.UUID, string) error  { return nil }

func newTestRouter(repo *stubRepo) http.Handler {
	svc := booking.NewService(repo, stubLocker{}, stubCache{}, booking.DefaultPrivacyPolicy(), nil)

	r := chi.NewRouter()
	r.Get("/providers/{id}/availability", checkAvailabilityHandler(svc))
	r.Get("/providers/{id}/schedule", providerScheduleHandler(svc))
	r.Post("/bookings/{id}/assign", assignProviderHandler(svc))
	r.Get("/bookings/{id}/contact", bookingContactHandler(svc))
	return r
}

func seededRepo() (*stubRepo, uuid.UUID, uuid.UUID) {
	providerID := uuid.New()
	customerID := uuid.New()
	repo := &stubRepo{
		provider: &booking.Provider{ID: providerID, Name: "Dana Wells"},
		customer: &booking.Customer{
			ID:   customerID,
			Name: "Sam Okafor",
			Contact: booking.ContactInfo{
				Phone:            "555-0199",
				Address:          "4 Elm Rd",
				EmergencyContact: "Lee (555-0198)",
			},
		},
	}
	return repo, providerID, customerID
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCheckAvailabilityHandler(t *testing.T) {
	repo, providerID, customerID := seededRepo()
	occupied := providerID
	repo.bookings = []booking.Booking{{
		ID:            uuid.New(),
		ProviderID:    &occupied,
		CustomerID:    customerID,
		ScheduledDate: "2024-06-15",
		ScheduledTime: "10:00",
		DurationHours: 1,
		Status:        booking.StatusConfirmed,
	}}
	router := newTestRouter(repo)

	t.Run("busy slot", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet,
			"/providers/"+providerID.String()+"/availability?date=2024-06-15&start=10:30&duration=1", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp AvailabilityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Available)
		assert.Equal(t, "busy at this time", resp.Reason)
	})

	t.Run("free slot", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet,
			"/providers/"+providerID.String()+"/availability?date=2024-06-15&start=14:00&duration=1", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp AvailabilityResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Available)
	})

	t.Run("invalid provider id", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet,
			"/providers/not-a-uuid/availability?date=2024-06-15&start=10:00&duration=1", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid date", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet,
			"/providers/"+providerID.String()+"/availability?date=June-15&start=10:00&duration=1", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-positive duration", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet,
			"/providers/"+providerID.String()+"/availability?date=2024-06-15&start=10:00&duration=0", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown provider", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet,
			"/providers/"+uuid.NewString()+"/availability?date=2024-06-15&start=10:00&duration=1", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestProviderScheduleHandler(t *testing.T) {
	repo, providerID, customerID := seededRepo()
	occupied := providerID
	repo.bookings = []booking.Booking{
		{
			ID: uuid.New(), ProviderID: &occupied, CustomerID: customerID,
			ScheduledDate: "2024-06-15", ScheduledTime: "09:00", DurationHours: 1,
			Status: booking.StatusConfirmed,
		},
		{
			ID: uuid.New(), ProviderID: &occupied, CustomerID: customerID,
			ScheduledDate: "2024-06-16", ScheduledTime: "09:00", DurationHours: 1,
			Status: booking.StatusConfirmed,
		},
	}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet,
		"/providers/"+providerID.String()+"/schedule?date=2024-06-15", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ScheduleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2024-06-15", resp.Date)
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, "09:00", resp.Bookings[0].ScheduledTime)
}

func TestAssignProviderHandler(t *testing.T) {
	t.Run("assigns pending booking", func(t *testing.T) {
		repo, providerID, customerID := seededRepo()
		bookingID := uuid.New()
		repo.bookings = []booking.Booking{{
			ID: bookingID, CustomerID: customerID,
			ScheduledDate: "2024-06-15", ScheduledTime: "10:00", DurationHours: 1,
			Status: booking.StatusPending,
		}}
		router := newTestRouter(repo)

		rec := doRequest(t, router, http.MethodPost,
			"/bookings/"+bookingID.String()+"/assign",
			`{"provider_id":"`+providerID.String()+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp BookingResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "confirmed", resp.Status)
		require.NotNil(t, resp.ProviderID)
		assert.Equal(t, providerID, *resp.ProviderID)
	})

	t.Run("conflict when provider is busy", func(t *testing.T) {
		repo, providerID, customerID := seededRepo()
		occupied := providerID
		bookingID := uuid.New()
		repo.bookings = []booking.Booking{
			{
				ID: uuid.New(), ProviderID: &occupied, CustomerID: customerID,
				ScheduledDate: "2024-06-15", ScheduledTime: "10:00", DurationHours: 2,
				Status: booking.StatusConfirmed,
			},
			{
				ID: bookingID, CustomerID: customerID,
				ScheduledDate: "2024-06-15", ScheduledTime: "11:00", DurationHours: 1,
				Status: booking.StatusPending,
			},
		}
		router := newTestRouter(repo)

		rec := doRequest(t, router, http.MethodPost,
			"/bookings/"+bookingID.String()+"/assign",
			`{"provider_id":"`+providerID.String()+`"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "provider_busy", resp.Error)
	})

	t.Run("conflict when booking already confirmed", func(t *testing.T) {
		repo, providerID, customerID := seededRepo()
		occupied := providerID
		bookingID := uuid.New()
		repo.bookings = []booking.Booking{{
			ID: bookingID, ProviderID: &occupied, CustomerID: customerID,
			ScheduledDate: "2024-06-15", ScheduledTime: "10:00", DurationHours: 1,
			Status: booking.StatusConfirmed,
		}}
		router := newTestRouter(repo)

		rec := doRequest(t, router, http.MethodPost,
			"/bookings/"+bookingID.String()+"/assign",
			`{"provider_id":"`+providerID.String()+`"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("bad body", func(t *testing.T) {
		repo, _, _ := seededRepo()
		router := newTestRouter(repo)

		rec := doRequest(t, router, http.MethodPost,
			"/bookings/"+uuid.NewString()+"/assign", `{"provider_id":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown booking", func(t *testing.T) {
		repo, providerID, _ := seededRepo()
		router := newTestRouter(repo)

		rec := doRequest(t, router, http.MethodPost,
			"/bookings/"+uuid.NewString()+"/assign",
			`{"provider_id":"`+providerID.String()+`"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBookingContactHandler(t *testing.T) {
	repo, providerID, customerID := seededRepo()
	occupied := providerID
	bookingID := uuid.New()

	// Scheduled far in the future so a provider viewing today is outside
	// the disclosure window.
	repo.bookings = []booking.Booking{{
		ID: bookingID, ProviderID: &occupied, CustomerID: customerID,
		ScheduledDate: "2099-06-15", ScheduledTime: "10:00", DurationHours: 1,
		Status: booking.StatusConfirmed,
	}}
	router := newTestRouter(repo)

	t.Run("admin sees contact", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet,
			"/bookings/"+bookingID.String()+"/contact?viewer_role=admin", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ContactResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Visible)
		assert.Equal(t, "555-0199", resp.Phone)
	})

	t.Run("role casing is normalized", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet,
			"/bookings/"+bookingID.String()+"/contact?viewer_role=Admin", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ContactResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Visible)
	})

	t.Run("provider outside window gets placeholders", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet,
			"/bookings/"+bookingID.String()+"/contact?viewer_role=provider", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ContactResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Visible)
		assert.Equal(t, booking.ProtectedPlaceholder, resp.Phone)
		assert.Equal(t, booking.ProtectedPlaceholder, resp.Address)
		assert.Equal(t, booking.ProtectedPlaceholder, resp.EmergencyContact)
	})

	t.Run("unknown role is denied", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet,
			"/bookings/"+bookingID.String()+"/contact?viewer_role=auditor", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ContactResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Visible)
	})

	t.Run("unknown booking", func(t *testing.T) {
		rec := doRequest(t, router, http.MethodGet,
			"/bookings/"+uuid.NewString()+"/contact?viewer_role=admin", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
