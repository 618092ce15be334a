package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carelink/booking-availability/internal/booking"
	redisclient "github.com/carelink/booking-availability/internal/redis"
)

func checkAvailabilityHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "id must be a valid UUID")
			return
		}

		q := r.URL.Query()

		date := q.Get("date")
		if _, err := time.Parse("2006-01-02", date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		start := q.Get("start")
		duration, err := strconv.ParseFloat(q.Get("duration"), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_duration", "duration must be a number of hours")
			return
		}

		slot := booking.Slot{Date: date, StartTime: start, DurationHours: duration}

		decision, err := svc.CheckAvailability(r.Context(), providerID, slot)
		if err != nil {
			handleAvailabilityError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, AvailabilityResponse{
			ProviderID: providerID,
			Date:       slot.Date,
			StartTime:  slot.StartTime,
			Duration:   slot.DurationHours,
			Available:  decision.Available,
			Reason:     decision.Reason,
		})
	}
}

func providerScheduleHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "id must be a valid UUID")
			return
		}

		date := r.URL.Query().Get("date")
		if _, err := time.Parse("2006-01-02", date); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		bookings, err := svc.ProviderSchedule(r.Context(), providerID, date)
		if err != nil {
			handleAvailabilityError(w, err)
			return
		}

		resp := ScheduleResponse{
			ProviderID: providerID,
			Date:       date,
			Bookings:   make([]BookingResponse, 0, len(bookings)),
		}
		for _, b := range bookings {
			resp.Bookings = append(resp.Bookings, toBookingResponse(b))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func assignProviderHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		var req AssignProviderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		providerID, err := uuid.Parse(req.ProviderID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_provider_id", "provider_id must be a valid UUID")
			return
		}

		b, err := svc.AssignProvider(r.Context(), bookingID, providerID)
		if err != nil {
			handleAssignError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookingResponse(*b))
	}
}

func bookingContactHandler(svc *booking.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_booking_id", "id must be a valid UUID")
			return
		}

		// Unknown roles are passed through; the privacy evaluator denies
		// them rather than the transport rejecting the request.
		role := booking.Role(strings.ToLower(r.URL.Query().Get("viewer_role")))

		disclosure, err := svc.GetBookingContact(r.Context(), bookingID, role, time.Now())
		if err != nil {
			handleContactError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ContactResponse{
			BookingID:        disclosure.BookingID,
			CustomerName:     disclosure.CustomerName,
			ScheduledDate:    disclosure.ScheduledDate,
			Phone:            disclosure.Contact.Phone,
			Address:          disclosure.Contact.Address,
			EmergencyContact: disclosure.Contact.EmergencyContact,
			Visible:          disclosure.Decision.Visible,
			Reason:           disclosure.Decision.Reason,
		})
	}
}

func handleAvailabilityError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrProviderNotFound):
		writeError(w, http.StatusNotFound, "provider_not_found", err.Error())
	case errors.Is(err, booking.ErrInvalidDuration):
		writeError(w, http.StatusBadRequest, "invalid_duration", err.Error())
	case errors.Is(err, booking.ErrInvalidStartTime):
		writeError(w, http.StatusBadRequest, "invalid_start_time", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleAssignError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, booking.ErrProviderNotFound):
		writeError(w, http.StatusNotFound, "provider_not_found", err.Error())
	case errors.Is(err, booking.ErrBookingNotAssignable):
		writeError(w, http.StatusConflict, "booking_not_assignable", err.Error())
	case errors.Is(err, booking.ErrProviderBusy):
		writeError(w, http.StatusConflict, "provider_busy", err.Error())
	case errors.Is(err, booking.ErrAssignmentInProgress),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "assignment_in_progress", "provider is currently being assigned, please retry shortly")
	case errors.Is(err, booking.ErrInvalidDuration),
		errors.Is(err, booking.ErrInvalidStartTime):
		writeError(w, http.StatusUnprocessableEntity, "malformed_booking", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleContactError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, booking.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, "customer_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
