package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	redisclient "github.com/carelink/booking-availability/internal/redis"
)

const (
	EventAvailabilityChecked = "AVAILABILITY_CHECKED"
	EventProviderAssigned    = "PROVIDER_ASSIGNED"
	EventContactDisclosed    = "CONTACT_DISCLOSED"
	EventContactWithheld     = "CONTACT_WITHHELD"
)

var (
	ErrProviderBusy         = errors.New("provider is busy at this time")
	ErrAssignmentInProgress = errors.New("provider is currently being assigned, please retry")
	ErrBookingNotAssignable = errors.New("booking is not awaiting provider assignment")
)

// ScheduleCache is the slice of the redis cache the service needs; it keeps
// serialized day schedules for the dashboards' polling cadence.
type ScheduleCache interface {
	Get(ctx context.Context, providerID uuid.UUID, date string) ([]byte, bool, error)
	Set(ctx context.Context, providerID uuid.UUID, date string, payload []byte) error
	Invalidate(ctx context.Context, providerID uuid.UUID, date string) error
}

type Service struct {
	repo    Repository
	locker  redisclient.Locker
	cache   ScheduleCache
	privacy PrivacyPolicy
	logger  *zap.Logger
}

func NewService(repo Repository, locker redisclient.Locker, cache ScheduleCache, privacy PrivacyPolicy, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:    repo,
		locker:  locker,
		cache:   cache,
		privacy: privacy,
		logger:  logger,
	}
}

// AvailabilityDecision is what the dashboards render as the
// "Available" / "Busy at this time" badge.
type AvailabilityDecision struct {
	Available bool
	Reason    string
}

// ContactDisclosure carries a booking's customer contact fields after the
// privacy policy has been applied.
type ContactDisclosure struct {
	BookingID     uuid.UUID
	CustomerName  string
	ScheduledDate string
	Contact       ContactInfo
	Decision      Decision
}

// CheckAvailability decides whether a provider is free for the candidate
// slot, using the cached day schedule when it is warm.
func (s *Service) CheckAvailability(ctx context.Context, providerID uuid.UUID, slot Slot) (*AvailabilityDecision, error) {
	if _, err := s.repo.GetProviderByID(ctx, providerID); err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load provider: %w", err)
	}

	bookings, err := s.daySchedule(ctx, providerID, slot.Date)
	if err != nil {
		return nil, fmt.Errorf("load provider schedule: %w", err)
	}

	busy, err := IsSlotBusy(bookings, slot)
	if err != nil {
		return nil, err
	}

	decision := &AvailabilityDecision{Available: !busy, Reason: "available"}
	if busy {
		decision.Reason = "busy at this time"
	}

	s.logEvent(ctx, nil, EventAvailabilityChecked, map[string]any{
		"provider_id": providerID.String(),
		"date":        slot.Date,
		"start_time":  slot.StartTime,
		"duration":    slot.DurationHours,
		"available":   decision.Available,
	})

	return decision, nil
}

// ProviderSchedule returns a provider's bookings for one date, cache-aside.
func (s *Service) ProviderSchedule(ctx context.Context, providerID uuid.UUID, date string) ([]Booking, error) {
	if _, err := s.repo.GetProviderByID(ctx, providerID); err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load provider: %w", err)
	}
	return s.daySchedule(ctx, providerID, date)
}

// AssignProvider confirms a pending booking against a provider. The conflict
// re-check and the status flip run under a per provider-day lock so two
// concurrent assignments cannot both see the slot as free.
func (s *Service) AssignProvider(ctx context.Context, bookingID, providerID uuid.UUID) (*Booking, error) {
	b, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if b.Status != StatusPending {
		return nil, ErrBookingNotAssignable
	}

	if _, err := s.repo.GetProviderByID(ctx, providerID); err != nil {
		if errors.Is(err, ErrProviderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load provider: %w", err)
	}

	slot := Slot{
		Date:          b.ScheduledDate,
		StartTime:     b.ScheduledTime,
		DurationHours: b.DurationHours,
	}

	var assigned *Booking

	err = s.locker.WithAssignmentLock(ctx, providerID, slot.Date, func(lockCtx context.Context) error {
		// Re-read the schedule from the store inside the critical section;
		// the cache may be up to one polling interval stale.
		existing, err := s.repo.ListProviderBookings(lockCtx, providerID, slot.Date)
		if err != nil {
			return fmt.Errorf("list provider bookings: %w", err)
		}

		busy, err := IsSlotBusy(existing, slot)
		if err != nil {
			return err
		}
		if busy {
			return ErrProviderBusy
		}

		updated, err := s.repo.AssignProvider(lockCtx, bookingID, providerID)
		if err != nil {
			if errors.Is(err, ErrBookingNotFound) {
				return ErrBookingNotAssignable
			}
			return fmt.Errorf("assign provider: %w", err)
		}
		assigned = updated

		if err := s.cache.Invalidate(lockCtx, providerID, slot.Date); err != nil {
			s.logger.Warn("schedule cache invalidation failed",
				zap.String("provider_id", providerID.String()),
				zap.String("date", slot.Date),
				zap.Error(err))
		}

		s.logEvent(lockCtx, &bookingID, EventProviderAssigned, map[string]any{
			"provider_id": providerID.String(),
			"date":        slot.Date,
			"start_time":  slot.StartTime,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrAssignmentInProgress
		}
		return nil, err
	}

	return assigned, nil
}

// GetBookingContact fetches a booking's customer contact fields with the
// privacy policy applied for the viewer's role. Fields the viewer may not
// see come back as the protected placeholder, never the real value.
func (s *Service) GetBookingContact(ctx context.Context, bookingID uuid.UUID, role Role, now time.Time) (*ContactDisclosure, error) {
	detail, err := s.repo.GetBookingDetail(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking detail: %w", err)
	}

	decision := s.privacy.ContactVisibility(detail.ScheduledDate, role, now)

	eventType := EventContactWithheld
	if decision.Visible {
		eventType = EventContactDisclosed
	}
	s.logEvent(ctx, &bookingID, eventType, map[string]any{
		"viewer_role": string(role),
		"reason":      decision.Reason,
	})

	return &ContactDisclosure{
		BookingID:     detail.ID,
		CustomerName:  detail.Customer.Name,
		ScheduledDate: detail.ScheduledDate,
		Contact:       RedactContact(detail.Customer.Contact, decision.Visible),
		Decision:      decision,
	}, nil
}

// RefreshSchedules re-warms the day-schedule cache for every provider/date
// pair with occupying bookings inside the horizon. Called by the refresh
// worker on the same cadence the dashboards used to poll on.
func (s *Service) RefreshSchedules(ctx context.Context, from string, horizonDays int) (int, error) {
	pairs, err := s.repo.ListActiveProviderDates(ctx, from, horizonDays)
	if err != nil {
		return 0, fmt.Errorf("list active provider dates: %w", err)
	}

	refreshed := 0
	for _, pd := range pairs {
		bookings, err := s.repo.ListProviderBookings(ctx, pd.ProviderID, pd.Date)
		if err != nil {
			s.logger.Warn("schedule refresh load failed",
				zap.String("provider_id", pd.ProviderID.String()),
				zap.String("date", pd.Date),
				zap.Error(err))
			continue
		}
		if err := s.storeSchedule(ctx, pd.ProviderID, pd.Date, bookings); err != nil {
			continue
		}
		refreshed++
	}

	return refreshed, nil
}

// daySchedule loads a provider's bookings for a date through the cache.
// Cache failures degrade to the store; they are logged, never fatal.
func (s *Service) daySchedule(ctx context.Context, providerID uuid.UUID, date string) ([]Booking, error) {
	if payload, ok, err := s.cache.Get(ctx, providerID, date); err != nil {
		s.logger.Warn("schedule cache read failed",
			zap.String("provider_id", providerID.String()),
			zap.Error(err))
	} else if ok {
		var bookings []Booking
		if err := json.Unmarshal(payload, &bookings); err == nil {
			return bookings, nil
		}
		s.logger.Warn("schedule cache entry corrupt, falling back to store",
			zap.String("provider_id", providerID.String()),
			zap.String("date", date))
	}

	bookings, err := s.repo.ListProviderBookings(ctx, providerID, date)
	if err != nil {
		return nil, err
	}

	_ = s.storeSchedule(ctx, providerID, date, bookings)

	return bookings, nil
}

func (s *Service) storeSchedule(ctx context.Context, providerID uuid.UUID, date string, bookings []Booking) error {
	payload, err := json.Marshal(bookings)
	if err != nil {
		s.logger.Warn("schedule marshal failed", zap.Error(err))
		return err
	}
	if err := s.cache.Set(ctx, providerID, date, payload); err != nil {
		s.logger.Warn("schedule cache write failed",
			zap.String("provider_id", providerID.String()),
			zap.String("date", date),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) logEvent(ctx context.Context, bookingID *uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("marshal event payload failed",
			zap.String("event_type", eventType),
			zap.Error(err))
		data = nil
	}

	ev := EventLog{
		EventType: eventType,
		BookingID: bookingID,
		Payload:   data,
		CreatedAt: time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Warn("insert event log failed",
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}
