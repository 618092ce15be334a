package booking

import (
	"time"
)

// ProtectedPlaceholder replaces any contact field the viewer may not see.
const ProtectedPlaceholder = "protected"

// Decision is the outcome of a contact-visibility check.
type Decision struct {
	Visible bool
	Reason  string
}

const (
	reasonFullAccess      = "full access for this role"
	reasonWithinWindow    = "available within service window"
	reasonNotYetAvailable = "not yet available; opens 24 hours before service"
	reasonExpired         = "expired; was available only until 24 hours after service"
	reasonUnknownRole     = "role not recognized; access denied by default"
	reasonInvalidDate     = "service date unknown; access denied by default"
)

// PrivacyPolicy decides whether customer contact details may be disclosed.
// Providers only see contact information inside a day-granular window
// spanning the day before the service date through the day after it, both
// boundary days included. Location controls which calendar day an instant
// falls on; the booking store never recorded a zone, so this stays a
// deployment choice.
type PrivacyPolicy struct {
	Location *time.Location
}

// DefaultPrivacyPolicy evaluates calendar days in UTC.
func DefaultPrivacyPolicy() PrivacyPolicy {
	return PrivacyPolicy{Location: time.UTC}
}

// ContactVisibility is a pure function of (scheduledDate, role, now). It
// never returns an error: an unparseable date or unknown role denies access,
// the safe default when certainty is unavailable.
func (p PrivacyPolicy) ContactVisibility(scheduledDate string, role Role, now time.Time) Decision {
	switch role {
	case RoleAdmin, RoleCustomer:
		return Decision{Visible: true, Reason: reasonFullAccess}
	case RoleProvider:
		// fall through to the window check below
	default:
		return Decision{Visible: false, Reason: reasonUnknownRole}
	}

	serviceDay, err := parseDate(scheduledDate)
	if err != nil {
		return Decision{Visible: false, Reason: reasonInvalidDate}
	}

	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}

	windowStart := serviceDay.AddDate(0, 0, -1)
	windowEnd := serviceDay.AddDate(0, 0, 1)
	today := dateOf(now, loc)

	switch {
	case today.Before(windowStart):
		return Decision{Visible: false, Reason: reasonNotYetAvailable}
	case today.After(windowEnd):
		return Decision{Visible: false, Reason: reasonExpired}
	default:
		return Decision{Visible: true, Reason: reasonWithinWindow}
	}
}

// FormatProtectedField returns the value only when the decision allowed it.
// The not-visible branch must never leak the real value, whatever it holds.
func FormatProtectedField(value string, visible bool) string {
	if !visible {
		return ProtectedPlaceholder
	}
	return value
}

// RedactContact applies FormatProtectedField across every gated field.
func RedactContact(c ContactInfo, visible bool) ContactInfo {
	return ContactInfo{
		Phone:            FormatProtectedField(c.Phone, visible),
		Address:          FormatProtectedField(c.Address, visible),
		EmergencyContact: FormatProtectedField(c.EmergencyContact, visible),
	}
}
