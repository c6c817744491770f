package domain

import "time"

// CourierID is the durable store identity of a courier.
type CourierID string

// Courier represents a delivery courier as seen by dispatch.
type Courier struct {
	ID           CourierID
	PushID       string // identity in the push-notification space, may be empty
	Online       bool
	Available    bool
	Location     *Location
	LastSeenAt   *time.Time
	LastOnlineAt *time.Time
}

// Eligible reports whether the courier may receive or claim offers.
func (c Courier) Eligible() bool {
	return c.Online && c.Available && c.Location != nil
}

// Matches reports whether id names this courier in either identity space.
func (c Courier) Matches(id CourierID) bool {
	if id == c.ID {
		return true
	}
	return c.PushID != "" && string(id) == c.PushID
}

// PushIdentity returns the identity used to address push notifications.
func (c Courier) PushIdentity() string {
	if c.PushID != "" {
		return c.PushID
	}
	return string(c.ID)
}
