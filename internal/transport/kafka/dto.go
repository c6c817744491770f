package kafka

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/events"
)

// EventDTO is a data transfer object for events.Event
type EventDTO struct {
	Type       string       `json:"type"`
	OrderID    string       `json:"order_id,omitempty"`
	GroupID    string       `json:"group_id,omitempty"`
	CourierID  string       `json:"courier_id,omitempty"`
	Origin     *LocationDTO `json:"origin,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// LocationDTO is a pickup coordinate on the wire
type LocationDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ToDomain converts EventDTO to events.Event
func ToDomain(dto EventDTO) events.Event {
	ev := events.Event{
		Type:       strings.TrimSpace(dto.Type),
		OrderID:    strings.TrimSpace(dto.OrderID),
		GroupID:    strings.TrimSpace(dto.GroupID),
		CourierID:  strings.TrimSpace(dto.CourierID),
		OccurredAt: dto.OccurredAt,
	}
	if dto.Origin != nil {
		ev.Origin = &domain.Location{Latitude: dto.Origin.Lat, Longitude: dto.Origin.Lon}
	}
	return ev
}

// subject returns the id an event is about; empty events are skipped.
func subject(ev events.Event) string {
	if isCourierEvent(ev) {
		return ev.CourierID
	}
	return ev.OrderID
}

// decode parses a message value. Producers key messages by group or courier id,
// so the key stands in for a missing subject.
func decode(msg *sarama.ConsumerMessage) (events.Event, error) {
	var dto EventDTO
	if err := json.Unmarshal(msg.Value, &dto); err != nil {
		return events.Event{}, err
	}
	ev := ToDomain(dto)
	if subject(ev) != "" || len(msg.Key) == 0 {
		return ev, nil
	}
	key := strings.TrimSpace(string(msg.Key))
	if isCourierEvent(ev) {
		ev.CourierID = key
	} else {
		ev.OrderID = key
	}
	return ev, nil
}

func isCourierEvent(ev events.Event) bool {
	return strings.HasPrefix(strings.ToLower(ev.Type), "courier.")
}
