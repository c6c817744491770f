package kafka_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/service/events"
	"service-dispatch/internal/transport/kafka"
)

func TestToDomain_TrimsAndCopiesFields(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	var dto kafka.EventDTO
	raw := `{"type":" order.created ","order_id":"  order-1  ","group_id":"g-1",
		"origin":{"lat":28.6138,"lon":77.2089},"occurred_at":"2025-01-02T03:04:05Z"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &dto))

	got := kafka.ToDomain(dto)

	require.Equal(t, events.Event{
		Type:       "order.created",
		OrderID:    "order-1",
		GroupID:    "g-1",
		Origin:     &domain.Location{Latitude: 28.6138, Longitude: 77.2089},
		OccurredAt: ts,
	}, got)
}

func TestToDomain_NoOrigin(t *testing.T) {
	t.Parallel()

	got := kafka.ToDomain(kafka.EventDTO{Type: "courier.online", CourierID: " fb-a "})
	require.Nil(t, got.Origin)
	require.Equal(t, "fb-a", got.CourierID)
}
