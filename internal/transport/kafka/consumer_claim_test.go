package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"

	"service-dispatch/internal/service/events"
	testlog "service-dispatch/internal/testutil"
)

type fakeSession struct {
	ctx context.Context

	mu     sync.Mutex
	marked int
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(*sarama.ConsumerMessage, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked++
}

func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "" }
func (s *fakeSession) GenerationID() int32                      { return 0 }

func (s *fakeSession) MarkedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marked
}

type fakeClaim struct {
	ch chan *sarama.ConsumerMessage
}

func (c fakeClaim) Topic() string              { return "t" }
func (c fakeClaim) Partition() int32           { return 0 }
func (c fakeClaim) InitialOffset() int64       { return 0 }
func (c fakeClaim) HighWaterMarkOffset() int64 { return 0 }
func (c fakeClaim) Messages() <-chan *sarama.ConsumerMessage {
	return c.ch
}

func claimOf(msgs ...*sarama.ConsumerMessage) fakeClaim {
	ch := make(chan *sarama.ConsumerMessage, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	close(ch)
	return fakeClaim{ch: ch}
}

func jsonMsg(t *testing.T, dto EventDTO) *sarama.ConsumerMessage {
	t.Helper()
	b, err := json.Marshal(dto)
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "orders", Value: b}
}

func TestConsumeClaim(t *testing.T) {
	t.Parallel()

	transient := errors.New("db down")

	tests := []struct {
		name       string
		msgs       func(t *testing.T) []*sarama.ConsumerMessage
		handlerErr error
		wantErr    error
		wantCalls  int
		wantMarked int
		wantLog    string
	}{
		{
			name: "bad json is skipped",
			msgs: func(*testing.T) []*sarama.ConsumerMessage {
				return []*sarama.ConsumerMessage{{Value: []byte("not-json")}}
			},
			wantMarked: 1,
			wantLog:    "kafka bad json",
		},
		{
			name: "blank subject is skipped",
			msgs: func(t *testing.T) []*sarama.ConsumerMessage {
				return []*sarama.ConsumerMessage{jsonMsg(t, EventDTO{Type: "order.created", OrderID: "   "})}
			},
			wantMarked: 1,
			wantLog:    "kafka empty event subject",
		},
		{
			name: "permanent failure is committed",
			msgs: func(t *testing.T) []*sarama.ConsumerMessage {
				return []*sarama.ConsumerMessage{jsonMsg(t, EventDTO{Type: "order.created", OrderID: "o1", OccurredAt: time.Now().UTC()})}
			},
			handlerErr: Permanent(errors.New("order without origin")),
			wantCalls:  1,
			wantMarked: 1,
			wantLog:    "kafka handle failed, skipping message",
		},
		{
			name: "transient failure stops the claim before later events",
			msgs: func(t *testing.T) []*sarama.ConsumerMessage {
				return []*sarama.ConsumerMessage{
					jsonMsg(t, EventDTO{Type: "order.completed", OrderID: "o1"}),
					jsonMsg(t, EventDTO{Type: "order.completed", OrderID: "o2"}),
				}
			},
			handlerErr: transient,
			wantErr:    transient,
			wantCalls:  1,
			wantLog:    "kafka handle failed, retry",
		},
		{
			name: "handled events are committed",
			msgs: func(t *testing.T) []*sarama.ConsumerMessage {
				return []*sarama.ConsumerMessage{
					jsonMsg(t, EventDTO{Type: "courier.online", CourierID: "c1"}),
					jsonMsg(t, EventDTO{Type: "order.cancelled", OrderID: "o1"}),
				}
			},
			wantCalls:  2,
			wantMarked: 2,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := testlog.New()
			var mu sync.Mutex
			calls := 0
			h := &groupHandler{c: &Consumer{
				logger: rec.Logger(),
				handler: func(context.Context, events.Event) error {
					mu.Lock()
					defer mu.Unlock()
					calls++
					return tt.handlerErr
				},
			}}
			sess := &fakeSession{ctx: context.Background()}

			err := h.ConsumeClaim(sess, claimOf(tt.msgs(t)...))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.wantCalls, calls)
			require.Equal(t, tt.wantMarked, sess.MarkedCount())
			if tt.wantLog != "" {
				require.True(t, hasMsg(rec.Entries(), tt.wantLog), "missing log %q", tt.wantLog)
			}
		})
	}
}

func TestConsumeClaim_KeyFillsMissingSubject(t *testing.T) {
	t.Parallel()

	var got []events.Event
	h := &groupHandler{c: &Consumer{
		logger: testlog.New().Logger(),
		handler: func(_ context.Context, ev events.Event) error {
			got = append(got, ev)
			return nil
		},
	}}

	courier := jsonMsg(t, EventDTO{Type: "courier.offline"})
	courier.Key = []byte("c-7")
	order := jsonMsg(t, EventDTO{Type: "order.cancelled"})
	order.Key = []byte(" g-1 ")

	require.NoError(t, h.ConsumeClaim(&fakeSession{ctx: context.Background()}, claimOf(courier, order)))
	require.Len(t, got, 2)
	require.Equal(t, "c-7", got[0].CourierID)
	require.Empty(t, got[0].OrderID)
	require.Equal(t, "g-1", got[1].OrderID)
}

func hasMsg(entries []testlog.Entry, msg string) bool {
	for _, e := range entries {
		if e.Msg == msg {
			return true
		}
	}
	return false
}
