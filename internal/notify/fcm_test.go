package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFCMSender_PostsMessage(t *testing.T) {
	t.Parallel()

	var got fcmRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	msg := testMessage("a")
	msg.Data["orderId"] = "o1"
	s := NewFCMSender(srv.URL, "secret", srv.Client())
	require.NoError(t, s.Send(context.Background(), msg))

	require.Equal(t, "Bearer secret", auth)
	require.Equal(t, "push-a", got.Message.Token)
	require.Equal(t, "New order", got.Message.Notification.Title)
	require.Equal(t, "o1", got.Message.Data["orderId"])
	require.Equal(t, msg.ID, got.Message.Data["notification_id"])
}

func TestFCMSender_StatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		status      int
		undelivered bool
	}{
		{name: "server error is retryable", status: http.StatusBadGateway},
		{name: "throttled is retryable", status: http.StatusTooManyRequests},
		{name: "bad token is final", status: http.StatusNotFound, undelivered: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			t.Cleanup(srv.Close)

			err := NewFCMSender(srv.URL, "", srv.Client()).Send(context.Background(), testMessage("a"))
			require.Error(t, err)
			require.Equal(t, tc.undelivered, isUndeliverable(err))
		})
	}
}

func TestFCMSender_EmptyPushID(t *testing.T) {
	t.Parallel()

	msg := testMessage("a")
	msg.PushID = ""
	err := NewFCMSender("http://127.0.0.1:0", "", nil).Send(context.Background(), msg)
	require.ErrorIs(t, err, ErrUndeliverable)
}

func isUndeliverable(err error) bool { return !isRetryable(err) }
