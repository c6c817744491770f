package ratelimit

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP_FallbackToRemoteAddr(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "http://example/", nil)
	r.RemoteAddr = "not-a-hostport"

	if got := clientIP(r); got != "not-a-hostport" {
		t.Fatalf("expected remote addr fallback, got %q", got)
	}
}

func TestClientIP_Unknown(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("GET", "http://example/", nil)
	r.RemoteAddr = ""

	if got := clientIP(r); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

func TestLimitKey_PrefersCourierIdentity(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("POST", "http://example/couriers/c-42/heartbeat", nil)
	r.RemoteAddr = "1.2.3.4:5678"
	if got := limitKey(r); got != "courier:c-42" {
		t.Fatalf("expected courier key from path, got %q", got)
	}

	r = httptest.NewRequest("POST", "http://example/orders/o-1/accept", nil)
	r.RemoteAddr = "1.2.3.4:5678"
	r.Header.Set(CourierHeader, "fb-a")
	if got := limitKey(r); got != "courier:fb-a" {
		t.Fatalf("expected courier key from header, got %q", got)
	}

	r.Header.Del(CourierHeader)
	if got := limitKey(r); got != "ip:1.2.3.4" {
		t.Fatalf("expected ip key, got %q", got)
	}
}
