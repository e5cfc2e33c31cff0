package ratelimit_test

import (
	"net/http/httptest"
	"testing"

	"github.com/imaggar-technologies/brintelli/internal/app/system/ratelimit"
)

func TestLimiter_BurstThenBlock(t *testing.T) {
	l := ratelimit.New(3, 3)
	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("fourth request should be blocked")
	}
	if !l.Allow("5.6.7.8") {
		t.Error("other keys have their own bucket")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := ratelimit.New(1, 1)
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("second request should be blocked")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("reset key should be allowed again")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/auth/login", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	if got := ratelimit.ClientIP(r); got != "10.0.0.9" {
		t.Errorf("ClientIP = %q, want 10.0.0.9", got)
	}

	r.Header.Set("X-Real-IP", " 172.16.0.2 ")
	if got := ratelimit.ClientIP(r); got != "172.16.0.2" {
		t.Errorf("ClientIP = %q, want X-Real-IP", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ratelimit.ClientIP(r); got != "203.0.113.7" {
		t.Errorf("ClientIP = %q, want first X-Forwarded-For hop", got)
	}
}

func TestLoginLimiter_PerEmail(t *testing.T) {
	ll := ratelimit.NewLoginLimiter(10) // 2 per email
	for i := 0; i < 2; i++ {
		r := httptest.NewRequest("POST", "/", nil)
		r.RemoteAddr = "10.0.0.1:1"
		if ok, _ := ll.Check(r, "Agent@Brintelli.test"); !ok {
			t.Fatalf("attempt %d should pass", i)
		}
	}

	r := httptest.NewRequest("POST", "/", nil)
	r.RemoteAddr = "10.0.0.2:1"
	ok, msg := ll.Check(r, "agent@brintelli.test")
	if ok || msg == "" {
		t.Errorf("third attempt for the same account should be blocked, got ok=%v msg=%q", ok, msg)
	}

	ll.ResetEmail("AGENT@brintelli.test")
	if ok, _ := ll.Check(r, "agent@brintelli.test"); !ok {
		t.Error("reset account should pass")
	}
}
