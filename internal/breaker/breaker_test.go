// Copyright 2025 James Ross
package breaker

import (
	"testing"
	"time"
)

// TestBreakerTripsOnCatalogAPIFailuresThenRecovers mirrors the lifecycle a
// catalog REST client drives it through: closed while healthy, open once the
// legacy or target catalog starts failing, half-open after cooldown, closed
// again once a probe succeeds.
func TestBreakerTripsOnCatalogAPIFailuresThenRecovers(t *testing.T) {
	cb := New(2*time.Second, 200*time.Millisecond, 0.5, 2)
	if cb.State() != Closed {
		t.Fatal("expected closed")
	}
	cb.Record(false)
	cb.Record(false)
	if cb.State() != Open {
		t.Fatal("expected open")
	}
	if cb.Allow() != false {
		t.Fatal("should not allow until cooldown")
	}
	time.Sleep(250 * time.Millisecond)
	if cb.Allow() != true {
		t.Fatal("should allow probe in half-open")
	}
	cb.Record(true)
	if cb.State() != Closed {
		t.Fatal("expected closed after probe success")
	}
}
