package traffic

import (
	"testing"
	"time"
)

func TestRecordAndCheckSpikeOnSixthHit(t *testing.T) {
	tr := NewTracker(Config{Window: 10 * time.Second, Threshold: 5})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		now := base.Add(time.Duration(i) * time.Second)
		if tr.RecordAndCheck("203.0.113.7", now) {
			t.Fatalf("hit %d should not spike", i+1)
		}
	}
	if !tr.RecordAndCheck("203.0.113.7", base.Add(5*time.Second)) {
		t.Fatalf("6th hit within window should spike")
	}
}

func TestRecordAndCheckEvictsOutsideWindow(t *testing.T) {
	window := 10 * time.Second
	tr := NewTracker(Config{Window: window, Threshold: 5})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		now := base.Add(time.Duration(i) * (window + time.Millisecond))
		if tr.RecordAndCheck("198.51.100.2", now) {
			t.Fatalf("spaced hit %d should never spike", i+1)
		}
	}
}

func TestRecordAndCheckAddressesAreIndependent(t *testing.T) {
	tr := NewTracker(Config{Window: 10 * time.Second, Threshold: 2})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tr.RecordAndCheck("a", base)
	tr.RecordAndCheck("a", base.Add(time.Second))
	if tr.RecordAndCheck("b", base.Add(2*time.Second)) {
		t.Fatalf("first hit from b should not spike")
	}
	if !tr.RecordAndCheck("a", base.Add(3*time.Second)) {
		t.Fatalf("3rd hit from a should spike with threshold 2")
	}
	if tr.TrackedAddresses() != 2 {
		t.Fatalf("expected 2 tracked addresses, got %d", tr.TrackedAddresses())
	}
}

func TestRecordAndCheckDefaults(t *testing.T) {
	tr := NewTracker(Config{})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if tr.RecordAndCheck("x", base.Add(time.Duration(i)*time.Second)) {
			t.Fatalf("default threshold should be 5, spiked at hit %d", i+1)
		}
	}
	if !tr.RecordAndCheck("x", base.Add(6*time.Second)) {
		t.Fatalf("expected spike on 6th hit with defaults")
	}
}
