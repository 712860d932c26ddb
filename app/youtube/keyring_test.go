package youtube

import (
	"errors"
	"testing"
)

func TestNewKeyRing_Empty(t *testing.T) {
	if _, err := NewKeyRing(nil); !errors.Is(err, ErrNoAPIKeys) {
		t.Errorf("expected ErrNoAPIKeys, got %v", err)
	}
}

func TestKeyRing_RotationIsDeterministic(t *testing.T) {
	ring, err := NewKeyRing([]string{"k1", "k2", "k3"})
	if err != nil {
		t.Fatalf("NewKeyRing error: %v", err)
	}

	key, err := ring.AcquireKey()
	if err != nil {
		t.Fatalf("AcquireKey error: %v", err)
	}
	if key != "k1" {
		t.Errorf("first key = %q, want k1", key)
	}

	ring.ReportQuotaExhausted("k1")
	if key, _ = ring.AcquireKey(); key != "k2" {
		t.Errorf("after k1 exhausted, key = %q, want k2", key)
	}

	// Reporting out of order still skips all exhausted keys.
	ring.ReportQuotaExhausted("k3")
	if key, _ = ring.AcquireKey(); key != "k2" {
		t.Errorf("after k3 exhausted, key = %q, want k2", key)
	}
	if ring.Remaining() != 1 {
		t.Errorf("Remaining() = %d, want 1", ring.Remaining())
	}
}

func TestKeyRing_AllExhausted(t *testing.T) {
	ring, _ := NewKeyRing([]string{"k1", "k2"})

	if ring.AllExhausted() {
		t.Error("fresh ring reports exhausted")
	}

	ring.ReportQuotaExhausted("k1")
	ring.ReportQuotaExhausted("k2")

	if !ring.AllExhausted() {
		t.Error("ring with all keys spent reports usable")
	}
	if _, err := ring.AcquireKey(); !errors.Is(err, ErrQuotaExhausted) {
		t.Errorf("expected ErrQuotaExhausted, got %v", err)
	}
}

func TestKeyRing_DoubleReportIsHarmless(t *testing.T) {
	ring, _ := NewKeyRing([]string{"k1", "k2"})

	ring.ReportQuotaExhausted("k1")
	ring.ReportQuotaExhausted("k1")

	if ring.Remaining() != 1 {
		t.Errorf("Remaining() = %d after double report, want 1", ring.Remaining())
	}
}
