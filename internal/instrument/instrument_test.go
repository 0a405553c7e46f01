package instrument

import (
	"math"
	"testing"
	"time"
)

func TestNewRejectsNegativeID(t *testing.T) {
	if _, err := New(-1, "ES", "ES", KindFuture); err == nil {
		t.Fatalf("expected error for negative id")
	}
}

func TestNewRejectsUnknownKind(t *testing.T) {
	if _, err := New(1, "ES", "ES", Kind("option")); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestPriceIsNaNBeforeFirstUpdate(t *testing.T) {
	inst, err := New(1, "Apple", "AAPL", KindStock)
	if err != nil {
		t.Fatalf("new instrument: %v", err)
	}
	if !math.IsNaN(inst.Price()) {
		t.Fatalf("expected NaN price before first update, got %v", inst.Price())
	}
	if inst.History().Len() != 0 {
		t.Fatalf("expected empty history, got %d points", inst.History().Len())
	}
}

func TestUpdateSetsPriceAndAppendsHistory(t *testing.T) {
	inst, err := New(1, "Apple", "AAPL", KindStock)
	if err != nil {
		t.Fatalf("new instrument: %v", err)
	}
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	inst.Update(ts, 187.5)

	if inst.Price() != 187.5 {
		t.Fatalf("expected price 187.5, got %v", inst.Price())
	}
	last, ok := inst.History().Last()
	if !ok {
		t.Fatalf("expected history to have a last entry")
	}
	if !last.Time.Equal(ts) || last.Value != 187.5 {
		t.Fatalf("expected last entry (%s, 187.5), got (%s, %v)", ts, last.Time, last.Value)
	}

	inst.Update(ts.Add(time.Minute), 188.0)
	if inst.History().Len() != 2 {
		t.Fatalf("expected 2 history points, got %d", inst.History().Len())
	}
}
