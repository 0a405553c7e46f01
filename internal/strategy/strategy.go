package strategy

import (
	"math"
	"time"

	"stratsim/internal/instrument"
)

// Trend is the local price direction a subroutine has most recently observed.
type Trend int

const (
	TrendUnset Trend = iota
	TrendRising
	TrendFalling
)

func (t Trend) String() string {
	switch t {
	case TrendRising:
		return "rising"
	case TrendFalling:
		return "falling"
	default:
		return "unset"
	}
}

// ArmState marks a pending trade trigger: a stepped threshold has been
// crossed and the subroutine is waiting for a confirming move.
type ArmState int

const (
	ArmIdle ArmState = iota
	ArmedBuy
	ArmedSell
)

func (a ArmState) String() string {
	switch a {
	case ArmedBuy:
		return "armed-buy"
	case ArmedSell:
		return "armed-sell"
	default:
		return "idle"
	}
}

// Subroutine is a stateful decision unit tracing one instrument. Each call to
// Update consumes the instrument's current tick and returns a signed trade
// proposal: positive to buy, negative to sell, zero for no trade.
type Subroutine interface {
	Update() float64
}

// reversalTracker is the direction/extremum state machine shared by Chasing
// and TurningPoint: it watches tick-to-tick direction and records the
// pre-reversal price as a local high (on a down reversal) or low (on an up
// reversal).
type reversalTracker struct {
	direction Trend
	high, low float64
	highs     []float64
	lows      []float64
	history   instrument.Series
}

func newReversalTracker(inst *instrument.Instrument) reversalTracker {
	t := reversalTracker{
		high: math.Inf(-1),
		low:  math.Inf(1),
	}
	t.history.Append(inst.Time(), inst.Price())
	return t
}

// observe folds one tick into the tracker. The boolean is false when the
// price is unchanged or this is the very first direction observation; in
// both cases the caller must treat the tick as a no-op.
func (t *reversalTracker) observe(ts time.Time, price float64) (Trend, bool) {
	last, _ := t.history.Last()
	prev := last.Value
	t.history.Append(ts, price)

	var dir Trend
	switch {
	case price > prev:
		dir = TrendRising
	case price < prev:
		dir = TrendFalling
	default:
		return TrendUnset, false
	}

	if t.direction == TrendUnset {
		t.direction = dir
		return dir, false
	}

	if t.direction == TrendRising && dir == TrendFalling {
		t.high = prev
		t.highs = append(t.highs, prev)
	} else if t.direction == TrendFalling && dir == TrendRising {
		t.low = prev
		t.lows = append(t.lows, prev)
	}
	t.direction = dir
	return dir, true
}
