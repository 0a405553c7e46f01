package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurningPointRejectsUnknownMode(t *testing.T) {
	inst, _ := tickInstrument(t, 100)
	_, err := NewTurningPoint(inst, TurningPointConfig{Mode: "shrink"}, quietLogger())
	require.Error(t, err)
}

func TestTurningPointBuyThenSellRoundTrip(t *testing.T) {
	inst, step := tickInstrument(t, 101)
	cfg := TurningPointConfig{Mode: TurningModeIncrease, FirstSide: 1, N: 10, NDelta: 1, H: 1.0}
	tp, err := NewTurningPoint(inst, cfg, quietLogger())
	require.NoError(t, err)

	step(100) // first direction observation (falling)
	assert.Zero(t, tp.Update())

	step(101.5) // reversal records low 100; rise of 1.5 >= h triggers the buy
	assert.Equal(t, 10.0, tp.Update())
	assert.InDelta(t, -1015.0, tp.Gain(), 1e-9)

	step(102)
	assert.Zero(t, tp.Update())

	step(100.8) // reversal records high 102; fall of 1.2 >= h triggers the sell
	assert.Equal(t, -10.0, tp.Update())

	// Ledger nets to size * (sell price - buy price).
	assert.InDelta(t, 10*(100.8-101.5), tp.Gain(), 1e-9)
	assert.Equal(t, 2, tp.Trades())
}

func TestTurningPointNegativeGainFreezesHandSize(t *testing.T) {
	inst, step := tickInstrument(t, 101)
	cfg := TurningPointConfig{Mode: TurningModeIncrease, FirstSide: 1, N: 10, NDelta: 1, H: 1.0}
	tp, err := NewTurningPoint(inst, cfg, quietLogger())
	require.NoError(t, err)

	step(100)
	tp.Update()
	step(101.5)
	require.Equal(t, 10.0, tp.Update())

	// The buy left the ledger negative, so the adaptive delta clamps to 0.
	assert.Equal(t, 10.0, tp.buying)
}

func TestTurningPointPositiveGainGrowsBuying(t *testing.T) {
	inst, step := tickInstrument(t, 100)
	cfg := TurningPointConfig{Mode: TurningModeIncrease, FirstSide: -1, N: 10, NDelta: 1, H: 1.0}
	tp, err := NewTurningPoint(inst, cfg, quietLogger())
	require.NoError(t, err)

	step(105)
	assert.Zero(t, tp.Update())
	step(103) // high 105, fall of 2 >= h: sell 10, gain +1030
	require.Equal(t, -10.0, tp.Update())
	assert.InDelta(t, 1030.0, tp.Gain(), 1e-9)

	// floor(1030/103) = 10 caps at NDelta = 1.
	assert.Equal(t, 11.0, tp.buying)
	assert.Equal(t, 10.0, tp.selling, "increase mode only grows the buy size")

	step(101)
	assert.Zero(t, tp.Update())
	step(102.5) // low 101, rise of 1.5 >= h: buy with the grown size
	assert.Equal(t, 11.0, tp.Update())
}

func TestTurningPointSizeModeGrowsBothSides(t *testing.T) {
	inst, step := tickInstrument(t, 100)
	cfg := TurningPointConfig{Mode: TurningModeSize, FirstSide: -1, N: 10, NDelta: 2, H: 1.0}
	tp, err := NewTurningPoint(inst, cfg, quietLogger())
	require.NoError(t, err)

	step(105)
	tp.Update()
	step(103)
	require.Equal(t, -10.0, tp.Update())

	// floor(1030/103) = 10, capped at NDelta = 2, applied to both sides.
	assert.Equal(t, 12.0, tp.buying)
	assert.Equal(t, 12.0, tp.selling)
}

func TestTurningPointUnchangedPriceIsNoOp(t *testing.T) {
	inst, step := tickInstrument(t, 100)
	cfg := DefaultTurningPointConfig()
	cfg.FirstSide = 1
	tp, err := NewTurningPoint(inst, cfg, quietLogger())
	require.NoError(t, err)

	step(101)
	tp.Update()
	before := tp.Gain()
	step(101)
	assert.Zero(t, tp.Update())
	assert.Equal(t, before, tp.Gain())
	assert.Equal(t, 0, tp.Trades())
}
