package strategy

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stratsim/internal/instrument"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

// tickInstrument primes an instrument with the first price of the path and
// returns it together with a step function applying the following prices.
func tickInstrument(t *testing.T, prices ...float64) (*instrument.Instrument, func(float64)) {
	t.Helper()
	inst, err := instrument.New(1, "Test", "TST", instrument.KindStock)
	require.NoError(t, err)
	ts := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)
	inst.Update(ts, prices[0])
	next := ts
	step := func(p float64) {
		next = next.Add(time.Minute)
		inst.Update(next, p)
	}
	for _, p := range prices[1:] {
		step(p)
	}
	return inst, step
}

func TestChasingRejectsUnknownMode(t *testing.T) {
	inst, _ := tickInstrument(t, 100)
	_, err := NewChasing(inst, 0, ChasingConfig{Mode: "sideways"}, quietLogger())
	require.Error(t, err)
}

func TestChasingNormalizesTrend(t *testing.T) {
	inst, _ := tickInstrument(t, 100)
	cfg := DefaultChasingConfig()
	cfg.Trend = 7
	c, err := NewChasing(inst, 0, cfg, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, c.cfg.Trend)
}

func TestChasingChaseUptrendStepConfirm(t *testing.T) {
	inst, step := tickInstrument(t, 100)
	cfg := ChasingConfig{Trend: 1, Mode: ChaseModeChase, Gap: 5, UpperLimit: 1, LowerLimit: 0.5, Init: 50, Inc: 10}
	c, err := NewChasing(inst, 0, cfg, quietLogger())
	require.NoError(t, err)

	// nextStepUp starts at 105; crossing it and the +1 confirm band in one
	// tick emits a single buy of the full base size.
	var amounts []float64
	for _, p := range []float64{102, 104, 106, 111} {
		step(p)
		amounts = append(amounts, c.Update())
	}

	assert.Equal(t, []float64{0, 0, 50, 0}, amounts)
	assert.Equal(t, 1, c.Stack())
}

func TestChasingChaseStackDiminishesAndFloors(t *testing.T) {
	inst, step := tickInstrument(t, 100)
	cfg := ChasingConfig{Trend: 1, Mode: ChaseModeChase, Gap: 5, UpperLimit: 1, LowerLimit: 0.5, Init: 20, Inc: 10}
	c, err := NewChasing(inst, 0, cfg, quietLogger())
	require.NoError(t, err)

	var trades []float64
	// Each confirm advances nextStepUp to price+gap, so a steep ramp keeps
	// confirming: 20, 10, then the floor at 0.
	for _, p := range []float64{101, 106, 112, 118, 124} {
		step(p)
		if n := c.Update(); n != 0 {
			trades = append(trades, n)
		}
	}

	assert.Equal(t, []float64{20, 10}, trades)
	assert.Equal(t, 2, c.Stack(), "stack only advances on non-zero trades")
}

func TestChasingChaseRetreatDisarmsWithoutTrade(t *testing.T) {
	inst, step := tickInstrument(t, 100)
	cfg := ChasingConfig{Trend: 1, Mode: ChaseModeChase, Gap: 5, UpperLimit: 2, LowerLimit: 0.5, Init: 50, Inc: 10}
	c, err := NewChasing(inst, 0, cfg, quietLogger())
	require.NoError(t, err)

	step(103)
	assert.Zero(t, c.Update())
	step(105.5) // arms at nextStepUp=105, below confirm band 107
	assert.Zero(t, c.Update())
	step(104.2) // back below nextStepUp-lowerLimit=104.5: disarm
	assert.Zero(t, c.Update())
	step(107.5) // re-arms and confirms in one tick
	assert.Equal(t, 50.0, c.Update())
}

func TestChasingChaseDowntrendMirror(t *testing.T) {
	inst, step := tickInstrument(t, 100)
	cfg := ChasingConfig{Trend: -1, Mode: ChaseModeChase, Gap: 5, UpperLimit: 1, LowerLimit: 0.5, Init: 50, Inc: 10}
	c, err := NewChasing(inst, 0, cfg, quietLogger())
	require.NoError(t, err)

	var amounts []float64
	// nextStepDown starts at 95; confirm band at 94.5.
	for _, p := range []float64{98, 96, 94, 89} {
		step(p)
		amounts = append(amounts, c.Update())
	}

	assert.Equal(t, []float64{0, 0, -50, 0}, amounts)
	assert.Equal(t, 1, c.Stack())
}

func TestChasingSafetyUptrendSellsAfterReversal(t *testing.T) {
	inst, step := tickInstrument(t, 100)
	cfg := ChasingConfig{Trend: 1, Mode: ChaseModeSafety, Gap: 5, UpperLimit: 1, LowerLimit: 0.5, SafetyAmount: 20}
	c, err := NewChasing(inst, 0, cfg, quietLogger())
	require.NoError(t, err)

	step(101)
	assert.Zero(t, c.Update(), "first direction observation is a no-op")
	step(106) // >= nextStepUp 105: arm sell, steps follow price
	assert.Zero(t, c.Update())
	step(104) // reversal records high 106; 106-104 >= 0.5 confirms
	assert.Equal(t, -20.0, c.Update())
	step(102) // disarmed: no further trade
	assert.Zero(t, c.Update())
}

func TestChasingSafetyDowntrendBuysAfterReversal(t *testing.T) {
	inst, step := tickInstrument(t, 100)
	cfg := ChasingConfig{Trend: -1, Mode: ChaseModeSafety, Gap: 5, UpperLimit: 1, LowerLimit: 0.5, SafetyAmount: 20}
	c, err := NewChasing(inst, 0, cfg, quietLogger())
	require.NoError(t, err)

	step(99)
	assert.Zero(t, c.Update())
	step(94) // <= nextStepDown 95: arm buy
	assert.Zero(t, c.Update())
	step(96) // reversal records low 94; 96-94 >= 0.5 confirms
	assert.Equal(t, 20.0, c.Update())
}

func TestChasingUnchangedPriceIsNoOp(t *testing.T) {
	inst, step := tickInstrument(t, 100)
	cfg := ChasingConfig{Trend: 1, Mode: ChaseModeChase, Gap: 5, UpperLimit: 1, LowerLimit: 0.5, Init: 50, Inc: 10}
	c, err := NewChasing(inst, 0, cfg, quietLogger())
	require.NoError(t, err)

	step(106)
	c.Update()
	armed := c.arm
	stack := c.Stack()
	step(106)
	assert.Zero(t, c.Update())
	assert.Equal(t, armed, c.arm)
	assert.Equal(t, stack, c.Stack())
}
