package risk

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"stratsim/internal/config"
	"stratsim/internal/instrument"
)

// ThresholdConfig holds the de-risking percentages, each on [0, 1].
type ThresholdConfig struct {
	// WinningPer and LosingPer are the gain/loss fractions of the baseline
	// at which a rebalance triggers.
	WinningPer float64
	LosingPer  float64
	// SellingPerWin and SellingPerLose size the rebalance as a fraction of
	// the current holding.
	SellingPerWin  float64
	SellingPerLose float64
}

// DefaultThresholdConfig returns the stock percentages. Explicit zeros are
// legal (a winningPer of 0 fires on any non-negative gain), so defaults are
// a starting point rather than zero-value fill-in.
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		WinningPer:     0.4,
		LosingPer:      0.2,
		SellingPerWin:  0.5,
		SellingPerLose: 1,
	}
}

func (c *ThresholdConfig) ApplyParams(p config.Params) {
	c.WinningPer = p.Float("winningPer", c.WinningPer)
	c.LosingPer = p.Float("losingPer", c.LosingPer)
	c.SellingPerWin = p.Float("sellingPerWin", c.SellingPerWin)
	c.SellingPerLose = p.Float("sellingPerLose", c.SellingPerLose)
}

func (c *ThresholdConfig) Validate() error {
	if c.WinningPer > 1 {
		return errors.Errorf("winningPer must be <= 1, got %v", c.WinningPer)
	}
	if c.LosingPer > 1 {
		return errors.Errorf("losingPer must be <= 1, got %v", c.LosingPer)
	}
	if c.SellingPerWin > 1 || c.SellingPerLose > 1 {
		return errors.Errorf("selling percentages must be <= 1, got win=%v lose=%v", c.SellingPerWin, c.SellingPerLose)
	}
	return nil
}

// ThresholdControl reduces risk by moving holdings toward neutral once the
// portfolio's gain or loss against a fixed baseline crosses a configured
// percentage. It sits between the primary subroutine's proposal and
// execution: a non-zero return overrides the proposal.
type ThresholdControl struct {
	cfg  ThresholdConfig
	inst *instrument.Instrument
	log  logrus.FieldLogger

	total0 float64
	funds  []float64
	units  []float64
	prices []float64
	times  []time.Time
}

func NewThresholdControl(inst *instrument.Instrument, fund, unit float64, cfg ThresholdConfig, log logrus.FieldLogger) (*ThresholdControl, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &ThresholdControl{
		cfg:  cfg,
		inst: inst,
		log:  log.WithField("subroutine", "thresholdcontrol"),
	}
	t.anchor(fund, unit)
	return t, nil
}

func (t *ThresholdControl) anchor(fund, unit float64) {
	t.total0 = fund + unit*t.inst.Price()
	t.funds = []float64{fund}
	t.units = []float64{unit}
	t.prices = []float64{t.inst.Price()}
	t.times = []time.Time{t.inst.Time()}
}

// Reset re-anchors the baseline to the post-rebalance fund and unit while
// keeping the configured percentages. Called after every override.
func (t *ThresholdControl) Reset(fund, unit float64) {
	t.anchor(fund, unit)
	t.log.Infof("baseline reset: total0=%v fund=%v unit=%v", t.total0, fund, unit)
}

// Baseline is the fixed reference value gains are measured against.
func (t *ThresholdControl) Baseline() float64 {
	return t.total0
}

// Update inspects the would-be position (last unit + deltaUnit) at the
// current price and returns a signed rebalance amount, or 0 when no
// threshold is crossed. A gain of exactly zero resolves to the winning
// branch; that precedence is long-standing behavior and is kept.
func (t *ThresholdControl) Update(fund, deltaUnit float64) float64 {
	price := t.inst.Price()
	t.prices = append(t.prices, price)
	t.times = append(t.times, t.inst.Time())

	unit := t.units[len(t.units)-1] + deltaUnit
	if unit == 0 {
		return 0
	}
	total := fund + unit*price
	gain := total - t.total0

	switch {
	case gain >= 0 && gain/t.total0 >= t.cfg.WinningPer:
		selling := t.clampToward(unit, t.cfg.SellingPerWin)
		t.log.Infof("winning control: gain=%v (%v), rebalancing %v units", gain, gain/t.total0, selling)
		t.funds = append(t.funds, fund+selling*price)
		t.units = append(t.units, unit+selling)
		return selling
	case gain <= 0 && math.Abs(gain/t.total0) >= t.cfg.LosingPer:
		selling := t.clampToward(unit, t.cfg.SellingPerLose)
		t.log.Infof("losing control: gain=%v (%v), rebalancing %v units", gain, gain/t.total0, selling)
		t.funds = append(t.funds, fund+selling*price)
		t.units = append(t.units, unit+selling)
		return selling
	default:
		t.funds = append(t.funds, fund)
		t.units = append(t.units, unit)
		return 0
	}
}

// clampToward sizes a rebalance as per of the holding, capped at the full
// holding, signed to move the position toward zero.
func (t *ThresholdControl) clampToward(unit, per float64) float64 {
	selling := math.Abs(unit) * per
	if selling >= math.Abs(unit) {
		selling = math.Abs(unit)
	}
	if unit > 0 {
		selling = -selling
	}
	return selling
}
