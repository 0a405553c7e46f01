package strategy

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"stratsim/internal/config"
	"stratsim/internal/instrument"
)

const (
	TurningModeIncrease = "increase"
	TurningModeDecrease = "decrease"
	TurningModeSize     = "size"
)

// TurningPointConfig holds the oscillation parameters.
type TurningPointConfig struct {
	// Mode controls which hand size adapts after a trade: the buy size
	// (increase), the sell size (decrease), or both (size).
	Mode string
	// FirstSide is the first expected trade side: +1 buy, -1 sell.
	FirstSide int
	// N is the initial hand size for both buying and selling.
	N float64
	// NDelta caps the per-trade adaptive increment.
	NDelta float64
	// H is the reversal threshold against the last recorded extremum.
	H float64
}

func DefaultTurningPointConfig() TurningPointConfig {
	return TurningPointConfig{
		Mode:      TurningModeIncrease,
		FirstSide: -1,
		N:         10,
		NDelta:    1,
		H:         1.0,
	}
}

func (c *TurningPointConfig) ApplyParams(p config.Params) {
	c.Mode = p.String("mode_turning", c.Mode)
	c.FirstSide = int(p.Float("buysell", float64(c.FirstSide)))
	c.N = p.Float("n", c.N)
	c.NDelta = p.Float("n_delta", c.NDelta)
	c.H = p.Float("h", c.H)
}

func (c *TurningPointConfig) Validate() error {
	switch c.Mode {
	case TurningModeIncrease, TurningModeDecrease, TurningModeSize:
		return nil
	}
	return errors.Errorf("unsupported turning point mode %q", c.Mode)
}

// TurningPoint micromanages small-scale oscillations: it buys once the price
// has risen at least H above the last recorded low and sells once it has
// fallen at least H below the last recorded high, alternating sides. Realized
// gain feeds back into the hand size via the mode-selected counters.
type TurningPoint struct {
	cfg  TurningPointConfig
	inst *instrument.Instrument
	log  logrus.FieldLogger

	trk reversalTracker

	// pending is the next expected trade side: +1 buy, -1 sell.
	pending int
	buying  float64
	selling float64
	gain    float64
	gains   []float64
	count   int
}

func NewTurningPoint(inst *instrument.Instrument, cfg TurningPointConfig, log logrus.FieldLogger) (*TurningPoint, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TurningPoint{
		cfg:     cfg,
		inst:    inst,
		log:     log.WithField("subroutine", "turningpoint"),
		trk:     newReversalTracker(inst),
		pending: cfg.FirstSide,
		buying:  cfg.N,
		selling: cfg.N,
	}, nil
}

// Gain is the running signed cash flow attributable to this subroutine's
// trades: debited on buys, credited on sells.
func (t *TurningPoint) Gain() float64 {
	return t.gain
}

func (t *TurningPoint) Trades() int {
	return t.count
}

func (t *TurningPoint) Update() float64 {
	price := t.inst.Price()
	dir, ok := t.trk.observe(t.inst.Time(), price)
	if !ok {
		return 0
	}

	var amount float64
	if t.pending == 1 && dir == TrendRising && price-t.trk.low >= t.cfg.H {
		amount = t.buying
		t.gain -= amount * price
		t.pending = -1
	} else if t.pending == -1 && dir == TrendFalling && t.trk.high-price >= t.cfg.H {
		amount = -t.selling
		t.gain -= amount * price
		t.pending = 1
	}
	t.gains = append(t.gains, t.gain)

	if amount != 0 {
		t.count++
		delta := t.cfg.NDelta
		if floor := math.Floor(t.gain / price); delta > floor {
			delta = floor
		}
		if delta < 0 {
			delta = 0
		}
		switch t.cfg.Mode {
		case TurningModeIncrease:
			t.buying += delta
		case TurningModeDecrease:
			t.selling += delta
		default:
			t.buying += delta
			t.selling += delta
		}
		t.log.Infof("turning point proposes %v at %v (gain=%v delta=%v)", amount, price, t.gain, delta)
	}
	return amount
}
