package strategy

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"stratsim/internal/config"
	"stratsim/internal/instrument"
)

const (
	ChaseModeChase  = "chase"
	ChaseModeSafety = "safety"
)

// ChasingConfig holds the trend-following parameters. Nothing here is
// validated beyond the mode string, matching the runtime's best-effort
// posture.
type ChasingConfig struct {
	// Trend is the expected market direction: +1 up, -1 down. Anything
	// other than -1 normalizes to +1.
	Trend int
	// Mode selects chasing (grow the position with the trend) or safety
	// (sell into strength / buy into weakness with a fixed amount).
	Mode         string
	Gap          float64
	UpperLimit   float64
	LowerLimit   float64
	Init         float64
	Inc          float64
	SafetyAmount float64
}

func DefaultChasingConfig() ChasingConfig {
	return ChasingConfig{
		Trend:        1,
		Mode:         ChaseModeChase,
		Gap:          5,
		UpperLimit:   1,
		LowerLimit:   0.5,
		Init:         50,
		Inc:          10,
		SafetyAmount: 20,
	}
}

func (c *ChasingConfig) ApplyParams(p config.Params) {
	c.Trend = int(p.Float("trend", float64(c.Trend)))
	c.Mode = p.String("mode_chase", c.Mode)
	c.Gap = p.Float("gap", c.Gap)
	c.UpperLimit = p.Float("upper_limit", c.UpperLimit)
	c.LowerLimit = p.Float("lower_limit", c.LowerLimit)
	c.Init = p.Float("init", c.Init)
	c.Inc = p.Float("inc", c.Inc)
	c.SafetyAmount = p.Float("safetyamount", c.SafetyAmount)
}

func (c *ChasingConfig) Validate() error {
	if c.Mode != ChaseModeChase && c.Mode != ChaseModeSafety {
		return errors.Errorf("unsupported chasing mode %q", c.Mode)
	}
	return nil
}

// Chasing follows the larger-scale trend of the instrument through stepped
// price thresholds. In chase mode it stacks buys (or sells, trend -1) of
// diminishing size as the price breaks each step; in safety mode it waits for
// a step break and then trades a fixed amount against the local extremum.
// It should run together with a threshold controller to manage risk.
type Chasing struct {
	cfg  ChasingConfig
	inst *instrument.Instrument
	log  logrus.FieldLogger

	trk reversalTracker

	// investment is the starter stake the subroutine assumes is already
	// held. It is tracked but never evaluated.
	investment float64

	nextStepUp   float64
	nextStepDown float64
	stack        int
	arm          ArmState
}

func NewChasing(inst *instrument.Instrument, investment float64, cfg ChasingConfig, log logrus.FieldLogger) (*Chasing, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Trend != -1 {
		cfg.Trend = 1
	}
	price := inst.Price()
	return &Chasing{
		cfg:          cfg,
		inst:         inst,
		log:          log.WithField("subroutine", "chasing"),
		trk:          newReversalTracker(inst),
		investment:   investment * price,
		nextStepUp:   price + cfg.Gap,
		nextStepDown: price - cfg.Gap,
	}, nil
}

func (c *Chasing) Stack() int {
	return c.stack
}

func (c *Chasing) Update() float64 {
	price := c.inst.Price()
	dir, ok := c.trk.observe(c.inst.Time(), price)
	if !ok {
		return 0
	}

	var amount float64
	if c.cfg.Mode == ChaseModeChase {
		if c.cfg.Trend == 1 {
			if price >= c.nextStepUp {
				c.arm = ArmedBuy
			}
			if price >= c.nextStepUp+c.cfg.UpperLimit {
				if c.arm == ArmedBuy {
					amount = c.cfg.Init - float64(c.stack)*c.cfg.Inc
					if amount <= 0 {
						amount = 0
					} else {
						c.stack++
					}
					c.nextStepUp = price + c.cfg.Gap
					c.arm = ArmIdle
				}
			} else if price <= c.nextStepUp-c.cfg.LowerLimit {
				c.arm = ArmIdle
			}
		} else {
			if price <= c.nextStepDown {
				c.arm = ArmedSell
			}
			if price <= c.nextStepDown-c.cfg.LowerLimit {
				if c.arm == ArmedSell {
					amount = -(c.cfg.Init - float64(c.stack)*c.cfg.Inc)
					if amount >= 0 {
						amount = 0
					} else {
						c.stack++
					}
					c.nextStepDown = price - c.cfg.Gap
					c.arm = ArmIdle
				}
			} else if price >= c.nextStepDown+c.cfg.UpperLimit {
				c.arm = ArmIdle
			}
		}
	} else {
		if c.cfg.Trend == 1 {
			if c.arm == ArmIdle {
				if price >= c.nextStepUp {
					c.arm = ArmedSell
					c.nextStepUp = price + c.cfg.Gap
					c.nextStepDown = price - c.cfg.Gap
				} else if price <= c.nextStepDown {
					c.arm = ArmedSell
					c.nextStepDown = price - c.cfg.Gap
				}
			} else if c.arm == ArmedSell && dir == TrendFalling && c.trk.high-price >= c.cfg.LowerLimit {
				amount = -c.cfg.SafetyAmount
				c.arm = ArmIdle
			}
		} else {
			if c.arm == ArmIdle {
				if price <= c.nextStepDown {
					c.arm = ArmedBuy
					c.nextStepUp = price + c.cfg.Gap
					c.nextStepDown = price - c.cfg.Gap
				} else if price >= c.nextStepUp {
					// Re-arms against the trend without touching the
					// downside step; kept exactly as the strategy has
					// always behaved.
					c.arm = ArmedBuy
					c.nextStepUp = price + c.cfg.Gap
				}
			} else if c.arm == ArmedBuy && dir == TrendRising && price-c.trk.low >= c.cfg.LowerLimit {
				amount = c.cfg.SafetyAmount
				c.arm = ArmIdle
			}
		}
	}

	if amount != 0 {
		c.log.Infof("chasing %s/%+d proposes %v at %v (stack=%d)", c.cfg.Mode, c.cfg.Trend, amount, price, c.stack)
	}
	return amount
}
