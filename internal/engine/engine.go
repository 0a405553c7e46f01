package engine

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"stratsim/internal/config"
	"stratsim/internal/instrument"
	"stratsim/internal/metrics"
	"stratsim/internal/risk"
	"stratsim/internal/strategy"
)

// Mode selects the primary decision subroutine.
type Mode string

const (
	ModeChase   Mode = "chase"
	ModeTurning Mode = "turning"
)

// Source tags on executed orders.
const (
	SourceChase            = "chase"
	SourceTurning          = "turning"
	SourceThresholdControl = "thresholdcontrol"
	SourceOther            = "other"
)

// Order is one executed trade: immutable once appended.
type Order struct {
	Time   time.Time `json:"time"`
	Price  float64   `json:"price"`
	Qty    float64   `json:"qty"`
	Source string    `json:"source"`
}

// OrderSink receives every executed order: the NDJSON order log, the sqlite
// journal and the live broker mirror all implement it. Sink failures are
// logged, never fatal.
type OrderSink interface {
	Record(Order) error
}

// Engine owns the fund/unit ledger and sequences the three decision
// subroutines into one strategy step per tick: primary proposal (chasing or
// turning point), threshold-control veto/override, then execution against
// the ledger.
type Engine struct {
	inst *instrument.Instrument
	log  logrus.FieldLogger

	mode   Mode
	fund   float64
	unit   float64
	total0 float64

	chasing *strategy.Chasing
	turning *strategy.TurningPoint
	control *risk.ThresholdControl

	times  []time.Time
	prices []float64
	funds  []float64
	units  []float64
	gains  []float64
	orders []Order

	sinks []OrderSink
}

// New builds the orchestrator and all three subroutines against an already
// priced instrument. unitInit is the chasing starter stake; it is tracked by
// the subroutine but never evaluated.
func New(inst *instrument.Instrument, mode Mode, fund, unit, unitInit float64, params config.Params, log logrus.FieldLogger, sinks ...OrderSink) (*Engine, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if mode != ModeChase && mode != ModeTurning {
		return nil, errors.Errorf("unsupported orchestrator mode %q", mode)
	}

	controlCfg := risk.DefaultThresholdConfig()
	controlCfg.ApplyParams(params)
	control, err := risk.NewThresholdControl(inst, fund, unit, controlCfg, log)
	if err != nil {
		return nil, errors.Wrap(err, "threshold control")
	}

	chasingCfg := strategy.DefaultChasingConfig()
	chasingCfg.ApplyParams(params)
	chasing, err := strategy.NewChasing(inst, unitInit, chasingCfg, log)
	if err != nil {
		return nil, errors.Wrap(err, "chasing")
	}

	turningCfg := strategy.DefaultTurningPointConfig()
	turningCfg.ApplyParams(params)
	turning, err := strategy.NewTurningPoint(inst, turningCfg, log)
	if err != nil {
		return nil, errors.Wrap(err, "turning point")
	}

	return &Engine{
		inst:    inst,
		log:     log.WithField("component", "engine"),
		mode:    mode,
		fund:    fund,
		unit:    unit,
		total0:  fund + unit*inst.Price(),
		chasing: chasing,
		turning: turning,
		control: control,
		sinks:   sinks,
	}, nil
}

// Update runs one strategy step against the instrument's current tick. The
// caller must have applied the tick to the instrument first.
func (e *Engine) Update() {
	price := e.inst.Price()
	gain := e.fund + e.unit*price - e.total0

	e.times = append(e.times, e.inst.Time())
	e.prices = append(e.prices, price)
	e.funds = append(e.funds, e.fund)
	e.units = append(e.units, e.unit)
	e.gains = append(e.gains, gain)
	metrics.RecordTick(price, e.fund, e.unit, gain)
	e.log.Debugf("tick price=%v fund=%v unit=%v gain=%v", price, e.fund, e.unit, gain)

	var proposal float64
	source := SourceTurning
	if e.mode == ModeChase {
		proposal = e.chasing.Update()
		source = SourceChase
	} else {
		proposal = e.turning.Update()
	}
	if proposal != 0 {
		metrics.RecordProposal(source)
	}

	override := e.control.Update(e.fund, proposal)
	if override == 0 {
		if proposal != 0 {
			e.Transact(proposal, source)
		}
		return
	}

	e.log.Infof("threshold control overrides proposal %v with %v", proposal, override)
	e.Transact(override, SourceThresholdControl)
	e.control.Reset(e.fund, e.unit)
}

// Transact executes a signed trade against the ledger. When the cash cannot
// cover the full quantity the trade clips to the affordable amount and the
// fund zeroes out; best effort, logged as a warning, never an error.
func (e *Engine) Transact(n float64, source string) {
	price := e.inst.Price()
	if e.fund-price*n <= 0 {
		clipped := e.fund / price
		e.log.Warnf("running out of funds transacting %v at %v, clipping to %v", n, price, clipped)
		e.unit += clipped
		e.fund = 0
	} else {
		e.fund -= price * n
		e.unit += n
	}

	order := Order{Time: e.inst.Time(), Price: price, Qty: n, Source: source}
	e.orders = append(e.orders, order)
	metrics.RecordOrder(source)
	for _, sink := range e.sinks {
		if err := sink.Record(order); err != nil {
			e.log.Warnf("order sink failed: %v", err)
		}
	}
}

func (e *Engine) Fund() float64 { return e.fund }

func (e *Engine) Unit() float64 { return e.unit }

// Baseline is the orchestrator's fixed total0; unlike the threshold
// controller's it never resets.
func (e *Engine) Baseline() float64 { return e.total0 }

// Gain is the current value against the fixed baseline.
func (e *Engine) Gain() float64 {
	return e.fund + e.unit*e.inst.Price() - e.total0
}

// Equity is the current portfolio value.
func (e *Engine) Equity() float64 {
	return e.fund + e.unit*e.inst.Price()
}

// Orders copies out the executed order history.
func (e *Engine) Orders() []Order {
	out := make([]Order, len(e.orders))
	copy(out, e.orders)
	return out
}

// Gains copies out the per-tick gain history.
func (e *Engine) Gains() []float64 {
	out := make([]float64, len(e.gains))
	copy(out, e.gains)
	return out
}

// Snapshot is the ledger as observed at the start of one strategy step.
type Snapshot struct {
	Time  time.Time
	Price float64
	Fund  float64
	Unit  float64
	Gain  float64
}

// Snapshots copies out the per-tick ledger history.
func (e *Engine) Snapshots() []Snapshot {
	out := make([]Snapshot, len(e.times))
	for i := range e.times {
		out[i] = Snapshot{
			Time:  e.times[i],
			Price: e.prices[i],
			Fund:  e.funds[i],
			Unit:  e.units[i],
			Gain:  e.gains[i],
		}
	}
	return out
}

func (e *Engine) Ticks() int {
	return len(e.times)
}
