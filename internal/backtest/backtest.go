// Package backtest drives the engine over recorded ticks and summarizes the
// run.
package backtest

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"stratsim/internal/config"
	"stratsim/internal/engine"
	"stratsim/internal/feed"
	"stratsim/internal/instrument"
)

type Result struct {
	Symbol         string
	Ticks          int
	Orders         int
	OrdersBySource map[string]int
	FinalFund      float64
	FinalUnit      float64
	FinalPrice     float64
	Equity         float64
	Baseline       float64
	Gain           float64
	MaxDrawdown    float64
}

// Run replays ticks through a fresh engine. The first tick primes the
// instrument so the subroutines see an initial price before any decision is
// made, matching how a live session warms up.
func Run(inst *instrument.Instrument, mode engine.Mode, fund, unit, unitInit float64, params config.Params, ticks []feed.Tick, log logrus.FieldLogger, sinks ...engine.OrderSink) (*engine.Engine, Result, error) {
	if len(ticks) < 2 {
		return nil, Result{}, errors.Errorf("need at least 2 ticks, got %d", len(ticks))
	}
	inst.Update(ticks[0].Time, ticks[0].Price)

	eng, err := engine.New(inst, mode, fund, unit, unitInit, params, log, sinks...)
	if err != nil {
		return nil, Result{}, err
	}

	peak := eng.Equity()
	maxDrawdown := 0.0
	for _, tick := range ticks[1:] {
		inst.Update(tick.Time, tick.Price)
		eng.Update()

		equity := eng.Equity()
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			if dd := (peak - equity) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}
	}

	res := Result{
		Symbol:         inst.Symbol,
		Ticks:          eng.Ticks(),
		OrdersBySource: map[string]int{},
		FinalFund:      eng.Fund(),
		FinalUnit:      eng.Unit(),
		FinalPrice:     inst.Price(),
		Equity:         eng.Equity(),
		Baseline:       eng.Baseline(),
		Gain:           eng.Gain(),
		MaxDrawdown:    maxDrawdown,
	}
	for _, order := range eng.Orders() {
		res.Orders++
		res.OrdersBySource[order.Source]++
	}
	return eng, res, nil
}

// Report renders the result for the console.
func (r Result) Report() string {
	var b strings.Builder
	fmt.Fprintf(&b, "backtest %s\n", r.Symbol)
	fmt.Fprintf(&b, "  ticks        %d\n", r.Ticks)
	fmt.Fprintf(&b, "  orders       %d", r.Orders)
	for _, source := range []string{engine.SourceChase, engine.SourceTurning, engine.SourceThresholdControl, engine.SourceOther} {
		if n := r.OrdersBySource[source]; n > 0 {
			fmt.Fprintf(&b, " %s=%d", source, n)
		}
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "  final price  %s\n", money(r.FinalPrice))
	fmt.Fprintf(&b, "  fund         %s\n", money(r.FinalFund))
	fmt.Fprintf(&b, "  units        %s\n", decimal.NewFromFloat(r.FinalUnit).String())
	fmt.Fprintf(&b, "  equity       %s (baseline %s)\n", money(r.Equity), money(r.Baseline))
	fmt.Fprintf(&b, "  gain         %s (%s%%)\n", money(r.Gain), pct(r.Gain, r.Baseline))
	fmt.Fprintf(&b, "  max drawdown %s%%\n", decimal.NewFromFloat(r.MaxDrawdown*100).Round(2).String())
	return b.String()
}

func money(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}

func pct(gain, baseline float64) string {
	if baseline == 0 {
		return "0"
	}
	return decimal.NewFromFloat(gain / baseline * 100).Round(2).String()
}
