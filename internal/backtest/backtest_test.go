package backtest

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"stratsim/internal/config"
	"stratsim/internal/engine"
	"stratsim/internal/feed"
	"stratsim/internal/instrument"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func wideParams() config.Params {
	p := config.NewParams()
	p.Set("winningPer", 1)
	p.Set("losingPer", 1)
	return p
}

func ticksFrom(prices ...float64) []feed.Tick {
	base := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	out := make([]feed.Tick, len(prices))
	for i, price := range prices {
		out[i] = feed.Tick{Time: base.Add(time.Duration(i) * time.Minute), Price: price}
	}
	return out
}

func TestRunRejectsShortInput(t *testing.T) {
	inst, err := instrument.New(1, "apple", "AAPL", instrument.KindStock)
	require.NoError(t, err)
	_, _, err = Run(inst, engine.ModeChase, 10000, 0, 0, wideParams(), ticksFrom(100), quietLogger())
	require.Error(t, err)
}

func TestRunChaseBuy(t *testing.T) {
	inst, err := instrument.New(1, "apple", "AAPL", instrument.KindStock)
	require.NoError(t, err)

	eng, res, err := Run(inst, engine.ModeChase, 10000, 0, 0, wideParams(), ticksFrom(100, 102, 104, 106), quietLogger())
	require.NoError(t, err)

	// First tick primes the price, the remaining three are decisions.
	require.Equal(t, 3, res.Ticks)
	require.Equal(t, 1, res.Orders)
	require.Equal(t, 1, res.OrdersBySource[engine.SourceChase])
	require.InDelta(t, 10000-50*106.0, res.FinalFund, 1e-9)
	require.Equal(t, 50.0, res.FinalUnit)
	require.InDelta(t, res.FinalFund+50*106.0, res.Equity, 1e-9)
	require.Equal(t, eng.Fund(), res.FinalFund)
}

func TestRunTracksDrawdown(t *testing.T) {
	inst, err := instrument.New(1, "apple", "AAPL", instrument.KindStock)
	require.NoError(t, err)

	// Buy 50 at 106, then the price falls to 90 while holding.
	_, res, err := Run(inst, engine.ModeChase, 10000, 0, 0, wideParams(), ticksFrom(100, 102, 104, 106, 90), quietLogger())
	require.NoError(t, err)
	require.Greater(t, res.MaxDrawdown, 0.0)
	require.Less(t, res.MaxDrawdown, 1.0)
}

func TestReportMentionsSymbolAndOrders(t *testing.T) {
	inst, err := instrument.New(1, "apple", "AAPL", instrument.KindStock)
	require.NoError(t, err)

	_, res, err := Run(inst, engine.ModeChase, 10000, 0, 0, wideParams(), ticksFrom(100, 102, 104, 106), quietLogger())
	require.NoError(t, err)

	report := res.Report()
	require.True(t, strings.Contains(report, "AAPL"), report)
	require.True(t, strings.Contains(report, "chase=1"), report)
}
