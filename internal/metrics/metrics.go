// Package metrics exposes the simulator's Prometheus metrics:
//
//	sim_ticks_total              ticks consumed by the orchestrator
//	sim_proposals_total{source}  nonzero proposals before any override
//	sim_orders_total{source}     executed orders by source tag
//	sim_price                    last observed price (gauge)
//	sim_fund                     current cash (gauge)
//	sim_unit                     current holdings (gauge)
//	sim_gain                     gain versus the fixed baseline (gauge)
//
// Registered in init() and served by the /metrics handler wired in cmd/bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ticksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_ticks_total",
			Help: "Ticks consumed by the orchestrator",
		},
	)

	proposalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_proposals_total",
			Help: "Nonzero trade proposals by source, before any override",
		},
		[]string{"source"},
	)

	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_orders_total",
			Help: "Executed orders by source",
		},
		[]string{"source"},
	)

	gaugePrice = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sim_price",
			Help: "Last observed price",
		},
	)

	gaugeFund = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sim_fund",
			Help: "Current cash",
		},
	)

	gaugeUnit = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sim_unit",
			Help: "Current holdings",
		},
	)

	gaugeGain = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sim_gain",
			Help: "Gain versus the fixed baseline",
		},
	)
)

func init() {
	prometheus.MustRegister(ticksTotal, proposalsTotal, ordersTotal, gaugePrice, gaugeFund, gaugeUnit, gaugeGain)
}

// RecordTick publishes the per-tick portfolio snapshot.
func RecordTick(price, fund, unit, gain float64) {
	ticksTotal.Inc()
	gaugePrice.Set(price)
	gaugeFund.Set(fund)
	gaugeUnit.Set(unit)
	gaugeGain.Set(gain)
}

// RecordProposal counts one nonzero trade proposal under its source tag.
func RecordProposal(source string) {
	proposalsTotal.WithLabelValues(source).Inc()
}

// RecordOrder counts one executed order under its source tag.
func RecordOrder(source string) {
	ordersTotal.WithLabelValues(source).Inc()
}

// Handler serves the Prometheus text exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
