package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"stratsim/internal/backtest"
	"stratsim/internal/broker"
	"stratsim/internal/config"
	"stratsim/internal/engine"
	"stratsim/internal/feed"
	"stratsim/internal/instrument"
	"stratsim/internal/journal"
	"stratsim/internal/metrics"
	"stratsim/internal/state"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(log)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	configureLogger(log, cfg)

	runID := uuid.NewString()
	log.WithFields(logrus.Fields{"run_id": runID, "mode": cfg.Mode, "symbol": cfg.Symbol}).Info("starting")

	inst, err := instrument.New(cfg.InstrumentID, cfg.InstrumentName, cfg.Symbol, instrument.Kind(cfg.InstrumentKind))
	if err != nil {
		log.Fatalf("instrument error: %v", err)
	}

	orders, err := engine.NewOrderLogger(cfg.OrdersPath, runID, cfg.Symbol)
	if err != nil {
		log.Fatalf("order log error: %v", err)
	}
	defer func() {
		if err := orders.Close(); err != nil {
			log.Warnf("close order log: %v", err)
		}
	}()

	j, err := journal.Open(cfg.JournalPath, runID)
	if err != nil {
		log.Fatalf("journal error: %v", err)
	}
	defer j.Close()

	mode := engine.ModeChase
	if cfg.StrategyMode == "turning" {
		mode = engine.ModeTurning
	}

	switch cfg.Mode {
	case config.ModeReplay:
		err = runReplay(cfg, inst, mode, log, j, orders, j)
	case config.ModeLive:
		err = runLive(cfg, inst, mode, runID, log, orders, j)
	}
	if err != nil {
		log.Fatalf("%s run failed: %v", cfg.Mode, err)
	}
	log.Info("shutdown complete")
}

func configureLogger(log *logrus.Logger, cfg config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
		log.Warnf("unknown log level %q, using info", cfg.LogLevel)
	}
	log.SetLevel(level)

	if cfg.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	}
}

func runReplay(cfg config.Config, inst *instrument.Instrument, mode engine.Mode, log *logrus.Logger, j *journal.Journal, sinks ...engine.OrderSink) error {
	ticks, err := feed.LoadCSV(cfg.DataPath)
	if err != nil {
		return err
	}
	log.Infof("loaded %d ticks from %s", len(ticks), cfg.DataPath)

	_, res, err := backtest.Run(inst, mode, cfg.Fund, cfg.Unit, cfg.UnitInit, cfg.Params, ticks, log, sinks...)
	if err != nil {
		return err
	}
	fmt.Print(res.Report())

	if n, err := j.Count(); err != nil {
		log.Warnf("journal count: %v", err)
	} else if n != res.Orders {
		log.Warnf("journal recorded %d orders, report counted %d", n, res.Orders)
	}
	return nil
}

func runLive(cfg config.Config, inst *instrument.Instrument, mode engine.Mode, runID string, log *logrus.Logger, sinks ...engine.OrderSink) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		log.Info("shutdown signal received")
		cancel()
	}()

	var brokerClient *broker.Client
	if cfg.MirrorOrders {
		brokerClient = broker.New(cfg.APIKey, cfg.APISecret, cfg.PaperBaseURL, log)
		sinks = append(sinks, mirrorSink{ctx: ctx, client: brokerClient, symbol: cfg.Symbol, runID: runID})
	}

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Warnf("metrics server: %v", err)
			}
		}()
	}

	store := state.NewStore(runID, cfg.Symbol)
	if err := store.Load(cfg.CheckpointPath); err == nil {
		log.Infof("loaded checkpoint from %s", cfg.CheckpointPath)
	}

	// The engine needs a primed price, so it is built on the first tick.
	var eng *engine.Engine
	handler := func(tick feed.Tick) {
		inst.Update(tick.Time, tick.Price)
		if eng == nil {
			var err error
			eng, err = engine.New(inst, mode, cfg.Fund, cfg.Unit, cfg.UnitInit, cfg.Params, log, sinks...)
			if err != nil {
				log.Errorf("engine init: %v", err)
				cancel()
				return
			}
			if brokerClient != nil {
				go engine.ReconcileLoop(ctx, brokerClient, store, cfg.Symbol, cfg.ReconcileInterval, log)
			}
			return
		}
		eng.Update()
		store.Set(eng.Fund(), eng.Unit(), eng.Baseline(), eng.Gain(), len(eng.Orders()), tick.Time)
	}

	err := feed.StartStream(ctx, cfg.APIKey, cfg.APISecret, cfg.Feed, cfg.Symbol, handler, log)
	if err != nil && err != context.Canceled {
		log.Warnf("market data stream stopped: %v", err)
	}

	if eng != nil {
		if err := store.Save(cfg.CheckpointPath); err != nil {
			log.Warnf("save checkpoint: %v", err)
		}
	}
	return nil
}

// mirrorSink forwards executed orders to the paper broker.
type mirrorSink struct {
	ctx    context.Context
	client *broker.Client
	symbol string
	runID  string
}

func (m mirrorSink) Record(order engine.Order) error {
	clientOrderID := fmt.Sprintf("%s-%d", m.runID, order.Time.UnixNano())
	_, err := m.client.MirrorOrder(m.ctx, m.symbol, order.Qty, clientOrderID)
	return err
}
