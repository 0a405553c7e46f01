package config

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Mode string

const (
	ModeReplay Mode = "replay"
	ModeLive   Mode = "live"
)

type Config struct {
	Mode Mode

	// Instrument identity.
	InstrumentID   int
	InstrumentName string
	Symbol         string
	InstrumentKind string

	// Initial ledger.
	Fund     float64
	Unit     float64
	UnitInit float64

	// Primary decision mode: chase or turning.
	StrategyMode string

	// Flat subroutine parameters, loaded from ParamsPath.
	ParamsPath string
	Params     Params

	DataPath       string
	OrdersPath     string
	JournalPath    string
	CheckpointPath string
	MetricsAddr    string

	LogLevel string
	LogFile  string

	Feed              string
	MirrorOrders      bool
	ReconcileInterval time.Duration
	PaperBaseURL      string
	APIKey            string
	APISecret         string
}

func Load(log logrus.FieldLogger) (Config, error) {
	var cfg Config
	var mode string

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("skipping .env: %v", err)
	}

	flag.StringVar(&mode, "mode", string(ModeReplay), "run mode: replay or live")
	flag.IntVar(&cfg.InstrumentID, "instrument-id", 0, "instrument id")
	flag.StringVar(&cfg.InstrumentName, "instrument-name", "", "instrument display name")
	flag.StringVar(&cfg.Symbol, "symbol", "", "instrument symbol")
	flag.StringVar(&cfg.InstrumentKind, "instrument-kind", "stock", "instrument kind: stock or future")
	flag.Float64Var(&cfg.Fund, "fund", 10000, "initial cash")
	flag.Float64Var(&cfg.Unit, "unit", 0, "initial holdings")
	flag.Float64Var(&cfg.UnitInit, "unit-init", 0, "chasing starter stake, tracked but not evaluated")
	flag.StringVar(&cfg.StrategyMode, "strategy-mode", "chase", "primary decision mode: chase or turning")
	flag.StringVar(&cfg.ParamsPath, "params", "", "path to YAML subroutine parameters")
	flag.StringVar(&cfg.DataPath, "data", "", "path to tick CSV for replay mode")
	flag.StringVar(&cfg.OrdersPath, "orders-path", "orders.ndjson", "path to order log")
	flag.StringVar(&cfg.JournalPath, "journal-path", "orders.db", "path to sqlite order journal")
	flag.StringVar(&cfg.CheckpointPath, "checkpoint-path", "checkpoint.json", "path to ledger checkpoint")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", ":9190", "prometheus listen address in live mode")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	flag.StringVar(&cfg.LogFile, "log-file", "", "optional rotating log file")
	flag.StringVar(&cfg.Feed, "feed", "iex", "market data feed in live mode: iex or sip")
	flag.BoolVar(&cfg.MirrorOrders, "mirror-orders", false, "mirror executed trades to the paper broker in live mode")
	flag.DurationVar(&cfg.ReconcileInterval, "reconcile-interval", 30*time.Second, "broker reconciliation interval in live mode")
	flag.StringVar(&cfg.PaperBaseURL, "paper-base-url", "https://paper-api.alpaca.markets", "paper trading base URL")
	flag.Parse()

	cfg.Mode = Mode(mode)
	cfg.APIKey = os.Getenv("APCA_API_KEY_ID")
	cfg.APISecret = os.Getenv("APCA_API_SECRET_KEY")

	if cfg.Symbol == "" {
		cfg.Symbol = "AAPL"
	}
	if cfg.InstrumentName == "" {
		cfg.InstrumentName = cfg.Symbol
	}

	params, err := LoadParamsFile(cfg.ParamsPath, log)
	if err != nil {
		return cfg, err
	}
	cfg.Params = params

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Mode != ModeReplay && cfg.Mode != ModeLive {
		return errors.Errorf("invalid mode: %s", cfg.Mode)
	}
	if cfg.Mode == ModeReplay && cfg.DataPath == "" {
		return errors.New("replay mode requires -data")
	}
	if cfg.Mode == ModeLive && (cfg.APIKey == "" || cfg.APISecret == "") {
		return errors.New("APCA_API_KEY_ID and APCA_API_SECRET_KEY are required in live mode")
	}
	if cfg.InstrumentID < 0 {
		return errors.Errorf("instrument-id must be >= 0, got %d", cfg.InstrumentID)
	}
	if cfg.InstrumentKind != "stock" && cfg.InstrumentKind != "future" {
		return errors.Errorf("invalid instrument-kind: %s", cfg.InstrumentKind)
	}
	if cfg.StrategyMode != "chase" && cfg.StrategyMode != "turning" {
		return errors.Errorf("invalid strategy-mode: %s", cfg.StrategyMode)
	}
	if cfg.Fund < 0 {
		return errors.Errorf("fund must be >= 0, got %v", cfg.Fund)
	}
	if cfg.Mode == ModeLive && cfg.ReconcileInterval <= 0 {
		return errors.New("reconcile-interval must be > 0")
	}
	return nil
}
