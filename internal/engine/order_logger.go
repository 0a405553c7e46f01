package engine

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type orderRecord struct {
	RunID  string    `json:"run_id"`
	Time   time.Time `json:"time"`
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Qty    float64   `json:"qty"`
	Source string    `json:"source"`
}

// OrderLogger appends executed orders to an NDJSON file, one record per
// line, flushed per order so the log survives a crash.
type OrderLogger struct {
	runID  string
	symbol string
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

func NewOrderLogger(path, runID, symbol string) (*OrderLogger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "open order log %s", path)
	}
	return &OrderLogger{
		runID:  runID,
		symbol: symbol,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

func (l *OrderLogger) RunID() string {
	return l.runID
}

func (l *OrderLogger) Record(o Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	payload, err := json.Marshal(orderRecord{
		RunID:  l.runID,
		Time:   o.Time,
		Symbol: l.symbol,
		Price:  o.Price,
		Qty:    o.Qty,
		Source: o.Source,
	})
	if err != nil {
		return errors.Wrap(err, "marshal order")
	}
	if _, err := l.writer.Write(append(payload, '\n')); err != nil {
		return errors.Wrap(err, "write order")
	}
	return errors.Wrap(l.writer.Flush(), "flush order log")
}

func (l *OrderLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.writer.Flush(); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}
