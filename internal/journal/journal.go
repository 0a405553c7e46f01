// Package journal persists every executed order to a sqlite database so a
// run can be audited after the process exits.
package journal

import (
	"database/sql"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"stratsim/internal/engine"
)

type Journal struct {
	db    *sql.DB
	runID string
}

// Open creates or opens the journal database at path and ensures the schema
// exists.
func Open(path, runID string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open journal %s", path)
	}
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS orders (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL,
  ts TEXT NOT NULL,
  price REAL NOT NULL,
  qty REAL NOT NULL,
  source TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_run_ts ON orders(run_id, ts);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "migrate journal")
		}
	}
	return &Journal{db: db, runID: runID}, nil
}

// Record implements engine.OrderSink.
func (j *Journal) Record(order engine.Order) error {
	_, err := j.db.Exec(`
INSERT INTO orders (run_id, ts, price, qty, source)
VALUES (?,?,?,?,?)
`, j.runID, order.Time.UTC().Format(time.RFC3339Nano), order.Price, order.Qty, order.Source)
	return errors.Wrap(err, "insert order")
}

// Count returns the number of orders recorded for this run.
func (j *Journal) Count() (int, error) {
	var n int
	err := j.db.QueryRow(`SELECT COUNT(*) FROM orders WHERE run_id=?`, j.runID).Scan(&n)
	return n, errors.Wrap(err, "count orders")
}

// Orders returns this run's orders in insertion order.
func (j *Journal) Orders() ([]engine.Order, error) {
	rows, err := j.db.Query(`
SELECT ts, price, qty, source FROM orders WHERE run_id=? ORDER BY id
`, j.runID)
	if err != nil {
		return nil, errors.Wrap(err, "query orders")
	}
	defer rows.Close()

	var out []engine.Order
	for rows.Next() {
		var (
			o  engine.Order
			ts string
		)
		if err := rows.Scan(&ts, &o.Price, &o.Qty, &o.Source); err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			o.Time = t
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
