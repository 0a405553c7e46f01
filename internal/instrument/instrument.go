package instrument

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
)

// Kind classifies a tradable.
type Kind string

const (
	KindStock  Kind = "stock"
	KindFuture Kind = "future"
)

// Instrument is one tradable: a stock or a future. It carries the current
// price and timestamp plus an append-only history of every tick it has seen.
// It is mutated only through Update and shared read-only by the decision
// subroutines within a tick.
type Instrument struct {
	ID     int
	Name   string
	Symbol string
	Kind   Kind

	price   float64
	ts      time.Time
	history Series
}

func New(id int, name, symbol string, kind Kind) (*Instrument, error) {
	if id < 0 {
		return nil, errors.Errorf("invalid instrument id %d", id)
	}
	if kind != KindStock && kind != KindFuture {
		return nil, errors.Errorf("unsupported instrument kind %q", kind)
	}
	return &Instrument{
		ID:     id,
		Name:   name,
		Symbol: symbol,
		Kind:   kind,
		price:  math.NaN(),
	}, nil
}

// Update sets the current price and timestamp and appends the tick to the
// history. Timestamps are assumed non-decreasing; the caller owns ordering.
func (i *Instrument) Update(ts time.Time, price float64) {
	i.price = price
	i.ts = ts
	i.history.Append(ts, price)
}

// Price returns the current price, or NaN if the instrument was never updated.
func (i *Instrument) Price() float64 {
	return i.price
}

func (i *Instrument) Time() time.Time {
	return i.ts
}

func (i *Instrument) History() *Series {
	return &i.history
}

func (i *Instrument) String() string {
	return fmt.Sprintf("[%s/%d][%s] %s: %v @ %s", i.Kind, i.ID, i.Symbol, i.Name, i.price, i.ts.Format(time.RFC3339))
}
