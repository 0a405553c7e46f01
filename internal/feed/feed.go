// Package feed delivers (timestamp, price) ticks to the simulator, either
// replayed from a CSV file or streamed live from alpaca. Ticks are delivered
// sequentially; the handler owns applying them to the instrument before
// stepping the engine.
package feed

import "time"

// Tick is one price observation.
type Tick struct {
	Time  time.Time
	Price float64
}

// Handler consumes one tick.
type Handler func(Tick)
