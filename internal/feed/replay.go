package feed

import (
	"encoding/csv"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// LoadCSV reads a tick CSV with headers time|timestamp and price|close.
// Headers are case-insensitive, unknown columns are ignored, rows without a
// parseable time or price are skipped, and the result is sorted ascending by
// time.
func LoadCSV(path string) ([]Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open tick file %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []Tick
	var headers []string
	row := 0

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read tick file %s", path)
		}
		if row == 0 {
			headers = rec
			row++
			continue
		}
		fields := map[string]string{}
		for j, h := range headers {
			key := strings.ToLower(strings.TrimSpace(h))
			if j < len(rec) {
				fields[key] = strings.TrimSpace(rec[j])
			}
		}
		rawTime := first(fields, "time", "timestamp")
		rawPrice := first(fields, "price", "close")
		if rawTime == "" || rawPrice == "" {
			continue
		}
		ts, err := parseTimeFlexible(rawTime)
		if err != nil {
			continue
		}
		price, err := strconv.ParseFloat(rawPrice, 64)
		if err != nil {
			continue
		}
		out = append(out, Tick{Time: ts, Price: price})
		row++
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// parseTimeFlexible accepts RFC3339 or UNIX seconds.
func parseTimeFlexible(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, errors.Errorf("bad time: %s", s)
}

func first(fields map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := fields[k]; v != "" {
			return v
		}
	}
	return ""
}

// Replay pushes every tick through the handler in order.
func Replay(ticks []Tick, handler Handler) {
	for _, tick := range ticks {
		handler(tick)
	}
}
