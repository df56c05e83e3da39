package sources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNoET is returned when the forecast table cannot answer a window.
var ErrNoET = errors.New("no evapotranspiration data for window")

// ETForecast is a weekly evapotranspiration forecast indexed by date.
type ETForecast struct {
	dates []time.Time
	means []float64
}

// LoadETForecast reads a forecast CSV from disk.
func LoadETForecast(path string) (*ETForecast, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open et forecast: %w", err)
	}
	defer f.Close()
	return ParseETForecast(f)
}

// ParseETForecast reads rows whose first column is the date and that carry
// a "mean" column (the layout of a time-series forecast summary frame).
func ParseETForecast(r io.Reader) (*ETForecast, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read et header: %w", err)
	}
	meanCol := -1
	for i, h := range header {
		if strings.TrimSpace(h) == "mean" {
			meanCol = i
			break
		}
	}
	if meanCol <= 0 {
		return nil, errors.New("et forecast: missing mean column")
	}

	type row struct {
		date time.Time
		mean float64
	}
	var rows []row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read et row: %w", err)
		}
		if len(rec) <= meanCol {
			continue
		}
		d, err := parseDate(rec[0])
		if err != nil {
			return nil, fmt.Errorf("et row date %q: %w", rec[0], err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[meanCol]), 64)
		if err != nil || math.IsNaN(v) {
			continue
		}
		rows = append(rows, row{d, v})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	t := &ETForecast{dates: make([]time.Time, len(rows)), means: make([]float64, len(rows))}
	for i, r := range rows {
		t.dates[i], t.means[i] = r.date, r.mean
	}
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateLayout, "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return day(t), nil
		}
	}
	return time.Time{}, errors.New("unrecognized date")
}

// Len returns the number of rows.
func (t *ETForecast) Len() int { return len(t.dates) }

// Average snaps start and end to their nearest indexed dates and averages
// the forecast mean over that inclusive range.
func (t *ETForecast) Average(start, end time.Time) (float64, error) {
	if t == nil || len(t.dates) == 0 {
		return 0, ErrNoET
	}
	i, j := t.nearest(day(start)), t.nearest(day(end))
	if i > j {
		return 0, ErrNoET
	}
	sum := 0.0
	for k := i; k <= j; k++ {
		sum += t.means[k]
	}
	return sum / float64(j-i+1), nil
}

// nearest returns the index of the date closest to d; ties go to the earlier row.
func (t *ETForecast) nearest(d time.Time) int {
	k := sort.Search(len(t.dates), func(i int) bool { return !t.dates[i].Before(d) })
	switch {
	case k == 0:
		return 0
	case k == len(t.dates):
		return k - 1
	}
	if d.Sub(t.dates[k-1]) <= t.dates[k].Sub(d) {
		return k - 1
	}
	return k
}
