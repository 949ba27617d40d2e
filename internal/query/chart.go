package query

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/mveitas/cclens/internal/config"
	"github.com/mveitas/cclens/internal/model"
)

// pointFrom builds one chart point from raw bucket sums. When estimated is
// set the point's cost comes from the rate table instead of recorded cost,
// matching how the period summary handles logs without costUSD.
func pointFrom(label string, in, out int64, cost float64, entries int, estimated bool, rates config.EstimateRates, exchangeRate float64) model.ChartPoint {
	if estimated {
		cost = rates.EstimateCost(in, out)
	}
	return model.ChartPoint{
		Label:        label,
		TotalTokens:  in + out,
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      cost,
		CostLocal:    cost * exchangeRate,
		Entries:      entries,
	}
}

// fillHourly expands a sparse hour->point map into all 24 hours of the day.
func fillHourly(points map[string]model.ChartPoint) []model.ChartPoint {
	filled := make([]model.ChartPoint, 24)
	for h := 0; h < 24; h++ {
		label := fmt.Sprintf("%02d", h)
		if p, ok := points[label]; ok {
			filled[h] = p
		} else {
			filled[h] = model.ChartPoint{Label: label}
		}
	}
	return filled
}

// fillDaily expands a sparse date->point map into one point per calendar
// day over [since, until). Open bounds are derived from the data itself.
func fillDaily(points map[string]model.ChartPoint, since, until time.Time, loc *time.Location) []model.ChartPoint {
	if since.IsZero() || until.IsZero() {
		first, last, ok := keyBounds(points, "2006-01-02", loc)
		if !ok {
			return nil
		}
		since, until = first, last.AddDate(0, 0, 1)
	}

	var filled []model.ChartPoint
	for d := since; d.Before(until); d = d.AddDate(0, 0, 1) {
		label := d.Format("2006-01-02")
		if p, ok := points[label]; ok {
			filled = append(filled, p)
		} else {
			filled = append(filled, model.ChartPoint{Label: label})
		}
	}
	return filled
}

// fillMonthly expands a sparse month->point map into one point per calendar
// month over [since, until). Open bounds are derived from the data itself.
func fillMonthly(points map[string]model.ChartPoint, since, until time.Time, loc *time.Location) []model.ChartPoint {
	if since.IsZero() || until.IsZero() {
		first, last, ok := keyBounds(points, "2006-01", loc)
		if !ok {
			return nil
		}
		since, until = first, last.AddDate(0, 1, 0)
	}
	since = time.Date(since.Year(), since.Month(), 1, 0, 0, 0, 0, since.Location())

	var filled []model.ChartPoint
	for m := since; m.Before(until); m = m.AddDate(0, 1, 0) {
		label := m.Format("2006-01")
		if p, ok := points[label]; ok {
			filled = append(filled, p)
		} else {
			filled = append(filled, model.ChartPoint{Label: label})
		}
	}
	return filled
}

// keyBounds parses the smallest and largest map keys with the given layout.
func keyBounds(points map[string]model.ChartPoint, layout string, loc *time.Location) (time.Time, time.Time, bool) {
	if len(points) == 0 {
		return time.Time{}, time.Time{}, false
	}
	var first, last time.Time
	for key := range points {
		t, err := time.ParseInLocation(layout, key, loc)
		if err != nil {
			continue
		}
		if first.IsZero() || t.Before(first) {
			first = t
		}
		if last.IsZero() || t.After(last) {
			last = t
		}
	}
	if first.IsZero() {
		return time.Time{}, time.Time{}, false
	}
	return first, last, true
}

// labelsOf projects the point labels for chart axes.
func labelsOf(points []model.ChartPoint) []string {
	return lo.Map(points, func(p model.ChartPoint, _ int) string {
		return p.Label
	})
}
