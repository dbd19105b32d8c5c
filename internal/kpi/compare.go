package kpi

import (
	"math"

	"github.com/radiusdt/kpi-dashboard/internal/models"
)

// stableThreshold is the absolute percentage change below which a KPI is
// considered flat.
const stableThreshold = 1.0

// ChangePercentage returns the relative change from previous to current in
// percent. A zero baseline yields 100 for growth and 0 otherwise.
func ChangePercentage(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// TrendOf classifies a percentage change.
func TrendOf(changePercentage float64) models.Trend {
	switch {
	case math.Abs(changePercentage) < stableThreshold:
		return models.TrendStable
	case changePercentage > 0:
		return models.TrendUp
	default:
		return models.TrendDown
	}
}

// Merge annotates every current datum with the matching previous-period
// value, absolute change, percentage change and trend. A current datum with
// no previous counterpart passes through unchanged.
func Merge(current, previous []models.KPIDatum) []models.KPIDatum {
	prev := make(map[models.KPIType]float64, len(previous))
	for _, p := range previous {
		if _, seen := prev[p.Type]; !seen {
			prev[p.Type] = p.Value
		}
	}

	out := make([]models.KPIDatum, 0, len(current))
	for _, c := range current {
		p, ok := prev[c.Type]
		if !ok {
			out = append(out, c)
			continue
		}
		change := c.Value - p
		pct := ChangePercentage(c.Value, p)
		c.PreviousValue = &p
		c.Change = &change
		c.ChangePercentage = &pct
		c.Trend = TrendOf(pct)
		out = append(out, c)
	}
	return out
}
