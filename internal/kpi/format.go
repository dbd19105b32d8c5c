package kpi

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/radiusdt/kpi-dashboard/internal/models"
)

const currencySymbol = "€"

// FormatValue renders v according to a display format. Numbers, currency,
// percentages and multipliers are rounded to 2 decimals; durations to whole
// seconds.
func FormatValue(v float64, f Format) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	d := decimal.NewFromFloat(v)
	switch f {
	case FormatPercentage:
		return d.StringFixed(2) + "%"
	case FormatCurrency:
		if d.IsNegative() {
			return "-" + currencySymbol + d.Abs().StringFixed(2)
		}
		return currencySymbol + d.StringFixed(2)
	case FormatMultiplier:
		return d.StringFixed(2) + "x"
	case FormatDuration:
		secs := d.Round(0).IntPart()
		sign := ""
		if secs < 0 {
			sign, secs = "-", -secs
		}
		return fmt.Sprintf("%s%dh %dm %ds", sign, secs/3600, (secs%3600)/60, secs%60)
	default:
		return d.Round(2).String()
	}
}

// FormatKPI renders v the way the KPI is displayed.
func FormatKPI(v float64, id models.KPIType) string {
	return FormatValue(v, MustLookup(id).Format)
}

// ParseValue is the inverse of FormatValue.
func ParseValue(s string, f Format) (float64, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = strings.TrimPrefix(s, "-")
	}

	var v float64
	switch f {
	case FormatDuration:
		var h, m, sec int64
		if _, err := fmt.Sscanf(s, "%dh %dm %ds", &h, &m, &sec); err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		v = float64(h*3600 + m*60 + sec)
	default:
		switch f {
		case FormatPercentage:
			s = strings.TrimSuffix(s, "%")
		case FormatCurrency:
			s = strings.TrimPrefix(s, currencySymbol)
		case FormatMultiplier:
			s = strings.TrimSuffix(s, "x")
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", f, s, err)
		}
		v = d.InexactFloat64()
	}
	if neg {
		v = -v
	}
	return v, nil
}

// Parse reads a value formatted by Format for the KPI.
func Parse(s string, id models.KPIType) (float64, error) {
	return ParseValue(s, MustLookup(id).Format)
}
