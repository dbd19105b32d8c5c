package models

import "time"

// MetricRow is one day of raw measurements for one campaign as delivered by
// the ad platform. Every metric is optional: a nil field means the platform
// did not return it, and it counts as zero wherever rows are combined.
// Rows are never mutated once produced.
type MetricRow struct {
	CampaignID string
	Date       time.Time // calendar day, UTC midnight

	Clicks                 *float64
	Impressions            *float64
	CostMicros             *float64
	Conversions            *float64
	ConversionValue        *float64
	VideoViews             *float64
	VideoQuartileP100Rate  *float64 // 0..1
	AverageVideoDuration   *float64 // seconds
	SearchImpressionShare  *float64 // 0..1
	HistoricalQualityScore *float64 // 1..10
	Interactions           *float64
	AllConversions         *float64
}

// Float returns a pointer to v, for building rows.
func Float(v float64) *float64 { return &v }

// Value returns the pointed-to value, or 0 when absent.
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
