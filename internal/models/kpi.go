package models

// KPIType identifies one derived performance indicator.
type KPIType string

const (
	KPIROAS              KPIType = "roas"
	KPIConversions       KPIType = "conversions"
	KPIConversionValue   KPIType = "conversion_value"
	KPICPA               KPIType = "cpa"
	KPIConversionRate    KPIType = "conversion_rate"
	KPICTR               KPIType = "ctr"
	KPICost              KPIType = "cost"
	KPICPV               KPIType = "cpv"
	KPIViews             KPIType = "views"
	KPIViewRate          KPIType = "view_rate"
	KPIWatchTime         KPIType = "watch_time"
	KPISubscribersGained KPIType = "subscribers_gained"
	KPICPC               KPIType = "cpc"
	KPIImpressionShare   KPIType = "impression_share"
	KPIQualityScore      KPIType = "quality_score"
	KPIImpressions       KPIType = "impressions"
	KPIInteractions      KPIType = "interactions"
)

// KPITypes lists every KPI identifier.
var KPITypes = []KPIType{
	KPIROAS, KPIConversions, KPIConversionValue, KPICPA, KPIConversionRate,
	KPICTR, KPICost, KPICPV, KPIViews, KPIViewRate, KPIWatchTime,
	KPISubscribersGained, KPICPC, KPIImpressionShare, KPIQualityScore,
	KPIImpressions, KPIInteractions,
}

// Trend classifies the magnitude of a period-over-period change. It says
// nothing about whether the change is good for the KPI.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// KPIDatum is the value of one KPI over one time range, optionally compared
// with the preceding period of the same length.
type KPIDatum struct {
	Type             KPIType   `json:"type"`
	Value            float64   `json:"value"`
	PreviousValue    *float64  `json:"previous_value,omitempty"`
	Change           *float64  `json:"change,omitempty"`
	ChangePercentage *float64  `json:"change_percentage,omitempty"`
	Trend            Trend     `json:"trend,omitempty"`
	TimeRange        TimeRange `json:"time_range"`
}

// HistoryPoint is one day of a KPI series.
type HistoryPoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD
	Value float64 `json:"value"`
}

// KPIHistory is a day-by-day series of one KPI, covering every calendar day
// of the window.
type KPIHistory struct {
	Type      KPIType        `json:"type"`
	TimeRange TimeRange      `json:"time_range"`
	Series    []HistoryPoint `json:"data"`
}
