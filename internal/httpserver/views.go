package httpserver

import (
	"time"

	"github.com/radiusdt/kpi-dashboard/internal/dashboard"
	"github.com/radiusdt/kpi-dashboard/internal/kpi"
	"github.com/radiusdt/kpi-dashboard/internal/models"
)

// kpiView is a KPI datum with what the UI needs to render it.
type kpiView struct {
	models.KPIDatum
	Label     string     `json:"label"`
	Format    kpi.Format `json:"format"`
	Formatted string     `json:"formatted"`
	Benchmark *float64   `json:"benchmark,omitempty"`
	// Positive is set when there is a previous period to compare with.
	Positive *bool `json:"positive,omitempty"`
}

type historyView struct {
	models.KPIHistory
	Label  string     `json:"label"`
	Format kpi.Format `json:"format"`
}

type rangeView struct {
	TimeRange models.TimeRange `json:"time_range"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	HasData   bool             `json:"has_data"`
	KPIs      []kpiView        `json:"kpis"`
	History   []historyView    `json:"history"`
}

type dashboardView struct {
	Campaign    *models.Campaign        `json:"campaign,omitempty"`
	Details     *models.CampaignDetails `json:"details,omitempty"`
	TimeRange   models.TimeRange        `json:"time_range"`
	TimeRanges  []models.TimeRange      `json:"time_ranges"`
	Data        *rangeView              `json:"data,omitempty"`
	Loading     bool                    `json:"loading"`
	Error       string                  `json:"error,omitempty"`
	LastUpdated *time.Time              `json:"last_updated,omitempty"`
	Generation  uint64                  `json:"generation"`
}

// dashboardView renders snap for tr, or for the active time range when tr
// is empty.
func (s *Server) dashboardView(snap *dashboard.Snapshot, tr models.TimeRange) dashboardView {
	if tr == "" {
		tr = snap.TimeRange
	}
	v := dashboardView{
		Campaign:   snap.Selected,
		Details:    snap.Details,
		TimeRange:  tr,
		TimeRanges: models.TimeRanges,
		Loading:    snap.Loading,
		Error:      snap.Error,
		Generation: snap.Generation,
	}
	if !snap.LastUpdated.IsZero() {
		t := snap.LastUpdated
		v.LastUpdated = &t
	}
	if rd, ok := snap.Range(tr); ok {
		rv := newRangeView(rd)
		v.Data = &rv
	}
	return v
}

func newRangeView(rd dashboard.RangeData) rangeView {
	rv := rangeView{
		TimeRange: rd.TimeRange,
		StartDate: rd.DateRange.StartDate(),
		EndDate:   rd.DateRange.EndDate(),
		HasData:   rd.HasData(),
		KPIs:      make([]kpiView, 0, len(rd.KPIs)),
		History:   make([]historyView, 0, len(rd.History)),
	}
	for _, d := range rd.KPIs {
		entry := kpi.MustLookup(d.Type)
		kv := kpiView{
			KPIDatum:  d,
			Label:     entry.Label,
			Format:    entry.Format,
			Formatted: kpi.FormatValue(d.Value, entry.Format),
			Benchmark: entry.Benchmark,
		}
		if d.Change != nil {
			positive := kpi.IsPositiveChange(*d.Change, d.Type)
			kv.Positive = &positive
		}
		rv.KPIs = append(rv.KPIs, kv)
	}
	for _, h := range rd.History {
		entry := kpi.MustLookup(h.Type)
		rv.History = append(rv.History, historyView{KPIHistory: h, Label: entry.Label, Format: entry.Format})
	}
	return rv
}
