package dashboard

import (
	"time"

	"github.com/radiusdt/kpi-dashboard/internal/models"
)

// RangeData is the computed output for one time range.
type RangeData struct {
	TimeRange models.TimeRange    `json:"time_range"`
	DateRange models.DateRange    `json:"-"`
	KPIs      []models.KPIDatum   `json:"kpis"`
	History   []models.KPIHistory `json:"history"`
	Rows      int                 `json:"rows"`
}

// HasData reports whether any KPI value or series point is non-zero.
func (r RangeData) HasData() bool {
	for _, d := range r.KPIs {
		if d.Value != 0 {
			return true
		}
	}
	for _, h := range r.History {
		for _, p := range h.Series {
			if p.Value != 0 {
				return true
			}
		}
	}
	return false
}

// Snapshot is an immutable view of the dashboard state. A new snapshot is
// published for every change; readers never see a partial update.
type Snapshot struct {
	Campaigns []models.Campaign
	Selected  *models.Campaign
	Details   *models.CampaignDetails
	TimeRange models.TimeRange

	// Ranges holds the last successful refresh, keyed by time range. It is
	// replaced as a whole and kept when a refresh fails.
	Ranges map[models.TimeRange]RangeData

	Loading     bool
	Error       string
	LastUpdated time.Time
	Generation  uint64

	// selection is bumped whenever a different campaign is selected. A
	// refresh only writes to a snapshot that carries the selection it
	// started from.
	selection uint64
}

// Range returns the data for tr, if a refresh has produced it.
func (s *Snapshot) Range(tr models.TimeRange) (RangeData, bool) {
	rd, ok := s.Ranges[tr]
	return rd, ok
}

// Active returns the data for the active time range.
func (s *Snapshot) Active() (RangeData, bool) {
	return s.Range(s.TimeRange)
}

// current reports whether a refresh of campaignID started at selection sel
// still owns the snapshot.
func (s *Snapshot) current(campaignID string, sel uint64) bool {
	return s.selection == sel && s.Selected != nil && s.Selected.ID == campaignID
}

func (s *Snapshot) clone() *Snapshot {
	c := *s
	return &c
}
