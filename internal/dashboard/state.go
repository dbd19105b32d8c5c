package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/radiusdt/kpi-dashboard/internal/kpi"
	"github.com/radiusdt/kpi-dashboard/internal/metrics"
	"github.com/radiusdt/kpi-dashboard/internal/models"
)

var (
	ErrNoCampaignSelected = errors.New("no campaign selected")
	ErrCampaignNotFound   = errors.New("campaign not found")
)

// refreshErrorMessage is shown to the user when a refresh fails.
const refreshErrorMessage = "Failed to load KPI data. Please try again."

// Options tune the refresh loop.
type Options struct {
	DefaultTimeRange models.TimeRange
	// FetchDelay is waited between consecutive source calls.
	FetchDelay time.Duration
	// RefreshTimeout bounds a whole refresh; zero means no bound.
	RefreshTimeout time.Duration
}

// State owns the dashboard data. Reads are lock-free; writers publish a new
// Snapshot under mu.
type State struct {
	source  Source
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu       sync.Mutex
	snapshot atomic.Pointer[Snapshot]
	flight   singleflight.Group
}

// NewState creates an empty state. m may be nil.
func NewState(source Source, opts Options, logger *zap.Logger, m *metrics.Metrics) *State {
	if !opts.DefaultTimeRange.Valid() {
		opts.DefaultTimeRange = models.TimeRange7d
	}
	s := &State{
		source:  source,
		opts:    opts,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
	s.snapshot.Store(&Snapshot{
		TimeRange: opts.DefaultTimeRange,
		Ranges:    map[models.TimeRange]RangeData{},
	})
	return s
}

// Snapshot returns the current state. The result must not be modified.
func (s *State) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// update publishes a modified copy of the current snapshot.
func (s *State) update(fn func(*Snapshot)) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.snapshot.Load().clone()
	fn(next)
	s.snapshot.Store(next)
	return next
}

// LoadCampaigns fetches the campaign list. When nothing is selected yet the
// first campaign is selected and refreshed.
func (s *State) LoadCampaigns(ctx context.Context) error {
	campaigns, err := s.source.ListCampaigns(ctx)
	if err != nil {
		s.logger.Error("failed to load campaigns", zap.Error(err))
		s.update(func(snap *Snapshot) { snap.Error = "Failed to load campaigns. Please try again." })
		return fmt.Errorf("list campaigns: %w", err)
	}

	snap := s.update(func(snap *Snapshot) {
		snap.Campaigns = campaigns
		snap.Error = ""
	})
	s.logger.Info("campaigns loaded", zap.Int("count", len(campaigns)))

	if snap.Selected == nil && len(campaigns) > 0 {
		return s.SelectCampaign(ctx, campaigns[0].ID)
	}
	return nil
}

// SelectCampaign makes id the selected campaign, loads its details and
// refreshes every time range.
func (s *State) SelectCampaign(ctx context.Context, id string) error {
	var campaign *models.Campaign
	for _, c := range s.Snapshot().Campaigns {
		if c.ID == id {
			c := c
			campaign = &c
			break
		}
	}
	if campaign == nil {
		return fmt.Errorf("%w: %s", ErrCampaignNotFound, id)
	}

	details, err := s.source.CampaignDetails(ctx, id)
	if err != nil {
		s.logger.Error("failed to load campaign details", zap.String("campaign_id", id), zap.Error(err))
		s.update(func(snap *Snapshot) { snap.Error = "Failed to load campaign details. Please try again." })
		return fmt.Errorf("campaign details: %w", err)
	}

	s.update(func(snap *Snapshot) {
		changed := snap.Selected == nil || snap.Selected.ID != id
		snap.Selected = campaign
		snap.Details = details
		snap.Error = ""
		if changed {
			snap.selection++
			snap.Ranges = map[models.TimeRange]RangeData{}
			snap.LastUpdated = time.Time{}
		}
	})
	s.metrics.ResetKPIs()

	return s.Refresh(ctx)
}

// SetTimeRange changes the active time range. Every range is already cached
// by the last refresh, so nothing is fetched.
func (s *State) SetTimeRange(tr models.TimeRange) error {
	if !tr.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownTimeRange, tr)
	}
	s.update(func(snap *Snapshot) { snap.TimeRange = tr })
	return nil
}

// Refresh recomputes the KPIs and series of every time range for the
// selected campaign. Concurrent calls for the same selection share one run.
// On failure the previous data stays in place and the snapshot carries an
// error message. A run whose campaign was deselected meanwhile leaves the
// snapshot alone.
func (s *State) Refresh(ctx context.Context) error {
	snap := s.Snapshot()
	if snap.Selected == nil {
		return ErrNoCampaignSelected
	}
	campaign := *snap.Selected
	sel := snap.selection

	key := fmt.Sprintf("refresh:%s:%d", campaign.ID, sel)
	_, err, _ := s.flight.Do(key, func() (interface{}, error) {
		return nil, s.refresh(ctx, campaign, sel)
	})
	return err
}

func (s *State) refresh(ctx context.Context, campaign models.Campaign, sel uint64) error {
	if s.opts.RefreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RefreshTimeout)
		defer cancel()
	}

	runID := uuid.NewString()
	start := s.now()
	logger := s.logger.With(zap.String("run_id", runID), zap.String("campaign_id", campaign.ID))

	var stale bool
	s.update(func(snap *Snapshot) {
		if !snap.current(campaign.ID, sel) {
			stale = true
			return
		}
		snap.Loading = true
		snap.Error = ""
	})
	if stale {
		logger.Debug("skipping refresh of a deselected campaign")
		return nil
	}

	ranges, err := s.computeRanges(ctx, campaign, logger)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.update(func(snap *Snapshot) {
			if !snap.current(campaign.ID, sel) {
				stale = true
				return
			}
			snap.Loading = false
			snap.Error = refreshErrorMessage
		})
		if stale {
			logger.Debug("refresh of a deselected campaign failed", zap.Error(err))
			return err
		}
		logger.Error("refresh failed", zap.Duration("duration", elapsed), zap.Error(err))
		s.metrics.RecordRefresh("error", elapsed)
		return err
	}

	s.update(func(snap *Snapshot) {
		if !snap.current(campaign.ID, sel) {
			stale = true
			return
		}
		snap.Loading = false
		snap.Ranges = ranges
		snap.LastUpdated = s.now()
		snap.Generation++
	})
	if stale {
		logger.Debug("discarding refresh of a deselected campaign")
		return nil
	}

	s.metrics.RecordRefresh("ok", elapsed)
	for tr, rd := range ranges {
		for _, d := range rd.KPIs {
			s.metrics.SetKPI(campaign.ID, string(d.Type), string(tr), d.Value)
		}
	}
	logger.Info("refresh completed", zap.Duration("duration", elapsed))
	return nil
}

// computeRanges fetches and computes the five time ranges one after the
// other. The first failure aborts the run.
func (s *State) computeRanges(ctx context.Context, campaign models.Campaign, logger *zap.Logger) (map[models.TimeRange]RangeData, error) {
	ids := kpi.KPIsFor(campaign.Type)
	today := s.now()
	out := make(map[models.TimeRange]RangeData, len(models.TimeRanges))

	first := true
	fetch := func(dr models.DateRange) ([]models.MetricRow, error) {
		if !first {
			if err := s.pause(ctx); err != nil {
				return nil, err
			}
		}
		first = false
		return s.source.MetricRows(ctx, kpi.BuildQuery(campaign.ID, ids, dr))
	}

	for _, tr := range models.TimeRanges {
		dr := tr.DateRange(today)

		current, err := fetch(dr)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", tr, err)
		}
		previous, err := fetch(dr.Previous())
		if err != nil {
			return nil, fmt.Errorf("fetch %s previous period: %w", tr, err)
		}

		out[tr] = RangeData{
			TimeRange: tr,
			DateRange: dr,
			KPIs:      kpi.Merge(kpi.Aggregate(current, ids, tr), kpi.Aggregate(previous, ids, tr)),
			History:   kpi.BuildSeries(current, ids, dr, tr),
			Rows:      len(current),
		}
		logger.Debug("time range computed",
			zap.String("time_range", string(tr)),
			zap.Int("rows", len(current)),
			zap.Int("previous_rows", len(previous)),
		)
	}
	return out, nil
}

func (s *State) pause(ctx context.Context) error {
	if s.opts.FetchDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.opts.FetchDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
