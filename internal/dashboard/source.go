// Package dashboard holds the orchestration state of the KPI dashboard: the
// campaign list, the selected campaign and the computed KPIs and series for
// every time range.
package dashboard

import (
	"context"

	"github.com/radiusdt/kpi-dashboard/internal/kpi"
	"github.com/radiusdt/kpi-dashboard/internal/models"
)

// Source provides campaigns and raw daily metric rows. It is implemented by
// the live Google Ads source, the synthetic generator and the warehouses.
type Source interface {
	ListCampaigns(ctx context.Context) ([]models.Campaign, error)
	// CampaignDetails returns nil, nil for an unknown campaign.
	CampaignDetails(ctx context.Context, id string) (*models.CampaignDetails, error)
	MetricRows(ctx context.Context, q kpi.Query) ([]models.MetricRow, error)
}
