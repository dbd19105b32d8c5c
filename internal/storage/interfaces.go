package storage

import (
	"context"

	"github.com/radiusdt/kpi-dashboard/internal/kpi"
	"github.com/radiusdt/kpi-dashboard/internal/models"
)

// =============================================
// METRICS WAREHOUSE
// =============================================

// Warehouse is a database holding campaigns and their daily metric rows.
// It serves the dashboard the same way the live Google Ads source does and
// can be seeded from any other source.
type Warehouse interface {
	Migrate(ctx context.Context) error

	// Reads
	ListCampaigns(ctx context.Context) ([]models.Campaign, error)
	CampaignDetails(ctx context.Context, id string) (*models.CampaignDetails, error)
	MetricRows(ctx context.Context, q kpi.Query) ([]models.MetricRow, error)

	// Writes
	SaveCampaign(ctx context.Context, d *models.CampaignDetails) error
	SaveMetricRows(ctx context.Context, rows []models.MetricRow) error
}

var (
	_ Warehouse = (*PostgresMetricsRepo)(nil)
	_ Warehouse = (*ClickHouseMetricsRepo)(nil)
)
