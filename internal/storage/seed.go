package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radiusdt/kpi-dashboard/internal/kpi"
	"github.com/radiusdt/kpi-dashboard/internal/models"
)

// SeedSource is where seed data is copied from.
type SeedSource interface {
	ListCampaigns(ctx context.Context) ([]models.Campaign, error)
	CampaignDetails(ctx context.Context, id string) (*models.CampaignDetails, error)
	MetricRows(ctx context.Context, q kpi.Query) ([]models.MetricRow, error)
}

// Seed copies every campaign of src and the last days of its metric rows,
// ending today, into w. It does nothing when w already has campaigns.
// It returns the number of rows written.
func Seed(ctx context.Context, w Warehouse, src SeedSource, days int, today time.Time, logger *zap.Logger) (int, error) {
	if days <= 0 {
		return 0, nil
	}

	existing, err := w.ListCampaigns(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		logger.Info("warehouse already populated, skipping seed", zap.Int("campaigns", len(existing)))
		return 0, nil
	}

	campaigns, err := src.ListCampaigns(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed: list campaigns: %w", err)
	}

	end := models.Day(today)
	dr := models.NewDateRange(end.AddDate(0, 0, -(days-1)), end)

	var total int
	for _, c := range campaigns {
		details, err := src.CampaignDetails(ctx, c.ID)
		if err != nil {
			return total, fmt.Errorf("seed: campaign %s: %w", c.ID, err)
		}
		if details == nil {
			details = &models.CampaignDetails{Campaign: c}
		}
		if err := w.SaveCampaign(ctx, details); err != nil {
			return total, err
		}

		rows, err := src.MetricRows(ctx, kpi.Query{CampaignID: c.ID, Fields: kpi.Fields, Range: dr})
		if err != nil {
			return total, fmt.Errorf("seed: campaign %s rows: %w", c.ID, err)
		}
		if err := w.SaveMetricRows(ctx, rows); err != nil {
			return total, err
		}
		total += len(rows)
	}

	logger.Info("warehouse seeded",
		zap.Int("campaigns", len(campaigns)),
		zap.Int("rows", total),
		zap.String("range", dr.String()),
	)
	return total, nil
}
