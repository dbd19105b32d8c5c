package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownCampaignType is returned when a campaign type is outside the closed set.
var ErrUnknownCampaignType = errors.New("unknown campaign type")

// CampaignType is the advertising channel a campaign runs on. It decides
// which KPIs are meaningful for the campaign.
type CampaignType string

const (
	CampaignTypePerformanceMax CampaignType = "PERFORMANCE_MAX"
	CampaignTypeVideo          CampaignType = "VIDEO"
	CampaignTypeSearch         CampaignType = "SEARCH"
	CampaignTypeDisplay        CampaignType = "DISPLAY"
)

// Valid reports whether t is one of the known campaign types.
func (t CampaignType) Valid() bool {
	switch t {
	case CampaignTypePerformanceMax, CampaignTypeVideo, CampaignTypeSearch, CampaignTypeDisplay:
		return true
	}
	return false
}

// ParseCampaignType parses a campaign type name, case-insensitively.
func ParseCampaignType(s string) (CampaignType, error) {
	t := CampaignType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCampaignType, s)
	}
	return t, nil
}

// ChannelCampaignType maps a Google Ads advertising channel type and sub type
// onto a campaign type. Channels without a dedicated KPI set (shopping, local,
// smart, ...) are reported as display.
func ChannelCampaignType(channelType, subType string) CampaignType {
	combined := strings.ToUpper(channelType + "_" + subType)
	switch {
	case strings.Contains(combined, "PERFORMANCE_MAX"):
		return CampaignTypePerformanceMax
	case strings.Contains(combined, "VIDEO"):
		return CampaignTypeVideo
	case strings.Contains(combined, "SEARCH"):
		return CampaignTypeSearch
	default:
		return CampaignTypeDisplay
	}
}

type CampaignStatus string

const (
	CampaignStatusEnabled CampaignStatus = "ENABLED"
	CampaignStatusPaused  CampaignStatus = "PAUSED"
	CampaignStatusRemoved CampaignStatus = "REMOVED"
)

// Campaign is the summary used to populate the campaign picker.
type Campaign struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Type      CampaignType   `json:"type"`
	Status    CampaignStatus `json:"status"`
	StartDate string         `json:"start_date,omitempty"` // YYYY-MM-DD
}

func (c *Campaign) Validate() error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	if !c.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCampaignType, c.Type)
	}
	return nil
}

type BudgetType string

const (
	BudgetTypeDaily BudgetType = "DAILY"
	BudgetTypeTotal BudgetType = "TOTAL"
)

// Budget is expressed in account currency units, not micros.
type Budget struct {
	Amount float64    `json:"amount"`
	Type   BudgetType `json:"type"`
}

// CampaignDetails extends Campaign with settings shown in the dashboard header.
type CampaignDetails struct {
	Campaign

	EndDate         string    `json:"end_date,omitempty"`
	Budget          *Budget   `json:"budget,omitempty"`
	BiddingStrategy string    `json:"bidding_strategy,omitempty"`
	TargetROAS      float64   `json:"target_roas,omitempty"`
	TargetCPA       float64   `json:"target_cpa,omitempty"` // currency units
	AdGroups        int       `json:"ad_groups"`
	LastModified    time.Time `json:"last_modified,omitempty"`
}
