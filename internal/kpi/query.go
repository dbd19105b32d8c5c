package kpi

import (
	"fmt"
	"strings"

	"github.com/radiusdt/kpi-dashboard/internal/models"
)

// Query is the minimal projection and date predicate needed to compute a KPI
// set for one campaign. It performs no I/O; sources translate it into their
// own query language.
type Query struct {
	CampaignID string
	Fields     []Field
	Range      models.DateRange
}

// BuildQuery selects exactly the raw fields the KPIs need over dr.
func BuildQuery(campaignID string, ids []models.KPIType, dr models.DateRange) Query {
	return Query{
		CampaignID: campaignID,
		Fields:     FieldsFor(ids),
		Range:      dr,
	}
}

// DatePredicate renders the inclusive date filter.
func (q Query) DatePredicate() string {
	return fmt.Sprintf("segments.date BETWEEN '%s' AND '%s'", q.Range.StartDate(), q.Range.EndDate())
}

// Has reports whether f is part of the projection.
func (q Query) Has(f Field) bool {
	for _, qf := range q.Fields {
		if qf == f {
			return true
		}
	}
	return false
}

// GAQL renders the query in Google Ads Query Language. The campaign id is
// expected to be numeric; callers validate it.
func (q Query) GAQL() string {
	cols := make([]string, 0, len(q.Fields)+2)
	cols = append(cols, "campaign.id", "segments.date")
	for _, f := range q.Fields {
		cols = append(cols, string(f))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM campaign WHERE campaign.id = ")
	b.WriteString(q.CampaignID)
	b.WriteString(" AND ")
	b.WriteString(q.DatePredicate())
	b.WriteString(" ORDER BY segments.date")
	return b.String()
}
