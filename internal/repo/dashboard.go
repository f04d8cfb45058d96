package repo

import (
	"context"

	"groundswell/internal/domain"
)

// CountsForInitiative aggregates the totals shown on the dashboard.
func (r Repo) CountsForInitiative(ctx context.Context, initiativeID int64) (domain.DashboardCounts, error) {
	var c domain.DashboardCounts
	queries := []struct {
		dst   *int
		query string
	}{
		{&c.Participants, `SELECT count(*) FROM initiative_participants WHERE initiative_id=?`},
		{&c.Opportunities, `SELECT count(*) FROM opportunities WHERE initiative_id=?`},
		{&c.Engagements, `SELECT count(*) FROM engagements WHERE initiative_id=?`},
		{&c.Milestones, `SELECT count(*) FROM milestones WHERE engagement_id IN (SELECT id FROM engagements WHERE initiative_id=?)`},
		{&c.Attestations, `SELECT count(*) FROM attestations WHERE initiative_id=?`},
		{&c.OpenOpportunities, `SELECT count(*) FROM opportunities WHERE initiative_id=? AND status='open'`},
		{&c.ActiveEngagements, `SELECT count(*) FROM engagements WHERE initiative_id=? AND status='active'`},
		{&c.PendingMilestones, `SELECT count(*) FROM milestones WHERE engagement_id IN (SELECT id FROM engagements WHERE initiative_id=?) AND status IN ('pending','submitted')`},
	}
	for _, q := range queries {
		if err := r.DB.QueryRowContext(ctx, q.query, initiativeID).Scan(q.dst); err != nil {
			return c, err
		}
	}
	return c, nil
}
