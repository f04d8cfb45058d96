package engine

import (
	"context"
	"errors"

	"groundswell/internal/domain"
	"groundswell/internal/ledger"
	"groundswell/internal/repo"
)

// MilestoneCreateOptions are parameters for adding a deliverable checkpoint.
type MilestoneCreateOptions struct {
	Title    string
	DueAt    *int64
	Status   domain.MilestoneStatus
	Evidence *domain.Evidence
	Payout   *domain.Payout
}

func (e Engine) CreateMilestone(ctx context.Context, engagementID int64, opts MilestoneCreateOptions, act Actor) (domain.Milestone, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Milestone{}, err
	}
	act, err := e.requireActor(ctx, act)
	if err != nil {
		return domain.Milestone{}, err
	}
	if opts.Title == "" {
		return domain.Milestone{}, ValidationError{Field: "title", Msg: "title is required"}
	}
	eng, err := e.Repo.GetEngagement(ctx, engagementID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Milestone{}, NotFoundError{Entity: "engagement", ID: engagementID}
		}
		return domain.Milestone{}, err
	}
	status := opts.Status
	if status == "" {
		status = domain.MilestonePending
	}
	now := e.now().Unix()
	m := domain.Milestone{
		EngagementID: engagementID,
		Title:        opts.Title,
		DueAt:        opts.DueAt,
		Status:       status,
		Evidence:     opts.Evidence,
		Payout:       opts.Payout,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	id, err := e.Repo.InsertMilestone(ctx, m)
	if err != nil {
		return domain.Milestone{}, err
	}
	m.ID = id
	if _, err := e.Ledger.Emit(ctx, ledger.Event{
		Type:              "milestone.created",
		Payload:           map[string]any{"title": m.Title, "status": string(m.Status)},
		InitiativeID:      &eng.InitiativeID,
		OpportunityID:     &eng.OpportunityID,
		EngagementID:      &engagementID,
		MilestoneID:       &id,
		ActorIndividualID: act.individualPtr(),
		ActorOrgID:        act.OrgID,
	}); err != nil {
		return m, err
	}
	return m, nil
}

func (e Engine) GetMilestone(ctx context.Context, id int64) (domain.Milestone, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Milestone{}, err
	}
	m, err := e.Repo.GetMilestone(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return m, NotFoundError{Entity: "milestone", ID: id}
	}
	return m, err
}

// milestoneEventType maps a new status onto its attestation type. Statuses
// outside the known transitions still record a generic update.
func milestoneEventType(status domain.MilestoneStatus) string {
	switch status {
	case domain.MilestoneSubmitted:
		return "milestone.submitted"
	case domain.MilestoneVerified:
		return "milestone.verified"
	case domain.MilestoneRejected:
		return "milestone.rejected"
	default:
		return "milestone.updated"
	}
}

// UpdateMilestone merge-patches status, evidence and payout. A status change
// emits exactly one attestation typed by the new status; an unchanged status
// emits nothing.
func (e Engine) UpdateMilestone(ctx context.Context, id int64, patch repo.MilestonePatch, act Actor) (domain.Milestone, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Milestone{}, err
	}
	act, err := e.requireActor(ctx, act)
	if err != nil {
		return domain.Milestone{}, err
	}
	prev, err := e.Repo.GetMilestone(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Milestone{}, NotFoundError{Entity: "milestone", ID: id}
		}
		return domain.Milestone{}, err
	}
	if err := e.Repo.UpdateMilestone(ctx, id, patch, e.now().Unix()); err != nil {
		return domain.Milestone{}, err
	}
	statusChanged := patch.Status != nil && *patch.Status != prev.Status
	if statusChanged {
		eng, err := e.Repo.GetEngagement(ctx, prev.EngagementID)
		if err != nil {
			return domain.Milestone{}, err
		}
		if _, err := e.Ledger.Emit(ctx, ledger.Event{
			Type: milestoneEventType(*patch.Status),
			Payload: map[string]any{
				"from_status": string(prev.Status),
				"to_status":   string(*patch.Status),
			},
			InitiativeID:      &eng.InitiativeID,
			OpportunityID:     &eng.OpportunityID,
			EngagementID:      &prev.EngagementID,
			MilestoneID:       &id,
			ActorIndividualID: act.individualPtr(),
			ActorOrgID:        act.OrgID,
		}); err != nil {
			return domain.Milestone{}, err
		}
	}
	return e.Repo.GetMilestone(ctx, id)
}
