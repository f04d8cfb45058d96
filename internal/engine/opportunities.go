package engine

import (
	"context"
	"errors"

	"groundswell/internal/domain"
	"groundswell/internal/ledger"
	"groundswell/internal/repo"
)

// OpportunityCreateOptions are parameters for publishing a unit of work.
type OpportunityCreateOptions struct {
	WorkstreamID   *int64
	Title          string
	Description    string
	RequiredSkills []string
	Budget         *domain.Budget
	Status         domain.OpportunityStatus
}

func (e Engine) CreateOpportunity(ctx context.Context, initiativeID int64, opts OpportunityCreateOptions, act Actor) (domain.Opportunity, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Opportunity{}, err
	}
	act, err := e.requireActor(ctx, act)
	if err != nil {
		return domain.Opportunity{}, err
	}
	if opts.Title == "" {
		return domain.Opportunity{}, ValidationError{Field: "title", Msg: "title is required"}
	}
	if _, err := e.Repo.GetInitiative(ctx, initiativeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Opportunity{}, NotFoundError{Entity: "initiative", ID: initiativeID}
		}
		return domain.Opportunity{}, err
	}
	status := opts.Status
	if status == "" {
		status = domain.OpportunityDraft
	}
	now := e.now().Unix()
	o := domain.Opportunity{
		InitiativeID:          initiativeID,
		WorkstreamID:          opts.WorkstreamID,
		Title:                 opts.Title,
		Description:           opts.Description,
		RequiredSkills:        opts.RequiredSkills,
		Budget:                opts.Budget,
		Status:                status,
		CreatedByIndividualID: act.individualPtr(),
		CreatedByOrgID:        act.OrgID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	id, err := e.Repo.InsertOpportunity(ctx, o)
	if err != nil {
		return domain.Opportunity{}, err
	}
	o.ID = id
	eventType := "opportunity.created"
	if status == domain.OpportunityOpen {
		eventType = "opportunity.published"
	}
	if _, err := e.Ledger.Emit(ctx, ledger.Event{
		Type:              eventType,
		Payload:           map[string]any{"title": o.Title, "status": string(o.Status)},
		InitiativeID:      &initiativeID,
		OpportunityID:     &id,
		ActorIndividualID: act.individualPtr(),
		ActorOrgID:        act.OrgID,
	}); err != nil {
		return o, err
	}
	return o, nil
}

func (e Engine) GetOpportunity(ctx context.Context, id int64) (domain.Opportunity, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Opportunity{}, err
	}
	o, err := e.Repo.GetOpportunity(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return o, NotFoundError{Entity: "opportunity", ID: id}
	}
	return o, err
}

// EngagementCreateOptions are parameters for binding a contributor to an
// opportunity. The contributor is named directly by individual id or looked
// up by wallet address; an agent row reference covers non-human contributors.
type EngagementCreateOptions struct {
	InitiativeID            int64
	RequestingOrgID         *int64
	ContributorIndividualID *int64
	ContributorAddress      string
	ContributorAgentRowID   *int64
	Terms                   *domain.Terms
	Status                  domain.EngagementStatus
}

func (e Engine) CreateEngagement(ctx context.Context, opportunityID int64, opts EngagementCreateOptions, act Actor) (domain.Engagement, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Engagement{}, err
	}
	act, err := e.requireActor(ctx, act)
	if err != nil {
		return domain.Engagement{}, err
	}
	opp, err := e.Repo.GetOpportunity(ctx, opportunityID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Engagement{}, NotFoundError{Entity: "opportunity", ID: opportunityID}
		}
		return domain.Engagement{}, err
	}
	initiativeID := opts.InitiativeID
	if initiativeID == 0 {
		initiativeID = opp.InitiativeID
	}
	contributor := opts.ContributorIndividualID
	if contributor == nil && opts.ContributorAddress != "" {
		if id, ok, err := e.Resolver.IndividualIDByAddress(ctx, opts.ContributorAddress); err != nil {
			return domain.Engagement{}, err
		} else if ok {
			contributor = &id
		}
	}
	status := opts.Status
	if status == "" {
		status = domain.EngagementProposed
	}
	now := e.now().Unix()
	eng := domain.Engagement{
		InitiativeID:            initiativeID,
		OpportunityID:           opportunityID,
		RequestingOrgID:         opts.RequestingOrgID,
		ContributorIndividualID: contributor,
		ContributorAgentRowID:   opts.ContributorAgentRowID,
		Terms:                   opts.Terms,
		Status:                  status,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
	id, err := e.Repo.InsertEngagement(ctx, eng)
	if err != nil {
		return domain.Engagement{}, err
	}
	eng.ID = id

	// The engagement is the source of truth; the opportunity status is a
	// derived hint, so a cascade failure does not undo the engagement.
	if status == domain.EngagementActive {
		e.fillOpportunity(ctx, opportunityID, id)
	}

	eventType := "engagement.created"
	if status == domain.EngagementActive {
		eventType = "engagement.activated"
	}
	if _, err := e.Ledger.Emit(ctx, ledger.Event{
		Type:              eventType,
		Payload:           map[string]any{"status": string(eng.Status)},
		InitiativeID:      &initiativeID,
		OpportunityID:     &opportunityID,
		EngagementID:      &id,
		ActorIndividualID: act.individualPtr(),
		ActorOrgID:        act.OrgID,
	}); err != nil {
		return eng, err
	}
	return eng, nil
}

func (e Engine) fillOpportunity(ctx context.Context, opportunityID, engagementID int64) {
	if err := e.Repo.UpdateOpportunityStatus(ctx, opportunityID, domain.OpportunityFilled, e.now().Unix()); err != nil {
		e.logger().Warn("opportunity fill cascade failed",
			"opportunity_id", opportunityID, "engagement_id", engagementID, "error", err)
	}
}

func (e Engine) GetEngagement(ctx context.Context, id int64) (domain.Engagement, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Engagement{}, err
	}
	eng, err := e.Repo.GetEngagement(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return eng, NotFoundError{Entity: "engagement", ID: id}
	}
	return eng, err
}

// UpdateEngagement merge-patches status and terms. When the patch activates
// a previously inactive engagement and cascade-on-update is configured, the
// parent opportunity is marked filled just like the creation path.
func (e Engine) UpdateEngagement(ctx context.Context, id int64, patch repo.EngagementPatch, act Actor) (domain.Engagement, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Engagement{}, err
	}
	act, err := e.requireActor(ctx, act)
	if err != nil {
		return domain.Engagement{}, err
	}
	prev, err := e.Repo.GetEngagement(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Engagement{}, NotFoundError{Entity: "engagement", ID: id}
		}
		return domain.Engagement{}, err
	}
	if err := e.Repo.UpdateEngagement(ctx, id, patch, e.now().Unix()); err != nil {
		return domain.Engagement{}, err
	}
	activated := patch.Status != nil && *patch.Status == domain.EngagementActive && prev.Status != domain.EngagementActive
	if activated && e.Config.Engagements.CascadeOnUpdate {
		e.fillOpportunity(ctx, prev.OpportunityID, id)
	}
	eventType := "engagement.updated"
	payload := map[string]any{}
	if patch.Status != nil {
		payload["from_status"] = string(prev.Status)
		payload["to_status"] = string(*patch.Status)
	}
	if activated {
		eventType = "engagement.activated"
	}
	if _, err := e.Ledger.Emit(ctx, ledger.Event{
		Type:              eventType,
		Payload:           payload,
		InitiativeID:      &prev.InitiativeID,
		OpportunityID:     &prev.OpportunityID,
		EngagementID:      &id,
		ActorIndividualID: act.individualPtr(),
		ActorOrgID:        act.OrgID,
	}); err != nil {
		return domain.Engagement{}, err
	}
	return e.Repo.GetEngagement(ctx, id)
}
