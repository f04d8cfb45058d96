package engine

import (
	"context"
	"errors"

	"groundswell/internal/domain"
	"groundswell/internal/ledger"
	"groundswell/internal/repo"
)

// ParticipantInput names one party to join an initiative.
type ParticipantInput struct {
	Kind           domain.ParticipantKind
	IndividualID   *int64
	OrganizationID *int64
	Role           string
	Status         domain.ParticipantStatus
}

// InitiativeCreateOptions are parameters for chartering an initiative.
type InitiativeCreateOptions struct {
	Title        string
	Summary      string
	State        domain.InitiativeState
	Governance   *domain.Governance
	Budget       *domain.Budget
	PayoutRules  *domain.PayoutRules
	Metadata     map[string]any
	Participants []ParticipantInput
}

func (e Engine) CreateInitiative(ctx context.Context, opts InitiativeCreateOptions, act Actor) (domain.Initiative, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Initiative{}, err
	}
	act, err := e.requireActor(ctx, act)
	if err != nil {
		return domain.Initiative{}, err
	}
	if opts.Title == "" {
		return domain.Initiative{}, ValidationError{Field: "title", Msg: "title is required"}
	}
	state := opts.State
	if state == "" {
		state = domain.InitiativeDraft
	}
	if !state.Known() {
		return domain.Initiative{}, ValidationError{Field: "state", Msg: "unknown initiative state"}
	}
	now := e.now().Unix()
	in := domain.Initiative{
		Title:                 opts.Title,
		Summary:               opts.Summary,
		State:                 state,
		CreatedByIndividualID: act.IndividualID,
		CreatedByOrgID:        act.OrgID,
		Governance:            opts.Governance,
		Budget:                opts.Budget,
		PayoutRules:           opts.PayoutRules,
		Metadata:              opts.Metadata,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	id, err := e.Repo.InsertInitiative(ctx, in)
	if err != nil {
		return domain.Initiative{}, err
	}
	in.ID = id

	// The creator joins as steward. A failure here must not fail the charter.
	creatorID := act.IndividualID
	if _, err := e.Repo.InsertParticipantIfAbsent(ctx, domain.Participant{
		InitiativeID: id,
		Kind:         domain.KindIndividual,
		IndividualID: &creatorID,
		Role:         "steward",
		Status:       domain.ParticipantActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		e.logger().Warn("steward participant insert failed", "initiative_id", id, "individual_id", creatorID, "error", err)
	}
	for _, p := range opts.Participants {
		row, perr := participantRow(id, p, act, now)
		if perr != nil {
			e.logger().Warn("initial participant skipped", "initiative_id", id, "error", perr)
			continue
		}
		if _, err := e.Repo.InsertParticipantIfAbsent(ctx, row); err != nil {
			e.logger().Warn("initial participant insert failed", "initiative_id", id, "error", err)
		}
	}

	if _, err := e.Ledger.Emit(ctx, ledger.Event{
		Type:              "initiative.created",
		Payload:           map[string]any{"title": in.Title, "state": string(in.State)},
		InitiativeID:      &id,
		ActorIndividualID: act.individualPtr(),
		ActorOrgID:        act.OrgID,
	}); err != nil {
		return in, err
	}
	return in, nil
}

func participantRow(initiativeID int64, p ParticipantInput, act Actor, now int64) (domain.Participant, error) {
	if !p.Kind.Known() {
		return domain.Participant{}, ValidationError{Field: "participant_kind", Msg: "must be individual or organization"}
	}
	if p.Kind == domain.KindIndividual && (p.IndividualID == nil || *p.IndividualID <= 0) {
		return domain.Participant{}, ValidationError{Field: "individual_id", Msg: "required for individual participants"}
	}
	if p.Kind == domain.KindOrganization && (p.OrganizationID == nil || *p.OrganizationID <= 0) {
		return domain.Participant{}, ValidationError{Field: "organization_id", Msg: "required for organization participants"}
	}
	role := p.Role
	if role == "" {
		role = "observer"
	}
	status := p.Status
	if status == "" {
		status = domain.ParticipantInvited
	}
	row := domain.Participant{
		InitiativeID:        initiativeID,
		Kind:                p.Kind,
		Role:                role,
		Status:              status,
		InvitedByIndividual: act.individualPtr(),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if p.Kind == domain.KindIndividual {
		row.IndividualID = p.IndividualID
	} else {
		row.OrganizationID = p.OrganizationID
	}
	return row, nil
}

func (e Engine) GetInitiative(ctx context.Context, id int64) (domain.Initiative, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Initiative{}, err
	}
	in, err := e.Repo.GetInitiative(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return in, NotFoundError{Entity: "initiative", ID: id}
	}
	return in, err
}

// GetDashboard assembles the full read model for one initiative.
func (e Engine) GetDashboard(ctx context.Context, id int64) (domain.Dashboard, error) {
	in, err := e.GetInitiative(ctx, id)
	if err != nil {
		return domain.Dashboard{}, err
	}
	limit := e.Config.Dashboard.SectionLimit
	d := domain.Dashboard{Initiative: in}
	if d.Participants, err = e.Repo.ListParticipants(ctx, id); err != nil {
		return d, err
	}
	if d.Workstreams, err = e.Repo.ListWorkstreams(ctx, id); err != nil {
		return d, err
	}
	if d.Outcomes, err = e.Repo.ListOutcomes(ctx, id); err != nil {
		return d, err
	}
	if d.Opportunities, err = e.Repo.ListOpportunities(ctx, id, limit); err != nil {
		return d, err
	}
	if d.Engagements, err = e.Repo.ListEngagements(ctx, id, limit); err != nil {
		return d, err
	}
	if d.Milestones, err = e.Repo.ListMilestonesByInitiative(ctx, id, limit); err != nil {
		return d, err
	}
	if d.Attestations, err = e.Ledger.List(ctx, ledger.Filter{InitiativeID: &id}, e.Config.Ledger.FeedLimit); err != nil {
		return d, err
	}
	if d.Counts, err = e.Repo.CountsForInitiative(ctx, id); err != nil {
		return d, err
	}
	return d, nil
}

func (e Engine) UpdateInitiative(ctx context.Context, id int64, patch repo.InitiativePatch, act Actor) (domain.Initiative, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Initiative{}, err
	}
	act, err := e.requireActor(ctx, act)
	if err != nil {
		return domain.Initiative{}, err
	}
	if patch.State != nil && !patch.State.Known() {
		return domain.Initiative{}, ValidationError{Field: "state", Msg: "unknown initiative state"}
	}
	prev, err := e.Repo.GetInitiative(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Initiative{}, NotFoundError{Entity: "initiative", ID: id}
		}
		return domain.Initiative{}, err
	}
	if patch.Empty() {
		return prev, nil
	}
	if err := e.Repo.UpdateInitiative(ctx, id, patch, e.now().Unix()); err != nil {
		return domain.Initiative{}, err
	}
	if _, err := e.Ledger.Emit(ctx, ledger.Event{
		Type:              "initiative.updated",
		Payload:           map[string]any{"fields": patch.Fields()},
		InitiativeID:      &id,
		ActorIndividualID: act.individualPtr(),
		ActorOrgID:        act.OrgID,
	}); err != nil {
		return domain.Initiative{}, err
	}
	return e.Repo.GetInitiative(ctx, id)
}

// ListInitiatives scopes the listing: "active" excludes closed initiatives;
// "mine" returns initiatives the individual created or participates in,
// directly or through an organization; anything else lists all.
func (e Engine) ListInitiatives(ctx context.Context, scope string, individualID int64) ([]domain.Initiative, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return nil, err
	}
	f := repo.InitiativeFilters{Scope: scope}
	if scope == "mine" {
		if individualID <= 0 {
			return []domain.Initiative{}, nil
		}
		orgIDs, err := e.Resolver.OrganizationIDsForIndividual(ctx, individualID)
		if err != nil {
			return nil, err
		}
		f.IndividualID = individualID
		f.OrgIDs = orgIDs
	}
	return e.Repo.ListInitiatives(ctx, f)
}

// UpsertParticipant applies one of add/remove/update. Add is idempotent on
// the uniqueness key; remove flips status to removed rather than deleting.
func (e Engine) UpsertParticipant(ctx context.Context, initiativeID int64, action string, p ParticipantInput, act Actor) error {
	if err := e.ensureSchema(ctx); err != nil {
		return err
	}
	act, err := e.requireActor(ctx, act)
	if err != nil {
		return err
	}
	if _, err := e.Repo.GetInitiative(ctx, initiativeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NotFoundError{Entity: "initiative", ID: initiativeID}
		}
		return err
	}
	now := e.now().Unix()
	row, err := participantRow(initiativeID, p, act, now)
	if err != nil {
		return err
	}
	var eventType string
	switch action {
	case "add":
		if _, err := e.Repo.InsertParticipantIfAbsent(ctx, row); err != nil {
			return err
		}
		eventType = "initiative.participant.added"
	case "remove":
		removed := domain.ParticipantRemoved
		err := e.Repo.UpdateParticipant(ctx, initiativeID, row.Kind, row.IndividualID, row.OrganizationID,
			repo.ParticipantPatch{Status: &removed}, now)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		eventType = "initiative.participant.removed"
	case "update":
		patch := repo.ParticipantPatch{}
		if p.Role != "" {
			patch.Role = &p.Role
		}
		if p.Status != "" {
			status := p.Status
			patch.Status = &status
		}
		if err := e.Repo.UpdateParticipant(ctx, initiativeID, row.Kind, row.IndividualID, row.OrganizationID, patch, now); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NotFoundError{Entity: "participant", ID: initiativeID}
			}
			return err
		}
		eventType = "initiative.participant.updated"
	default:
		return ValidationError{Field: "action", Msg: "must be add, remove or update"}
	}
	payload := map[string]any{"kind": string(row.Kind)}
	if row.IndividualID != nil {
		payload["individual_id"] = *row.IndividualID
	}
	if row.OrganizationID != nil {
		payload["organization_id"] = *row.OrganizationID
	}
	_, err = e.Ledger.Emit(ctx, ledger.Event{
		Type:              eventType,
		Payload:           payload,
		InitiativeID:      &initiativeID,
		ActorIndividualID: act.individualPtr(),
		ActorOrgID:        act.OrgID,
	})
	return err
}

// WorkstreamCreateOptions are parameters for adding a workstream.
type WorkstreamCreateOptions struct {
	Title       string
	Description string
	Status      string
	SortOrder   int64
}

func (e Engine) CreateWorkstream(ctx context.Context, initiativeID int64, opts WorkstreamCreateOptions, act Actor) (domain.Workstream, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Workstream{}, err
	}
	act, err := e.requireActor(ctx, act)
	if err != nil {
		return domain.Workstream{}, err
	}
	if opts.Title == "" {
		return domain.Workstream{}, ValidationError{Field: "title", Msg: "title is required"}
	}
	if _, err := e.Repo.GetInitiative(ctx, initiativeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Workstream{}, NotFoundError{Entity: "initiative", ID: initiativeID}
		}
		return domain.Workstream{}, err
	}
	status := opts.Status
	if status == "" {
		status = "active"
	}
	now := e.now().Unix()
	w := domain.Workstream{
		InitiativeID: initiativeID,
		Title:        opts.Title,
		Description:  opts.Description,
		Status:       status,
		SortOrder:    opts.SortOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	id, err := e.Repo.InsertWorkstream(ctx, w)
	if err != nil {
		return domain.Workstream{}, err
	}
	w.ID = id
	if _, err := e.Ledger.Emit(ctx, ledger.Event{
		Type:              "workstream.created",
		Payload:           map[string]any{"workstream_id": id, "title": w.Title},
		InitiativeID:      &initiativeID,
		ActorIndividualID: act.individualPtr(),
		ActorOrgID:        act.OrgID,
	}); err != nil {
		return w, err
	}
	return w, nil
}

// OutcomeCreateOptions are parameters for adding a measurable outcome.
type OutcomeCreateOptions struct {
	Title  string
	Metric *domain.Metric
	Status string
}

func (e Engine) CreateOutcome(ctx context.Context, initiativeID int64, opts OutcomeCreateOptions, act Actor) (domain.Outcome, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return domain.Outcome{}, err
	}
	act, err := e.requireActor(ctx, act)
	if err != nil {
		return domain.Outcome{}, err
	}
	if opts.Title == "" {
		return domain.Outcome{}, ValidationError{Field: "title", Msg: "title is required"}
	}
	if _, err := e.Repo.GetInitiative(ctx, initiativeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Outcome{}, NotFoundError{Entity: "initiative", ID: initiativeID}
		}
		return domain.Outcome{}, err
	}
	status := opts.Status
	if status == "" {
		status = "defined"
	}
	now := e.now().Unix()
	o := domain.Outcome{
		InitiativeID: initiativeID,
		Title:        opts.Title,
		Metric:       opts.Metric,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	id, err := e.Repo.InsertOutcome(ctx, o)
	if err != nil {
		return domain.Outcome{}, err
	}
	o.ID = id
	if _, err := e.Ledger.Emit(ctx, ledger.Event{
		Type:              "outcome.created",
		Payload:           map[string]any{"outcome_id": id, "title": o.Title},
		InitiativeID:      &initiativeID,
		ActorIndividualID: act.individualPtr(),
		ActorOrgID:        act.OrgID,
	}); err != nil {
		return o, err
	}
	return o, nil
}
