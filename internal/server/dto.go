package server

import (
	"groundswell/internal/domain"
	"groundswell/internal/engine"
	"groundswell/internal/repo"
)

// Request payloads

type ParticipantRequest struct {
	Kind           string `json:"participant_kind" enum:"individual,organization"`
	IndividualID   *int64 `json:"individual_id,omitempty"`
	OrganizationID *int64 `json:"organization_id,omitempty"`
	Role           string `json:"role,omitempty"`
	Status         string `json:"status,omitempty"`
}

func (p ParticipantRequest) input() engine.ParticipantInput {
	return engine.ParticipantInput{
		Kind:           domain.ParticipantKind(p.Kind),
		IndividualID:   p.IndividualID,
		OrganizationID: p.OrganizationID,
		Role:           p.Role,
		Status:         domain.ParticipantStatus(p.Status),
	}
}

type CreateInitiativeRequest struct {
	Title        string               `json:"title"`
	Summary      string               `json:"summary,omitempty"`
	State        string               `json:"state,omitempty" enum:"draft,chartered,funded,executing,evaluating,closed"`
	Governance   *domain.Governance   `json:"governance,omitempty"`
	Budget       *domain.Budget       `json:"budget,omitempty"`
	PayoutRules  *domain.PayoutRules  `json:"payout_rules,omitempty"`
	Metadata     map[string]any       `json:"metadata,omitempty"`
	Participants []ParticipantRequest `json:"participants,omitempty"`
}

func (r CreateInitiativeRequest) options() engine.InitiativeCreateOptions {
	opts := engine.InitiativeCreateOptions{
		Title:       r.Title,
		Summary:     r.Summary,
		State:       domain.InitiativeState(r.State),
		Governance:  r.Governance,
		Budget:      r.Budget,
		PayoutRules: r.PayoutRules,
		Metadata:    r.Metadata,
	}
	for _, p := range r.Participants {
		opts.Participants = append(opts.Participants, p.input())
	}
	return opts
}

type UpdateInitiativeRequest struct {
	Title       *string             `json:"title,omitempty"`
	Summary     *string             `json:"summary,omitempty"`
	State       *string             `json:"state,omitempty"`
	Governance  *domain.Governance  `json:"governance,omitempty"`
	Budget      *domain.Budget      `json:"budget,omitempty"`
	PayoutRules *domain.PayoutRules `json:"payout_rules,omitempty"`
	Metadata    map[string]any      `json:"metadata,omitempty"`
}

func (r UpdateInitiativeRequest) patch() repo.InitiativePatch {
	p := repo.InitiativePatch{
		Title:       r.Title,
		Summary:     r.Summary,
		Governance:  r.Governance,
		Budget:      r.Budget,
		PayoutRules: r.PayoutRules,
		Metadata:    r.Metadata,
	}
	if r.State != nil {
		state := domain.InitiativeState(*r.State)
		p.State = &state
	}
	return p
}

type ParticipantActionRequest struct {
	Action      string             `json:"action" enum:"add,remove,update"`
	Participant ParticipantRequest `json:"participant"`
}

type CreateWorkstreamRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	SortOrder   int64  `json:"sort_order,omitempty"`
}

type CreateOutcomeRequest struct {
	Title  string         `json:"title"`
	Metric *domain.Metric `json:"metric,omitempty"`
	Status string         `json:"status,omitempty"`
}

type CreateOpportunityRequest struct {
	WorkstreamID   *int64         `json:"workstream_id,omitempty"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	RequiredSkills []string       `json:"required_skills,omitempty"`
	Budget         *domain.Budget `json:"budget,omitempty"`
	Status         string         `json:"status,omitempty" enum:"draft,open,filled,closed"`
}

type CreateEngagementRequest struct {
	InitiativeID            int64         `json:"initiative_id,omitempty"`
	RequestingOrgID         *int64        `json:"requesting_organization_id,omitempty"`
	ContributorIndividualID *int64        `json:"contributor_individual_id,omitempty"`
	ContributorAddress      string        `json:"contributor_address,omitempty"`
	ContributorAgentRowID   *int64        `json:"contributor_agent_row_id,omitempty"`
	Terms                   *domain.Terms `json:"terms,omitempty"`
	Status                  string        `json:"status,omitempty" enum:"proposed,active,completed,terminated"`
}

type UpdateEngagementRequest struct {
	Status *string       `json:"status,omitempty"`
	Terms  *domain.Terms `json:"terms,omitempty"`
}

func (r UpdateEngagementRequest) patch() repo.EngagementPatch {
	p := repo.EngagementPatch{Terms: r.Terms}
	if r.Status != nil {
		status := domain.EngagementStatus(*r.Status)
		p.Status = &status
	}
	return p
}

type CreateMilestoneRequest struct {
	Title    string           `json:"title"`
	DueAt    *int64           `json:"due_at,omitempty"`
	Status   string           `json:"status,omitempty"`
	Evidence *domain.Evidence `json:"evidence,omitempty"`
	Payout   *domain.Payout   `json:"payout,omitempty"`
}

type UpdateMilestoneRequest struct {
	Status   *string          `json:"status,omitempty"`
	DueAt    *int64           `json:"due_at,omitempty"`
	Evidence *domain.Evidence `json:"evidence,omitempty"`
	Payout   *domain.Payout   `json:"payout,omitempty"`
}

func (r UpdateMilestoneRequest) patch() repo.MilestonePatch {
	p := repo.MilestonePatch{DueAt: r.DueAt, Evidence: r.Evidence, Payout: r.Payout}
	if r.Status != nil {
		status := domain.MilestoneStatus(*r.Status)
		p.Status = &status
	}
	return p
}

type ChainAttestationRequest struct {
	Type          string         `json:"attestation_type"`
	Payload       map[string]any `json:"payload,omitempty"`
	InitiativeID  *int64         `json:"initiative_id,omitempty"`
	OpportunityID *int64         `json:"opportunity_id,omitempty"`
	EngagementID  *int64         `json:"engagement_id,omitempty"`
	MilestoneID   *int64         `json:"milestone_id,omitempty"`
	ChainID       *int64         `json:"chain_id,omitempty"`
	TxHash        string         `json:"tx_hash,omitempty"`
	EASUID        string         `json:"eas_uid,omitempty"`
}

type RegisterIndividualRequest struct {
	Name          string `json:"name"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

type RegisterOrganizationRequest struct {
	Name string `json:"name"`
}

type AddMemberRequest struct {
	IndividualID int64  `json:"individual_id"`
	Role         string `json:"role,omitempty"`
}

type CapabilityRequest struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}
