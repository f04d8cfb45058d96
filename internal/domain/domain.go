package domain

// Initiative is a chartered program of collaborative work.
type Initiative struct {
	ID                    int64           `json:"id"`
	Title                 string          `json:"title"`
	Summary               string          `json:"summary,omitempty"`
	State                 InitiativeState `json:"state" enum:"draft,chartered,funded,executing,evaluating,closed"`
	CreatedByIndividualID int64           `json:"created_by_individual_id"`
	CreatedByOrgID        *int64          `json:"created_by_org_id,omitempty"`
	Governance            *Governance     `json:"governance,omitempty"`
	Budget                *Budget         `json:"budget,omitempty"`
	PayoutRules           *PayoutRules    `json:"payout_rules,omitempty"`
	Metadata              map[string]any  `json:"metadata,omitempty"`
	CreatedAt             int64           `json:"created_at"`
	UpdatedAt             int64           `json:"updated_at"`
}

// Participant joins an initiative to an individual or an organization.
type Participant struct {
	ID                  int64             `json:"id"`
	InitiativeID        int64             `json:"initiative_id"`
	Kind                ParticipantKind   `json:"participant_kind" enum:"individual,organization"`
	IndividualID        *int64            `json:"individual_id,omitempty"`
	OrganizationID      *int64            `json:"organization_id,omitempty"`
	Role                string            `json:"role"`
	Status              ParticipantStatus `json:"status"`
	InvitedByIndividual *int64            `json:"invited_by_individual_id,omitempty"`
	DisplayName         string            `json:"display_name,omitempty"`
	CreatedAt           int64             `json:"created_at"`
	UpdatedAt           int64             `json:"updated_at"`
}

type Workstream struct {
	ID           int64  `json:"id"`
	InitiativeID int64  `json:"initiative_id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Status       string `json:"status"`
	SortOrder    int64  `json:"sort_order"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

type Outcome struct {
	ID           int64   `json:"id"`
	InitiativeID int64   `json:"initiative_id"`
	Title        string  `json:"title"`
	Metric       *Metric `json:"metric,omitempty"`
	Status       string  `json:"status"`
	CreatedAt    int64   `json:"created_at"`
	UpdatedAt    int64   `json:"updated_at"`
}

// Opportunity is a fillable unit of work under an initiative.
type Opportunity struct {
	ID                    int64             `json:"id"`
	InitiativeID          int64             `json:"initiative_id"`
	WorkstreamID          *int64            `json:"workstream_id,omitempty"`
	Title                 string            `json:"title"`
	Description           string            `json:"description,omitempty"`
	RequiredSkills        []string          `json:"required_skills,omitempty"`
	Budget                *Budget           `json:"budget,omitempty"`
	Status                OpportunityStatus `json:"status" enum:"draft,open,filled,closed"`
	CreatedByIndividualID *int64            `json:"created_by_individual_id,omitempty"`
	CreatedByOrgID        *int64            `json:"created_by_org_id,omitempty"`
	CreatedAt             int64             `json:"created_at"`
	UpdatedAt             int64             `json:"updated_at"`
}

// Engagement binds a contributor to an opportunity.
type Engagement struct {
	ID                      int64            `json:"id"`
	InitiativeID            int64            `json:"initiative_id"`
	OpportunityID           int64            `json:"opportunity_id"`
	RequestingOrgID         *int64           `json:"requesting_organization_id,omitempty"`
	ContributorIndividualID *int64           `json:"contributor_individual_id,omitempty"`
	ContributorAgentRowID   *int64           `json:"contributor_agent_row_id,omitempty"`
	Terms                   *Terms           `json:"terms,omitempty"`
	Status                  EngagementStatus `json:"status" enum:"proposed,active,completed,terminated"`
	OpportunityTitle        string           `json:"opportunity_title,omitempty"`
	ContributorName         string           `json:"contributor_name,omitempty"`
	RequestingOrgName       string           `json:"requesting_organization_name,omitempty"`
	CreatedAt               int64            `json:"created_at"`
	UpdatedAt               int64            `json:"updated_at"`
}

type Milestone struct {
	ID           int64           `json:"id"`
	EngagementID int64           `json:"engagement_id"`
	Title        string          `json:"title"`
	DueAt        *int64          `json:"due_at,omitempty"`
	Status       MilestoneStatus `json:"status" enum:"pending,submitted,verified,rejected"`
	Evidence     *Evidence       `json:"evidence,omitempty"`
	Payout       *Payout         `json:"payout,omitempty"`
	CreatedAt    int64           `json:"created_at"`
	UpdatedAt    int64           `json:"updated_at"`
}

// Attestation is one immutable audit record of a state-changing event.
type Attestation struct {
	ID                int64          `json:"id"`
	Type              string         `json:"attestation_type"`
	Payload           map[string]any `json:"payload,omitempty"`
	InitiativeID      *int64         `json:"initiative_id,omitempty"`
	OpportunityID     *int64         `json:"opportunity_id,omitempty"`
	EngagementID      *int64         `json:"engagement_id,omitempty"`
	MilestoneID       *int64         `json:"milestone_id,omitempty"`
	ActorIndividualID *int64         `json:"actor_individual_id,omitempty"`
	ActorOrgID        *int64         `json:"actor_org_id,omitempty"`
	ChainID           *int64         `json:"chain_id,omitempty"`
	TxHash            string         `json:"tx_hash,omitempty"`
	EASUID            string         `json:"eas_uid,omitempty"`
	CreatedAt         int64          `json:"created_at"`
}

// Individual and Organization are identity records owned by an external
// module; this core reads their keys and display fields.
type Individual struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	WalletAddress string `json:"wallet_address,omitempty"`
	CreatedAt     int64  `json:"created_at"`
}

type Organization struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// Capability is a catalog entry describing a skill opportunities may require.
type Capability struct {
	ID          int64  `json:"id"`
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// DashboardCounts aggregates totals for one initiative.
type DashboardCounts struct {
	Participants      int `json:"participants"`
	Opportunities     int `json:"opportunities"`
	Engagements       int `json:"engagements"`
	Milestones        int `json:"milestones"`
	Attestations      int `json:"attestations"`
	OpenOpportunities int `json:"open_opportunities"`
	ActiveEngagements int `json:"active_engagements"`
	PendingMilestones int `json:"pending_milestones"`
}

// Dashboard is the full read model for one initiative.
type Dashboard struct {
	Initiative    Initiative      `json:"initiative"`
	Participants  []Participant   `json:"participants"`
	Workstreams   []Workstream    `json:"workstreams"`
	Outcomes      []Outcome       `json:"outcomes"`
	Opportunities []Opportunity   `json:"opportunities"`
	Engagements   []Engagement    `json:"engagements"`
	Milestones    []Milestone     `json:"milestones"`
	Attestations  []Attestation   `json:"attestations"`
	Counts        DashboardCounts `json:"counts"`
}
