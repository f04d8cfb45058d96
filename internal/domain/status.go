package domain

// Status and state values are stored as plain strings. Each known set gets a
// defined type with a Known check; values outside the set are carried through
// untouched so rows written by older or newer deployments keep reading back.

type InitiativeState string

const (
	InitiativeDraft      InitiativeState = "draft"
	InitiativeChartered  InitiativeState = "chartered"
	InitiativeFunded     InitiativeState = "funded"
	InitiativeExecuting  InitiativeState = "executing"
	InitiativeEvaluating InitiativeState = "evaluating"
	InitiativeClosed     InitiativeState = "closed"
)

func (s InitiativeState) Known() bool {
	switch s {
	case InitiativeDraft, InitiativeChartered, InitiativeFunded,
		InitiativeExecuting, InitiativeEvaluating, InitiativeClosed:
		return true
	}
	return false
}

type ParticipantKind string

const (
	KindIndividual   ParticipantKind = "individual"
	KindOrganization ParticipantKind = "organization"
)

func (k ParticipantKind) Known() bool {
	return k == KindIndividual || k == KindOrganization
}

type ParticipantStatus string

const (
	ParticipantInvited ParticipantStatus = "invited"
	ParticipantActive  ParticipantStatus = "active"
	ParticipantRemoved ParticipantStatus = "removed"
)

func (s ParticipantStatus) Known() bool {
	switch s {
	case ParticipantInvited, ParticipantActive, ParticipantRemoved:
		return true
	}
	return false
}

type OpportunityStatus string

const (
	OpportunityDraft  OpportunityStatus = "draft"
	OpportunityOpen   OpportunityStatus = "open"
	OpportunityFilled OpportunityStatus = "filled"
	OpportunityClosed OpportunityStatus = "closed"
)

func (s OpportunityStatus) Known() bool {
	switch s {
	case OpportunityDraft, OpportunityOpen, OpportunityFilled, OpportunityClosed:
		return true
	}
	return false
}

type EngagementStatus string

const (
	EngagementProposed   EngagementStatus = "proposed"
	EngagementActive     EngagementStatus = "active"
	EngagementCompleted  EngagementStatus = "completed"
	EngagementTerminated EngagementStatus = "terminated"
)

func (s EngagementStatus) Known() bool {
	switch s {
	case EngagementProposed, EngagementActive, EngagementCompleted, EngagementTerminated:
		return true
	}
	return false
}

type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "pending"
	MilestoneSubmitted MilestoneStatus = "submitted"
	MilestoneVerified  MilestoneStatus = "verified"
	MilestoneRejected  MilestoneStatus = "rejected"
)

func (s MilestoneStatus) Known() bool {
	switch s {
	case MilestonePending, MilestoneSubmitted, MilestoneVerified, MilestoneRejected:
		return true
	}
	return false
}
