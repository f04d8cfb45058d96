package engine

import (
	"context"

	"groundswell/internal/domain"
	"groundswell/internal/ledger"
)

// ListAttestations returns the bounded audit feed, newest first.
func (e Engine) ListAttestations(ctx context.Context, initiativeID *int64, limit int) ([]domain.Attestation, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = e.Config.Ledger.FeedLimit
	}
	return e.Ledger.List(ctx, ledger.Filter{InitiativeID: initiativeID}, limit)
}

// ChainAttestationOptions carry an externally anchored attestation, e.g. one
// mirrored from an on-chain attestation service.
type ChainAttestationOptions struct {
	Type          string
	Payload       map[string]any
	InitiativeID  *int64
	OpportunityID *int64
	EngagementID  *int64
	MilestoneID   *int64
	ChainID       *int64
	TxHash        string
	EASUID        string
}

// RecordChainAttestation appends an attestation carrying external-chain
// metadata. The ledger's own rule applies: only the type is required.
func (e Engine) RecordChainAttestation(ctx context.Context, opts ChainAttestationOptions, act Actor) (int64, error) {
	if err := e.ensureSchema(ctx); err != nil {
		return 0, err
	}
	act, err := e.resolveActor(ctx, act)
	if err != nil {
		return 0, err
	}
	if opts.Type == "" {
		return 0, ValidationError{Field: "attestation_type", Msg: "type is required"}
	}
	return e.Ledger.Emit(ctx, ledger.Event{
		Type:              opts.Type,
		Payload:           opts.Payload,
		InitiativeID:      opts.InitiativeID,
		OpportunityID:     opts.OpportunityID,
		EngagementID:      opts.EngagementID,
		MilestoneID:       opts.MilestoneID,
		ActorIndividualID: act.individualPtr(),
		ActorOrgID:        act.OrgID,
		ChainID:           opts.ChainID,
		TxHash:            opts.TxHash,
		EASUID:            opts.EASUID,
	})
}
