// Package ledger appends immutable attestation records. Rows are never
// updated or deleted once emitted; the only reads are bounded audit feeds.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"groundswell/internal/domain"
)

// DefaultFeedLimit bounds List windows; it is both the default and the max.
const DefaultFeedLimit = 200

type Ledger struct {
	DB  *sql.DB
	Now func() time.Time
}

// Event describes one mutation to record. Type is the only required field;
// callers attach whichever foreign references and actor attribution apply.
type Event struct {
	Type              string
	Payload           map[string]any
	InitiativeID      *int64
	OpportunityID     *int64
	EngagementID      *int64
	MilestoneID       *int64
	ActorIndividualID *int64
	ActorOrgID        *int64
	ChainID           *int64
	TxHash            string
	EASUID            string
}

func (l Ledger) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Emit inserts one attestation row. No validation beyond a non-empty type;
// correctness of the references is the caller's business.
func (l Ledger) Emit(ctx context.Context, ev Event) (int64, error) {
	if ev.Type == "" {
		return 0, errors.New("attestation type required")
	}
	var payload any
	if len(ev.Payload) > 0 {
		b, err := json.Marshal(ev.Payload)
		if err != nil {
			return 0, fmt.Errorf("marshal attestation payload: %w", err)
		}
		payload = string(b)
	}
	res, err := l.DB.ExecContext(ctx, `INSERT INTO attestations
(attestation_type,payload_json,initiative_id,opportunity_id,engagement_id,milestone_id,actor_individual_id,actor_org_id,chain_id,tx_hash,eas_uid,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		ev.Type, payload, opt(ev.InitiativeID), opt(ev.OpportunityID), opt(ev.EngagementID), opt(ev.MilestoneID),
		opt(ev.ActorIndividualID), opt(ev.ActorOrgID), opt(ev.ChainID), optStr(ev.TxHash), optStr(ev.EASUID),
		l.now().Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Filter narrows the audit feed.
type Filter struct {
	InitiativeID *int64
}

// List returns attestations newest first, bounded by limit (default and max
// DefaultFeedLimit). Callers needing completeness paginate elsewhere; this is
// a display feed.
func (l Ledger) List(ctx context.Context, f Filter, limit int) ([]domain.Attestation, error) {
	if limit <= 0 || limit > DefaultFeedLimit {
		limit = DefaultFeedLimit
	}
	query := `SELECT id,attestation_type,payload_json,initiative_id,opportunity_id,engagement_id,milestone_id,
actor_individual_id,actor_org_id,chain_id,tx_hash,eas_uid,created_at FROM attestations`
	var args []any
	if f.InitiativeID != nil {
		query += ` WHERE initiative_id=?`
		args = append(args, *f.InitiativeID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := l.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Attestation
	for rows.Next() {
		var a domain.Attestation
		var payload, txHash, easUID sql.NullString
		var initiativeID, opportunityID, engagementID, milestoneID, actorInd, actorOrg, chainID sql.NullInt64
		if err := rows.Scan(&a.ID, &a.Type, &payload, &initiativeID, &opportunityID, &engagementID, &milestoneID,
			&actorInd, &actorOrg, &chainID, &txHash, &easUID, &a.CreatedAt); err != nil {
			return nil, err
		}
		if payload.Valid && payload.String != "" {
			if err := json.Unmarshal([]byte(payload.String), &a.Payload); err != nil {
				return nil, fmt.Errorf("attestation %d payload: %w", a.ID, err)
			}
		}
		a.InitiativeID = ptr(initiativeID)
		a.OpportunityID = ptr(opportunityID)
		a.EngagementID = ptr(engagementID)
		a.MilestoneID = ptr(milestoneID)
		a.ActorIndividualID = ptr(actorInd)
		a.ActorOrgID = ptr(actorOrg)
		a.ChainID = ptr(chainID)
		if txHash.Valid {
			a.TxHash = txHash.String
		}
		if easUID.Valid {
			a.EASUID = easUID.String
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func opt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func optStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
