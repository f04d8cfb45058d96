package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"groundswell/internal/domain"
)

const initiativeCols = `id,title,summary,state,created_by_individual_id,created_by_org_id,
governance_json,budget_json,payout_rules_json,metadata_json,created_at,updated_at`

func scanInitiative(scan func(dest ...any) error) (domain.Initiative, error) {
	var in domain.Initiative
	var summary, governance, budget, payout, metadata sql.NullString
	var orgID sql.NullInt64
	err := scan(&in.ID, &in.Title, &summary, &in.State, &in.CreatedByIndividualID, &orgID,
		&governance, &budget, &payout, &metadata, &in.CreatedAt, &in.UpdatedAt)
	if err == sql.ErrNoRows {
		return in, ErrNotFound
	}
	if err != nil {
		return in, err
	}
	in.Summary = strVal(summary)
	in.CreatedByOrgID = intPtr(orgID)
	if err := unmarshalBlob(governance, &in.Governance); err != nil {
		return in, err
	}
	if err := unmarshalBlob(budget, &in.Budget); err != nil {
		return in, err
	}
	if err := unmarshalBlob(payout, &in.PayoutRules); err != nil {
		return in, err
	}
	if err := unmarshalBlob(metadata, &in.Metadata); err != nil {
		return in, err
	}
	return in, nil
}

func (r Repo) InsertInitiative(ctx context.Context, in domain.Initiative) (int64, error) {
	governance, err := blob(in.Governance)
	if err != nil {
		return 0, err
	}
	budget, err := blob(in.Budget)
	if err != nil {
		return 0, err
	}
	payout, err := blob(in.PayoutRules)
	if err != nil {
		return 0, err
	}
	metadata, err := mapBlob(in.Metadata)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx, `INSERT INTO initiatives
(title,summary,state,created_by_individual_id,created_by_org_id,governance_json,budget_json,payout_rules_json,metadata_json,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		in.Title, nullable(in.Summary), string(in.State), in.CreatedByIndividualID, nullableInt(in.CreatedByOrgID),
		governance, budget, payout, metadata, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) GetInitiative(ctx context.Context, id int64) (domain.Initiative, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+initiativeCols+` FROM initiatives WHERE id=?`, id)
	return scanInitiative(row.Scan)
}

// InitiativePatch carries optional updates; nil fields keep the stored value.
type InitiativePatch struct {
	Title       *string
	Summary     *string
	State       *domain.InitiativeState
	Governance  *domain.Governance
	Budget      *domain.Budget
	PayoutRules *domain.PayoutRules
	Metadata    map[string]any
}

func (p InitiativePatch) Empty() bool {
	return p.Title == nil && p.Summary == nil && p.State == nil &&
		p.Governance == nil && p.Budget == nil && p.PayoutRules == nil && p.Metadata == nil
}

// Fields names the patched columns, for attestation payloads.
func (p InitiativePatch) Fields() []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Summary != nil {
		fields = append(fields, "summary")
	}
	if p.State != nil {
		fields = append(fields, "state")
	}
	if p.Governance != nil {
		fields = append(fields, "governance")
	}
	if p.Budget != nil {
		fields = append(fields, "budget")
	}
	if p.PayoutRules != nil {
		fields = append(fields, "payout_rules")
	}
	if p.Metadata != nil {
		fields = append(fields, "metadata")
	}
	return fields
}

func (r Repo) UpdateInitiative(ctx context.Context, id int64, patch InitiativePatch, now int64) error {
	var (
		fields []string
		args   []any
	)
	if patch.Title != nil {
		fields = append(fields, "title=?")
		args = append(args, *patch.Title)
	}
	if patch.Summary != nil {
		fields = append(fields, "summary=?")
		args = append(args, nullable(*patch.Summary))
	}
	if patch.State != nil {
		fields = append(fields, "state=?")
		args = append(args, string(*patch.State))
	}
	if patch.Governance != nil {
		v, err := blob(patch.Governance)
		if err != nil {
			return err
		}
		fields = append(fields, "governance_json=?")
		args = append(args, v)
	}
	if patch.Budget != nil {
		v, err := blob(patch.Budget)
		if err != nil {
			return err
		}
		fields = append(fields, "budget_json=?")
		args = append(args, v)
	}
	if patch.PayoutRules != nil {
		v, err := blob(patch.PayoutRules)
		if err != nil {
			return err
		}
		fields = append(fields, "payout_rules_json=?")
		args = append(args, v)
	}
	if patch.Metadata != nil {
		v, err := mapBlob(patch.Metadata)
		if err != nil {
			return err
		}
		fields = append(fields, "metadata_json=?")
		args = append(args, v)
	}
	if len(fields) == 0 {
		return nil
	}
	fields = append(fields, "updated_at=?")
	args = append(args, now, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE initiatives SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// InitiativeFilters scope the initiative list. Scope "mine" needs the caller's
// individual id plus the organizations that individual belongs to.
type InitiativeFilters struct {
	Scope        string
	IndividualID int64
	OrgIDs       []int64
}

func (r Repo) ListInitiatives(ctx context.Context, f InitiativeFilters) ([]domain.Initiative, error) {
	var clauses []string
	var args []any
	switch f.Scope {
	case "active":
		clauses = append(clauses, "state != 'closed'")
	case "mine":
		orClauses := []string{
			"created_by_individual_id=?",
			`id IN (SELECT initiative_id FROM initiative_participants WHERE participant_kind='individual' AND individual_id=? AND status != 'removed')`,
		}
		args = append(args, f.IndividualID, f.IndividualID)
		if len(f.OrgIDs) > 0 {
			placeholders := strings.TrimRight(strings.Repeat("?,", len(f.OrgIDs)), ",")
			orClauses = append(orClauses,
				`id IN (SELECT initiative_id FROM initiative_participants WHERE participant_kind='organization' AND organization_id IN (`+placeholders+`) AND status != 'removed')`)
			for _, id := range f.OrgIDs {
				args = append(args, id)
			}
		}
		clauses = append(clauses, "("+strings.Join(orClauses, " OR ")+")")
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + initiativeCols + ` FROM initiatives ` + where + ` ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Initiative
	for rows.Next() {
		in, err := scanInitiative(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, in)
	}
	return res, rows.Err()
}
