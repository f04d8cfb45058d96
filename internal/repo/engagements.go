package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"groundswell/internal/domain"
)

const engagementCols = `id,initiative_id,opportunity_id,requesting_organization_id,contributor_individual_id,
contributor_agent_row_id,terms_json,status,created_at,updated_at`

func scanEngagement(scan func(dest ...any) error) (domain.Engagement, error) {
	var e domain.Engagement
	var reqOrg, contribInd, contribAgent sql.NullInt64
	var terms sql.NullString
	err := scan(&e.ID, &e.InitiativeID, &e.OpportunityID, &reqOrg, &contribInd, &contribAgent,
		&terms, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}
	e.RequestingOrgID = intPtr(reqOrg)
	e.ContributorIndividualID = intPtr(contribInd)
	e.ContributorAgentRowID = intPtr(contribAgent)
	if err := unmarshalBlob(terms, &e.Terms); err != nil {
		return e, err
	}
	return e, nil
}

func (r Repo) InsertEngagement(ctx context.Context, e domain.Engagement) (int64, error) {
	terms, err := blob(e.Terms)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx, `INSERT INTO engagements
(initiative_id,opportunity_id,requesting_organization_id,contributor_individual_id,contributor_agent_row_id,terms_json,status,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?)`,
		e.InitiativeID, e.OpportunityID, nullableInt(e.RequestingOrgID), nullableInt(e.ContributorIndividualID),
		nullableInt(e.ContributorAgentRowID), terms, string(e.Status), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) GetEngagement(ctx context.Context, id int64) (domain.Engagement, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+engagementCols+` FROM engagements WHERE id=?`, id)
	return scanEngagement(row.Scan)
}

// EngagementPatch updates status and/or terms; nil fields keep stored values.
type EngagementPatch struct {
	Status *domain.EngagementStatus
	Terms  *domain.Terms
}

func (r Repo) UpdateEngagement(ctx context.Context, id int64, patch EngagementPatch, now int64) error {
	var fields []string
	var args []any
	if patch.Status != nil {
		fields = append(fields, "status=?")
		args = append(args, string(*patch.Status))
	}
	if patch.Terms != nil {
		v, err := blob(patch.Terms)
		if err != nil {
			return err
		}
		fields = append(fields, "terms_json=?")
		args = append(args, v)
	}
	if len(fields) == 0 {
		return nil
	}
	fields = append(fields, "updated_at=?")
	args = append(args, now, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE engagements SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEngagements returns the newest engagements for an initiative joined
// with opportunity and identity display fields.
func (r Repo) ListEngagements(ctx context.Context, initiativeID int64, limit int) ([]domain.Engagement, error) {
	query := `SELECT e.id,e.initiative_id,e.opportunity_id,e.requesting_organization_id,e.contributor_individual_id,
e.contributor_agent_row_id,e.terms_json,e.status,e.created_at,e.updated_at,
COALESCE(op.title,'') AS opportunity_title,
COALESCE(i.name,'') AS contributor_name,
COALESCE(o.name,'') AS requesting_org_name
FROM engagements e
LEFT JOIN opportunities op ON op.id=e.opportunity_id
LEFT JOIN individuals i ON i.id=e.contributor_individual_id
LEFT JOIN organizations o ON o.id=e.requesting_organization_id
WHERE e.initiative_id=? ORDER BY e.created_at DESC, e.id DESC`
	args := []any{initiativeID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Engagement
	for rows.Next() {
		var e domain.Engagement
		var reqOrg, contribInd, contribAgent sql.NullInt64
		var terms sql.NullString
		if err := rows.Scan(&e.ID, &e.InitiativeID, &e.OpportunityID, &reqOrg, &contribInd, &contribAgent,
			&terms, &e.Status, &e.CreatedAt, &e.UpdatedAt,
			&e.OpportunityTitle, &e.ContributorName, &e.RequestingOrgName); err != nil {
			return nil, err
		}
		e.RequestingOrgID = intPtr(reqOrg)
		e.ContributorIndividualID = intPtr(contribInd)
		e.ContributorAgentRowID = intPtr(contribAgent)
		if err := unmarshalBlob(terms, &e.Terms); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
