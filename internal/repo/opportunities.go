package repo

import (
	"context"
	"database/sql"

	"groundswell/internal/domain"
)

const opportunityCols = `id,initiative_id,workstream_id,title,description,required_skills_json,budget_json,status,
created_by_individual_id,created_by_org_id,created_at,updated_at`

func scanOpportunity(scan func(dest ...any) error) (domain.Opportunity, error) {
	var o domain.Opportunity
	var workstreamID, createdByInd, createdByOrg sql.NullInt64
	var desc, skills, budget sql.NullString
	err := scan(&o.ID, &o.InitiativeID, &workstreamID, &o.Title, &desc, &skills, &budget, &o.Status,
		&createdByInd, &createdByOrg, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return o, ErrNotFound
	}
	if err != nil {
		return o, err
	}
	o.WorkstreamID = intPtr(workstreamID)
	o.Description = strVal(desc)
	o.CreatedByIndividualID = intPtr(createdByInd)
	o.CreatedByOrgID = intPtr(createdByOrg)
	if err := unmarshalBlob(skills, &o.RequiredSkills); err != nil {
		return o, err
	}
	if err := unmarshalBlob(budget, &o.Budget); err != nil {
		return o, err
	}
	return o, nil
}

func (r Repo) InsertOpportunity(ctx context.Context, o domain.Opportunity) (int64, error) {
	skills, err := sliceBlob(o.RequiredSkills)
	if err != nil {
		return 0, err
	}
	budget, err := blob(o.Budget)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx, `INSERT INTO opportunities
(initiative_id,workstream_id,title,description,required_skills_json,budget_json,status,created_by_individual_id,created_by_org_id,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		o.InitiativeID, nullableInt(o.WorkstreamID), o.Title, nullable(o.Description), skills, budget,
		string(o.Status), nullableInt(o.CreatedByIndividualID), nullableInt(o.CreatedByOrgID), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) GetOpportunity(ctx context.Context, id int64) (domain.Opportunity, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+opportunityCols+` FROM opportunities WHERE id=?`, id)
	return scanOpportunity(row.Scan)
}

func (r Repo) UpdateOpportunityStatus(ctx context.Context, id int64, status domain.OpportunityStatus, now int64) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE opportunities SET status=?, updated_at=? WHERE id=?`,
		string(status), now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListOpportunities(ctx context.Context, initiativeID int64, limit int) ([]domain.Opportunity, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunities WHERE initiative_id=? ORDER BY created_at DESC, id DESC`
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
	var res []domain.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}
