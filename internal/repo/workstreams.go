package repo

import (
	"context"
	"database/sql"

	"groundswell/internal/domain"
)

func (r Repo) InsertWorkstream(ctx context.Context, w domain.Workstream) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO initiative_workstreams
(initiative_id,title,description,status,sort_order,created_at,updated_at) VALUES (?,?,?,?,?,?,?)`,
		w.InitiativeID, w.Title, nullable(w.Description), w.Status, w.SortOrder, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) ListWorkstreams(ctx context.Context, initiativeID int64) ([]domain.Workstream, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,initiative_id,title,description,status,sort_order,created_at,updated_at
FROM initiative_workstreams WHERE initiative_id=? ORDER BY sort_order ASC, id ASC`, initiativeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Workstream
	for rows.Next() {
		var w domain.Workstream
		var desc sql.NullString
		if err := rows.Scan(&w.ID, &w.InitiativeID, &w.Title, &desc, &w.Status, &w.SortOrder, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		w.Description = strVal(desc)
		res = append(res, w)
	}
	return res, rows.Err()
}

func (r Repo) InsertOutcome(ctx context.Context, o domain.Outcome) (int64, error) {
	metric, err := blob(o.Metric)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx, `INSERT INTO initiative_outcomes
(initiative_id,title,metric_json,status,created_at,updated_at) VALUES (?,?,?,?,?,?)`,
		o.InitiativeID, o.Title, metric, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) ListOutcomes(ctx context.Context, initiativeID int64) ([]domain.Outcome, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,initiative_id,title,metric_json,status,created_at,updated_at
FROM initiative_outcomes WHERE initiative_id=? ORDER BY id ASC`, initiativeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Outcome
	for rows.Next() {
		var o domain.Outcome
		var metric sql.NullString
		if err := rows.Scan(&o.ID, &o.InitiativeID, &o.Title, &metric, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalBlob(metric, &o.Metric); err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}
