package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"groundswell/internal/domain"
)

const milestoneCols = `id,engagement_id,title,due_at,status,evidence_json,payout_json,created_at,updated_at`

func scanMilestone(scan func(dest ...any) error) (domain.Milestone, error) {
	var m domain.Milestone
	var dueAt sql.NullInt64
	var evidence, payout sql.NullString
	err := scan(&m.ID, &m.EngagementID, &m.Title, &dueAt, &m.Status, &evidence, &payout, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	if err != nil {
		return m, err
	}
	m.DueAt = intPtr(dueAt)
	if err := unmarshalBlob(evidence, &m.Evidence); err != nil {
		return m, err
	}
	if err := unmarshalBlob(payout, &m.Payout); err != nil {
		return m, err
	}
	return m, nil
}

func (r Repo) InsertMilestone(ctx context.Context, m domain.Milestone) (int64, error) {
	evidence, err := blob(m.Evidence)
	if err != nil {
		return 0, err
	}
	payout, err := blob(m.Payout)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx, `INSERT INTO milestones
(engagement_id,title,due_at,status,evidence_json,payout_json,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?)`,
		m.EngagementID, m.Title, nullableInt(m.DueAt), string(m.Status), evidence, payout, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) GetMilestone(ctx context.Context, id int64) (domain.Milestone, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+milestoneCols+` FROM milestones WHERE id=?`, id)
	return scanMilestone(row.Scan)
}

// MilestonePatch updates status, evidence and/or payout; nil fields keep
// stored values.
type MilestonePatch struct {
	Status   *domain.MilestoneStatus
	Evidence *domain.Evidence
	Payout   *domain.Payout
	DueAt    *int64
}

func (r Repo) UpdateMilestone(ctx context.Context, id int64, patch MilestonePatch, now int64) error {
	var fields []string
	var args []any
	if patch.Status != nil {
		fields = append(fields, "status=?")
		args = append(args, string(*patch.Status))
	}
	if patch.Evidence != nil {
		v, err := blob(patch.Evidence)
		if err != nil {
			return err
		}
		fields = append(fields, "evidence_json=?")
		args = append(args, v)
	}
	if patch.Payout != nil {
		v, err := blob(patch.Payout)
		if err != nil {
			return err
		}
		fields = append(fields, "payout_json=?")
		args = append(args, v)
	}
	if patch.DueAt != nil {
		fields = append(fields, "due_at=?")
		args = append(args, *patch.DueAt)
	}
	if len(fields) == 0 {
		return nil
	}
	fields = append(fields, "updated_at=?")
	args = append(args, now, id)
	res, err := r.DB.ExecContext(ctx, fmt.Sprintf(`UPDATE milestones SET %s WHERE id=?`, strings.Join(fields, ",")), args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListMilestonesByEngagement(ctx context.Context, engagementID int64) ([]domain.Milestone, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+milestoneCols+` FROM milestones WHERE engagement_id=?
ORDER BY CASE WHEN due_at IS NULL THEN 1 ELSE 0 END, due_at ASC, id ASC`, engagementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectMilestones(rows)
}

// ListMilestonesByInitiative reaches milestones through their engagement,
// ordered by due date ascending with nulls last.
func (r Repo) ListMilestonesByInitiative(ctx context.Context, initiativeID int64, limit int) ([]domain.Milestone, error) {
	query := `SELECT m.id,m.engagement_id,m.title,m.due_at,m.status,m.evidence_json,m.payout_json,m.created_at,m.updated_at
FROM milestones m JOIN engagements e ON e.id=m.engagement_id
WHERE e.initiative_id=?
ORDER BY CASE WHEN m.due_at IS NULL THEN 1 ELSE 0 END, m.due_at ASC, m.id ASC`
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
	return collectMilestones(rows)
}

func collectMilestones(rows *sql.Rows) ([]domain.Milestone, error) {
	var res []domain.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}
