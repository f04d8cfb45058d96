package repo

import (
	"context"
	"database/sql"

	"groundswell/internal/domain"
)

func (r Repo) UpsertCapability(ctx context.Context, c domain.Capability) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO capabilities(key,label,description,created_at,updated_at) VALUES (?,?,?,?,?)
ON CONFLICT(key) DO UPDATE SET label=excluded.label, description=excluded.description, updated_at=excluded.updated_at`,
		c.Key, c.Label, nullable(c.Description), c.CreatedAt, c.UpdatedAt)
	return err
}

func (r Repo) GetCapability(ctx context.Context, key string) (domain.Capability, error) {
	var c domain.Capability
	var desc sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,key,label,description,created_at,updated_at FROM capabilities WHERE key=?`, key).
		Scan(&c.ID, &c.Key, &c.Label, &desc, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	c.Description = strVal(desc)
	return c, err
}

func (r Repo) DeleteCapability(ctx context.Context, key string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM capabilities WHERE key=?`, key)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) ListCapabilities(ctx context.Context) ([]domain.Capability, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,key,label,description,created_at,updated_at FROM capabilities ORDER BY key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Capability
	for rows.Next() {
		var c domain.Capability
		var desc sql.NullString
		if err := rows.Scan(&c.ID, &c.Key, &c.Label, &desc, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.Description = strVal(desc)
		res = append(res, c)
	}
	return res, rows.Err()
}
