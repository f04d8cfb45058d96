package repo

import (
	"context"
	"database/sql"
	"strings"

	"groundswell/internal/domain"
)

// Identity rows are owned by an external module; the core reads keys and
// display fields and inserts rows only to seed local workspaces.

func (r Repo) InsertIndividual(ctx context.Context, ind domain.Individual) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO individuals(name,wallet_address,created_at) VALUES (?,?,?)`,
		ind.Name, nullable(strings.ToLower(ind.WalletAddress)), ind.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) GetIndividual(ctx context.Context, id int64) (domain.Individual, error) {
	var ind domain.Individual
	var wallet sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,wallet_address,created_at FROM individuals WHERE id=?`, id).
		Scan(&ind.ID, &ind.Name, &wallet, &ind.CreatedAt)
	if err == sql.ErrNoRows {
		return ind, ErrNotFound
	}
	ind.WalletAddress = strVal(wallet)
	return ind, err
}

// IndividualIDByAddress matches a stored wallet address case-insensitively.
func (r Repo) IndividualIDByAddress(ctx context.Context, address string) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx,
		`SELECT id FROM individuals WHERE LOWER(wallet_address)=? LIMIT 1`,
		strings.ToLower(address)).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return id, err
}

func (r Repo) InsertOrganization(ctx context.Context, org domain.Organization) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO organizations(name,created_at) VALUES (?,?)`,
		org.Name, org.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r Repo) GetOrganization(ctx context.Context, id int64) (domain.Organization, error) {
	var org domain.Organization
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,created_at FROM organizations WHERE id=?`, id).
		Scan(&org.ID, &org.Name, &org.CreatedAt)
	if err == sql.ErrNoRows {
		return org, ErrNotFound
	}
	return org, err
}

func (r Repo) AddOrganizationMember(ctx context.Context, orgID, individualID int64, role string, now int64) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT OR IGNORE INTO organization_members(organization_id,individual_id,role,created_at) VALUES (?,?,?,?)`,
		orgID, individualID, nullable(role), now)
	return err
}

func (r Repo) OrganizationIDsForIndividual(ctx context.Context, individualID int64) ([]int64, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT organization_id FROM organization_members WHERE individual_id=?`, individualID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r Repo) ListIndividuals(ctx context.Context) ([]domain.Individual, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,wallet_address,created_at FROM individuals ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Individual
	for rows.Next() {
		var ind domain.Individual
		var wallet sql.NullString
		if err := rows.Scan(&ind.ID, &ind.Name, &wallet, &ind.CreatedAt); err != nil {
			return nil, err
		}
		ind.WalletAddress = strVal(wallet)
		res = append(res, ind)
	}
	return res, rows.Err()
}

func (r Repo) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,name,created_at FROM organizations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Organization
	for rows.Next() {
		var org domain.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, org)
	}
	return res, rows.Err()
}
