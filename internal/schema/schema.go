package schema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
)

// Provisioner creates the relational schema on first use. Ensure is safe to
// call concurrently and repeatedly; only a fully successful run is memoized,
// so a failed attempt is retried on the next call.
type Provisioner struct {
	DB     *sql.DB
	Logger *slog.Logger

	mu   sync.Mutex
	done bool
}

func New(db *sql.DB) *Provisioner {
	return &Provisioner{DB: db}
}

func (p *Provisioner) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Ensure creates every table and index used by the core if absent.
func (p *Provisioner) Ensure(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return nil
	}
	for _, stmt := range tables {
		if _, err := p.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, stmt := range indexes {
		if _, err := p.DB.ExecContext(ctx, stmt); err != nil {
			// Indexes only speed up reads; a failure must not block first use.
			p.logger().Warn("create index failed", "error", err)
		}
	}
	p.done = true
	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS individuals(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		wallet_address TEXT,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS organizations(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS organization_members(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		organization_id INTEGER NOT NULL,
		individual_id INTEGER NOT NULL,
		role TEXT,
		created_at INTEGER NOT NULL,
		UNIQUE(organization_id, individual_id)
	)`,
	`CREATE TABLE IF NOT EXISTS initiatives(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		summary TEXT,
		state TEXT NOT NULL DEFAULT 'draft',
		created_by_individual_id INTEGER NOT NULL,
		created_by_org_id INTEGER,
		governance_json TEXT,
		budget_json TEXT,
		payout_rules_json TEXT,
		metadata_json TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS initiative_participants(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		initiative_id INTEGER NOT NULL,
		participant_kind TEXT NOT NULL,
		individual_id INTEGER NOT NULL DEFAULT 0,
		organization_id INTEGER NOT NULL DEFAULT 0,
		role TEXT NOT NULL DEFAULT 'observer',
		status TEXT NOT NULL DEFAULT 'invited',
		invited_by_individual_id INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE(initiative_id, participant_kind, individual_id, organization_id)
	)`,
	`CREATE TABLE IF NOT EXISTS initiative_workstreams(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		initiative_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS initiative_outcomes(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		initiative_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		metric_json TEXT,
		status TEXT NOT NULL DEFAULT 'defined',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS opportunities(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		initiative_id INTEGER NOT NULL,
		workstream_id INTEGER,
		title TEXT NOT NULL,
		description TEXT,
		required_skills_json TEXT,
		budget_json TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		created_by_individual_id INTEGER,
		created_by_org_id INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS engagements(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		initiative_id INTEGER NOT NULL,
		opportunity_id INTEGER NOT NULL,
		requesting_organization_id INTEGER,
		contributor_individual_id INTEGER,
		contributor_agent_row_id INTEGER,
		terms_json TEXT,
		status TEXT NOT NULL DEFAULT 'proposed',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS milestones(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		engagement_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		due_at INTEGER,
		status TEXT NOT NULL DEFAULT 'pending',
		evidence_json TEXT,
		payout_json TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS attestations(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		attestation_type TEXT NOT NULL,
		payload_json TEXT,
		initiative_id INTEGER,
		opportunity_id INTEGER,
		engagement_id INTEGER,
		milestone_id INTEGER,
		actor_individual_id INTEGER,
		actor_org_id INTEGER,
		chain_id INTEGER,
		tx_hash TEXT,
		eas_uid TEXT,
		created_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS capabilities(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL UNIQUE,
		label TEXT NOT NULL,
		description TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_individuals_wallet ON individuals(wallet_address)`,
	`CREATE INDEX IF NOT EXISTS idx_org_members_individual ON organization_members(individual_id)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_initiative ON initiative_participants(initiative_id)`,
	`CREATE INDEX IF NOT EXISTS idx_workstreams_initiative ON initiative_workstreams(initiative_id)`,
	`CREATE INDEX IF NOT EXISTS idx_outcomes_initiative ON initiative_outcomes(initiative_id)`,
	`CREATE INDEX IF NOT EXISTS idx_opportunities_initiative ON opportunities(initiative_id)`,
	`CREATE INDEX IF NOT EXISTS idx_engagements_initiative ON engagements(initiative_id)`,
	`CREATE INDEX IF NOT EXISTS idx_engagements_opportunity ON engagements(opportunity_id)`,
	`CREATE INDEX IF NOT EXISTS idx_milestones_engagement ON milestones(engagement_id)`,
	`CREATE INDEX IF NOT EXISTS idx_attestations_initiative ON attestations(initiative_id)`,
	`CREATE INDEX IF NOT EXISTS idx_attestations_created ON attestations(created_at)`,
}
