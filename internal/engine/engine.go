package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"groundswell/internal/actor"
	"groundswell/internal/config"
	"groundswell/internal/ledger"
	"groundswell/internal/repo"
	"groundswell/internal/schema"
)

// Engine owns the initiative lifecycle: every public mutation resolves its
// actor, performs the relational change, then records an attestation. The
// schema is provisioned lazily before any statement runs.
type Engine struct {
	DB       *sql.DB
	Repo     repo.Repo
	Ledger   ledger.Ledger
	Resolver actor.Resolver
	Schema   *schema.Provisioner
	Config   *config.Config
	Now      func() time.Time
	Logger   *slog.Logger
}

func New(db *sql.DB, cfg *config.Config) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	r := repo.Repo{DB: db}
	return Engine{
		DB:       db,
		Repo:     r,
		Ledger:   ledger.Ledger{DB: db},
		Resolver: actor.Resolver{Repo: r},
		Schema:   schema.New(db),
		Config:   cfg,
		Now:      time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e Engine) ensureSchema(ctx context.Context) error {
	if e.Schema == nil {
		return fmt.Errorf("schema provisioner not configured")
	}
	return e.Schema.Ensure(ctx)
}

// ValidationError marks a missing or malformed required field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// NotFoundError marks an absent parent entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Actor identifies the acting party. Either IndividualID is supplied directly
// or Address is resolved through the resolver; OrgID is optional attribution.
type Actor struct {
	IndividualID int64
	OrgID        *int64
	Address      string
}

// resolve fills IndividualID from Address when only an address was given.
// Unknown or malformed addresses resolve to nothing; the caller's own
// validation decides whether a missing actor is fatal.
func (e Engine) resolveActor(ctx context.Context, a Actor) (Actor, error) {
	if a.IndividualID > 0 || a.Address == "" {
		return a, nil
	}
	id, ok, err := e.Resolver.IndividualIDByAddress(ctx, a.Address)
	if err != nil {
		return a, err
	}
	if ok {
		a.IndividualID = id
	}
	return a, nil
}

func (a Actor) individualPtr() *int64 {
	if a.IndividualID <= 0 {
		return nil
	}
	id := a.IndividualID
	return &id
}

func (e Engine) requireActor(ctx context.Context, a Actor) (Actor, error) {
	resolved, err := e.resolveActor(ctx, a)
	if err != nil {
		return resolved, err
	}
	if resolved.IndividualID <= 0 {
		return resolved, ValidationError{Field: "actor", Msg: "acting individual id required"}
	}
	return resolved, nil
}
