package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"precinct/internal/authz"
	"precinct/internal/database"
	"precinct/internal/metrics"
	"precinct/internal/repository"
	"precinct/internal/workflow"
)

// uniqueRetries bounds how often a transaction that generated a colliding
// number or code is retried.
const uniqueRetries = 5

// Env carries the collaborators shared by all workflow services.
type Env struct {
	DB      *sql.DB
	Checker *authz.Checker
	Rules   workflow.Rules
	Metrics *metrics.Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewEnv builds an Env whose checker reads principals from db.
func NewEnv(db *sql.DB, rules workflow.Rules, m *metrics.Metrics) Env {
	return Env{
		DB:      db,
		Checker: authz.NewChecker(repository.NewUserRepository(db)),
		Rules:   rules,
		Metrics: m,
		Now:     time.Now,
	}
}

func (e Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// store returns a store on the pool for reads outside a transaction.
func (e Env) store() *repository.Store {
	return repository.NewStore(e.DB)
}

// inTx runs fn with a store bound to a single transaction.
func (e Env) inTx(ctx context.Context, fn func(st *repository.Store) error) error {
	return database.WithTx(ctx, e.DB, func(tx *sql.Tx) error {
		return fn(repository.NewStore(tx))
	})
}

// inTxRetry is inTx, rerun from scratch when the transaction failed on a
// unique violation. Postgres aborts the transaction on the violation, so the
// whole unit of work has to start over.
func (e Env) inTxRetry(ctx context.Context, fn func(st *repository.Store) error) error {
	var err error
	for attempt := 1; attempt <= uniqueRetries; attempt++ {
		err = e.inTx(ctx, fn)
		if !database.IsUniqueViolation(err) {
			return err
		}
		slog.Debug("Retrying transaction after unique violation", "attempt", attempt, "error", err)
	}
	return err
}

// actor loads the principal of an actor that only has to be active.
func (e Env) actor(ctx context.Context, actorID uint) (*authz.Principal, error) {
	return e.Checker.RequireAnyRole(ctx, actorID)
}

// fail counts a rejected operation and passes err through.
func (e Env) fail(entity string, err error) error {
	e.Metrics.Rejection(entity, err)
	return err
}

// transitioned counts and logs a successful state change.
func (e Env) transitioned(entity string, id uint, from, to string, actorID uint) {
	e.Metrics.Transition(entity, from, to)
	slog.Info("Workflow transition",
		"entity", entity,
		"id", id,
		"from", from,
		"to", to,
		"actor_id", actorID,
	)
}
