package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgx execution methods repositories need. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so the same repository code runs inside
// and outside a transaction.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store bundles the repositories over a shared execution handle and provides
// transaction scoping for multi-statement workflows.
type Store interface {
	Tickets() TicketRepository
	History() TicketHistoryRepository
	References() ReferenceRepository
	// InTx runs fn against a transaction-backed Store. The transaction commits
	// when fn returns nil and rolls back otherwise. Calling InTx on an already
	// transactional Store reuses the open transaction.
	InTx(ctx context.Context, fn func(Store) error) error
}

type pgStore struct {
	db   DB
	pool *pgxpool.Pool
}

// NewStore builds a Postgres-backed Store over the given pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{db: pool, pool: pool}
}

func (s *pgStore) Tickets() TicketRepository {
	return &ticketRepository{db: s.db}
}

func (s *pgStore) History() TicketHistoryRepository {
	return &ticketHistoryRepository{db: s.db}
}

func (s *pgStore) References() ReferenceRepository {
	return &referenceRepository{db: s.db}
}

func (s *pgStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	txStore := &pgStore{db: tx}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
