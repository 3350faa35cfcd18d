package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store provides access to media and watch progress rows.
type Store struct {
	db *sql.DB

	capsMu sync.Mutex
	caps   *Capabilities
}

// NewStore creates a new catalog store on an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Begin starts a transaction. Capabilities are probed before the
// transaction takes its connection.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	caps, err := s.Capabilities(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx, caps: caps}, nil
}

// Tx wraps a database transaction with the same methods as Store.
type Tx struct {
	tx   *sql.Tx
	caps Capabilities
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}
