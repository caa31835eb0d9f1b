// Package dbconn owns the pgx pool and the Querier abstraction every other
// package depends on, grounded on internal/store/postgres.go.
package dbconn

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"graphfetch/internal/config"
)

var ErrNotFound = errors.New("not found")

// Querier is implemented by *Pool and *Tx, letting every compiler-adjacent
// package (internal/fnstore, internal/fetch) run uniformly against a pool
// or an open transaction without knowing which it has. Rows/Row sit next to
// the bare pgx methods so callers doing plain map[string]any work never
// need to touch pgx.Rows.Values directly.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Rows executes a query and decodes every column of every row through
	// NormalizeValue.
	Rows(ctx context.Context, sql string, args ...any) ([]map[string]any, error)
	// Row is Rows narrowed to exactly one result, ErrNotFound on zero rows.
	Row(ctx context.Context, sql string, args ...any) (map[string]any, error)
}

// TxAware is satisfied by a Querier when it is a transaction rather than a
// bare pool. The executor (internal/fetch) and the stored-function cache
// (internal/fnstore) use this to decide whether CREATE FUNCTION is safe to
// issue.
type TxAware interface {
	IsTx() bool
}

// Pool wraps *pgxpool.Pool and satisfies TxAware as "not a transaction".
type Pool struct {
	*pgxpool.Pool
}

func (p *Pool) IsTx() bool { return false }

func (p *Pool) Rows(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	return rowsOf(ctx, p.Pool, sql, args...)
}

func (p *Pool) Row(ctx context.Context, sql string, args ...any) (map[string]any, error) {
	return rowOf(ctx, p.Pool, sql, args...)
}

// Tx wraps pgx.Tx and satisfies TxAware as "is a transaction".
type Tx struct {
	pgx.Tx
}

func (t *Tx) IsTx() bool { return true }

func (t *Tx) Rows(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	return rowsOf(ctx, t.Tx, sql, args...)
}

func (t *Tx) Row(ctx context.Context, sql string, args ...any) (map[string]any, error) {
	return rowOf(ctx, t.Tx, sql, args...)
}

func New(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolCfg.MaxConns = int32(cfg.PoolSize)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Pool{pool}, nil
}

func (p *Pool) Close() {
	p.Pool.Close()
}

// BeginTx starts a transaction wrapped so it also satisfies TxAware.
func (p *Pool) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{tx}, nil
}

// pgxQuerier is the bare pgx-level capability Pool and Tx each get for free
// from their embedded *pgxpool.Pool / pgx.Tx; rowsOf/rowOf are written
// against it once and promoted to Querier.Rows/Row on both wrapper types.
//
// rowsOf runs three kinds of statement in this module: the set-returning
// stored functions in internal/fnstore (whose sole output column pgx
// already decodes into map[string]any/[]any/float64/etc, since it is
// declared JSON and row_to_json/json_agg did the encoding server-side), the
// raw compiled query internal/fnstore falls back to inside an outer
// transaction, and the plain primary-key existence/lookup queries in
// internal/fetch's SetRelation/RemoveRelation path. The last two return
// real column values as pgx driver types; NormalizeValue only has work to
// do on those, and an already-decoded JSON value passes through its
// default case unchanged.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func rowsOf(ctx context.Context, q pgxQuerier, sql string, args ...any) ([]map[string]any, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	var results []map[string]any

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan values: %w", err)
		}
		row := make(map[string]any, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[fd.Name] = NormalizeValue(values[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return results, nil
}

// pgxQuerier's results above feed straight back into the rest of this
// module as if they were already decoded JSON, so rowOf's "no rows" case
// maps to ErrNotFound rather than a bare empty slice — internal/fetch's
// mustExist (SetRelation's referenced-row check) depends on that to detect
// a dangling id without a second round trip.
func rowOf(ctx context.Context, q pgxQuerier, sql string, args ...any) (map[string]any, error) {
	rows, err := rowsOf(ctx, q, sql, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// formatUUIDBytes renders 16 raw UUID bytes in canonical 8-4-4-4-12 form.
// pgx surfaces a column's UUID two different ways depending on whether the
// driver could resolve the column's declared type ([16]byte when it
// couldn't, pgtype.UUID when it could), so NormalizeValue needs both cases
// below, but they share this one formatting rule.
func formatUUIDBytes(b [16]byte) string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

// NormalizeValue converts pgx-specific driver types to the plain Go values
// the rest of this module already assumes for everything it reads back
// from row_to_json/json_agg. Raw (non-JSON) pgx values reach Go code in
// two places: the existence checks in internal/fetch's
// SetRelation/RemoveRelation, and the own columns of the root rows returned
// by internal/fnstore's in-transaction raw-query fallback. The cases below
// cover numeric columns and the two shapes pgx returns a uuid in; every
// other value (integers, text, booleans, timestamps, decoded JSON) is
// returned unchanged.
func NormalizeValue(v any) any {
	if v == nil {
		return nil
	}
	switch val := v.(type) {
	case [16]byte:
		return formatUUIDBytes(val)
	case pgtype.UUID:
		if !val.Valid {
			return nil
		}
		return formatUUIDBytes(val.Bytes)
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err == nil && f.Valid {
			return f.Float64
		}
		return 0
	default:
		return v
	}
}
