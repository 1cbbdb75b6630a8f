package db

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinic/exams/internal/platform/apperr"
)

// Row is one fetched record keyed by column name.
type Row = map[string]interface{}

// Querier is the statement surface repositories run against.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// BatchQuerier adds all-or-nothing bulk writes to Querier.
type BatchQuerier interface {
	Querier
	ExecMany(ctx context.Context, sql string, rows [][]interface{}) error
}

// RetryPolicy controls how often a statement that failed before reaching
// the server is attempted again.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

type Options struct {
	MaxConns int32
	Retry    RetryPolicy
	Logger   zerolog.Logger
}

// Gateway owns the store handle for the lifetime of the process. It is
// opened with Connect at startup and released with Close at shutdown;
// statements issued while it is closed fail with a connectivity error.
type Gateway struct {
	dsn      string
	maxConns int32
	retry    RetryPolicy
	log      zerolog.Logger

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

func NewGateway(dsn string, opts Options) *Gateway {
	if opts.MaxConns < 1 {
		opts.MaxConns = 1
	}
	return &Gateway{
		dsn:      dsn,
		maxConns: opts.MaxConns,
		retry:    opts.Retry,
		log:      opts.Logger.With().Str("component", "gateway").Logger(),
	}
}

// Connect opens the handle, replacing any previous one.
func (g *Gateway) Connect(ctx context.Context) error {
	pool, err := NewPool(ctx, g.dsn, g.maxConns)
	if err != nil {
		g.log.Error().Err(err).Msg("connect failed")
		return Classify("connect", err)
	}

	g.mu.Lock()
	old := g.pool
	g.pool = pool
	g.mu.Unlock()

	if old != nil {
		old.Close()
	}
	g.log.Info().Int32("max_conns", g.maxConns).Msg("connected to database")
	return nil
}

func (g *Gateway) Close() {
	g.mu.Lock()
	pool := g.pool
	g.pool = nil
	g.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
}

func (g *Gateway) Connected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pool != nil
}

// Pool exposes the underlying handle, nil while closed.
func (g *Gateway) Pool() *pgxpool.Pool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pool
}

func (g *Gateway) handle() (*pgxpool.Pool, error) {
	if pool := g.Pool(); pool != nil {
		return pool, nil
	}
	return nil, errNotConnected
}

// run executes fn against the open handle.
func (g *Gateway) run(ctx context.Context, op string, fn func(pool *pgxpool.Pool) error) error {
	pool, err := g.handle()
	if err != nil {
		return g.fail(op, err)
	}
	return g.runWith(ctx, op, func() error { return fn(pool) })
}

// runWith applies the retry policy to fn and turns the final failure into
// a typed, logged error.
func (g *Gateway) runWith(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt >= g.retry.MaxAttempts || !retryable(err) {
			break
		}
		g.log.Warn().Err(err).Str("op", op).Int("attempt", attempt+1).Msg("retrying statement")

		timer := time.NewTimer(g.retry.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return g.fail(op, ctx.Err())
		case <-timer.C:
		}
	}
	return g.fail(op, err)
}

func (g *Gateway) fail(op string, err error) error {
	cerr := Classify(op, err)
	g.log.Error().Err(err).Str("op", op).Str("kind", apperr.KindOf(cerr).String()).Msg("statement failed")
	return cerr
}

// Exec runs a write statement in its own transaction: committed on
// success, rolled back on any error.
func (g *Gateway) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	var tag pgconn.CommandTag
	err := g.run(ctx, "exec", func(pool *pgxpool.Pool) error {
		return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			var err error
			tag, err = tx.Exec(ctx, sql, args...)
			return err
		})
	})
	return tag, err
}

// ExecMany runs sql once per argument row inside a single transaction.
// Either every row is applied or none is.
func (g *Gateway) ExecMany(ctx context.Context, sql string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	return g.run(ctx, "exec many", func(pool *pgxpool.Pool) error {
		return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			batch := &pgx.Batch{}
			for _, args := range rows {
				batch.Queue(sql, args...)
			}
			return tx.SendBatch(ctx, batch).Close()
		})
	})
}

func (g *Gateway) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	var rows pgx.Rows
	err := g.run(ctx, "query", func(pool *pgxpool.Pool) error {
		var err error
		rows, err = pool.Query(ctx, sql, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (g *Gateway) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	pool, err := g.handle()
	if err != nil {
		return errRow{err: g.fail("query row", err)}
	}
	return &classifiedRow{row: pool.QueryRow(ctx, sql, args...), g: g}
}

// Fetch returns the full result set as column-name keyed rows.
func (g *Gateway) Fetch(ctx context.Context, sql string, args ...interface{}) ([]Row, error) {
	rows, err := g.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []Row{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, g.fail("fetch", err)
		}
		row := make(Row, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, g.fail("fetch", err)
	}
	return results, nil
}

type classifiedRow struct {
	row pgx.Row
	g   *Gateway
}

func (r *classifiedRow) Scan(dest ...interface{}) error {
	err := r.row.Scan(dest...)
	if err == nil {
		return nil
	}
	if kindOf(err) == apperr.KindNotFound {
		return Classify("query row", err)
	}
	return r.g.fail("query row", err)
}

type errRow struct{ err error }

func (r errRow) Scan(...interface{}) error { return r.err }

// Collect scans every row with scan and closes rows.
func Collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()
	items := []*T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify("iterate rows", err)
	}
	return items, nil
}
