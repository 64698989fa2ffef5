// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package trace

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	apperrors "jdwpgdb/cli/internal/errors"
	"jdwpgdb/cli/internal/logging"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"
)

// DefaultBuffer is the number of entries queued before new ones are dropped.
const DefaultBuffer = 1024

const schemaSQL = `CREATE TABLE IF NOT EXISTS jdwpgdb_trace (
	id         BIGSERIAL PRIMARY KEY,
	session_id UUID        NOT NULL,
	at         TIMESTAMPTZ NOT NULL,
	direction  TEXT        NOT NULL,
	summary    TEXT        NOT NULL,
	payload    BYTEA
)`

const insertSQL = `INSERT INTO jdwpgdb_trace (session_id, at, direction, summary, payload) VALUES ($1, $2, $3, $4, $5)`

// execer is the part of *pgxpool.Pool the recorder writes through.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Options configures a Postgres recorder.
type Options struct {
	Buffer int
	Logger *pterm.Logger
}

// Postgres writes entries to the jdwpgdb_trace table from a single background
// goroutine.
type Postgres struct {
	db   execer
	pool *pgxpool.Pool
	log  *pterm.Logger

	mu      sync.RWMutex
	closed  bool
	entries chan Entry
	dropped atomic.Int64
	written atomic.Int64

	g *errgroup.Group
}

// Open connects to dsn, creates the trace table if needed and starts the
// writer.
func Open(ctx context.Context, dsn string, opts Options) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.TraceFailed, "connecting to trace database", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperrors.Wrap(apperrors.TraceFailed, "connecting to trace database", err)
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	p := newPostgres(pool, opts)
	p.pool = pool
	return p, nil
}

// EnsureSchema creates the trace table when it does not exist.
func EnsureSchema(ctx context.Context, db execer) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return apperrors.Wrap(apperrors.TraceFailed, "creating trace table", err)
	}
	return nil
}

func newPostgres(db execer, opts Options) *Postgres {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	p := &Postgres{
		db:      db,
		log:     opts.Logger,
		entries: make(chan Entry, opts.Buffer),
		g:       &errgroup.Group{},
	}
	p.g.Go(p.writeLoop)
	return p
}

// Record queues e. A full queue drops e.
func (p *Postgres) Record(e Entry) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.entries <- e:
	default:
		p.dropped.Add(1)
	}
}

// Dropped returns how many entries were discarded because the queue was full.
func (p *Postgres) Dropped() int64 { return p.dropped.Load() }

// Written returns how many entries reached the database.
func (p *Postgres) Written() int64 { return p.written.Load() }

func (p *Postgres) writeLoop() error {
	failing := false
	for e := range p.entries {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := p.db.Exec(ctx, insertSQL, e.Session, e.At, string(e.Direction), e.Summary, e.Payload)
		cancel()
		if err != nil {
			// Log the first failure of a run only.
			if !failing {
				p.log.Warn("trace write failed", p.log.Args("error", logging.Mask(err.Error())))
			}
			failing = true
			continue
		}
		failing = false
		p.written.Add(1)
	}
	return nil
}

// Close stops accepting entries, flushes the queue and closes the pool.
func (p *Postgres) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.entries)
	}
	p.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- p.g.Wait() }()
	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if p.pool != nil {
		p.pool.Close()
	}
	if n := p.Dropped(); n > 0 {
		p.log.Warn("trace entries dropped", p.log.Args("count", n))
	}
	return err
}
