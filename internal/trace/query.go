// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package trace

import (
	"context"
	"time"

	apperrors "jdwpgdb/cli/internal/errors"

	"github.com/jackc/pgx/v5"
)

// Stats summarises the journal.
type Stats struct {
	Sessions int64
	Entries  int64
	// Last is nil for an empty journal.
	Last *time.Time
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ReadStats counts the journaled sessions and entries.
func ReadStats(ctx context.Context, q querier) (Stats, error) {
	var s Stats
	err := q.QueryRow(ctx, `SELECT count(DISTINCT session_id), count(*), max(at) FROM jdwpgdb_trace`).
		Scan(&s.Sessions, &s.Entries, &s.Last)
	if err != nil {
		return s, apperrors.Wrap(apperrors.TraceFailed, "reading trace stats", err)
	}
	return s, nil
}

// Purge deletes every journaled entry and returns how many were removed.
func Purge(ctx context.Context, db execer) (int64, error) {
	tag, err := db.Exec(ctx, `DELETE FROM jdwpgdb_trace`)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.TraceFailed, "purging trace", err)
	}
	return tag.RowsAffected(), nil
}
