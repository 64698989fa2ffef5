// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Problem
	}{
		{"nil", nil, ProblemUnknown},
		{"auth", &pgconn.PgError{Code: "28P01"}, ProblemAuth},
		{"missing database", fmt.Errorf("connect: %w", &pgconn.PgError{Code: "3D000"}), ProblemNoDatabase},
		{"deadline", context.DeadlineExceeded, ProblemTimeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "db.invalid"}, ProblemDNS},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, ProblemRefused},
		{"refused text", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), ProblemRefused},
		{"tls", errors.New("tls: failed to verify certificate"), ProblemTLS},
		{"other", errors.New("boom"), ProblemUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestDescribeConnectErrorMasksDSN(t *testing.T) {
	err := errors.New("failed to connect to postgres://dev:secret@db:5432/trace: connection refused")
	got := DescribeConnectError("Trace database unreachable", err)

	assert.Contains(t, got, "Trace database unreachable")
	assert.Contains(t, got, "Is PostgreSQL running?")
	assert.NotContains(t, got, "secret")
	assert.Empty(t, DescribeConnectError("x", nil))
}
