// Copyright (c) 2025 jdwpgdb
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pterm/pterm"
)

// Problem is the likely cause of a failed database connection.
type Problem int

const (
	ProblemUnknown Problem = iota
	ProblemTimeout
	ProblemDNS
	ProblemRefused
	ProblemTLS
	ProblemAuth
	ProblemNoDatabase
)

// Classify guesses why a connection to the trace database failed.
func Classify(err error) Problem {
	if err == nil {
		return ProblemUnknown
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "28P01", "28000": // invalid_password, invalid_authorization_specification
			return ProblemAuth
		case "3D000": // invalid_catalog_name
			return ProblemNoDatabase
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ProblemTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ProblemDNS
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ProblemRefused
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline exceeded"):
		return ProblemTimeout
	case strings.Contains(lower, "no such host"):
		return ProblemDNS
	case strings.Contains(lower, "connection refused"):
		return ProblemRefused
	case strings.Contains(lower, "password authentication failed"):
		return ProblemAuth
	case strings.Contains(lower, "tls"), strings.Contains(lower, "ssl"), strings.Contains(lower, "certificate"):
		return ProblemTLS
	}
	return ProblemUnknown
}

var hints = map[Problem]string{
	ProblemTimeout:    "The database did not answer in time. Check the host, port and any firewall in between.",
	ProblemDNS:        "The database host name could not be resolved. Check the host part of the DSN.",
	ProblemRefused:    "Nothing is listening on the database port. Is PostgreSQL running?",
	ProblemTLS:        "The TLS handshake failed. Try sslmode=disable for a local database, or check certificates.",
	ProblemAuth:       "The user name or password was rejected.",
	ProblemNoDatabase: "The database named in the DSN does not exist.",
}

// DescribeConnectError renders a connection failure with a hint, masking any
// credentials in the underlying error.
func DescribeConnectError(context string, err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(context)
	if hint, ok := hints[Classify(err)]; ok {
		b.WriteString("\n   ")
		b.WriteString(hint)
	}
	b.WriteString("\n   ")
	b.WriteString(pterm.Gray(fmt.Sprintf("Technical details: %s", Mask(err.Error()))))
	return b.String()
}
