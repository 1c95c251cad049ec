package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// connection_exception class in the SQLSTATE table.
const sqlStateConnectionClass = "08"

// IsTransient reports whether err is a connectivity failure rather than a
// problem with the statement itself: pgconn connect errors, SQLSTATE class
// 08, network timeouts, connection resets, and the usual string patterns
// from wrapped driver errors.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, sqlStateConnectionClass) ||
			pgErr.Code == "57P01" || // admin_shutdown
			pgErr.Code == "57P03" // cannot_connect_now
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"connection refused",
		"broken pipe",
		"no such host",
		"i/o timeout",
		"closed pool",
		"conn closed",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
