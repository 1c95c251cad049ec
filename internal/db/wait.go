package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/geofeatures/internal/resilience"
)

// connectTimeout bounds a single readiness check.
const connectTimeout = 5 * time.Second

// Dialer opens a single connection; pgx.Connect in production.
type Dialer func(ctx context.Context, connString string) (Conn, error)

// Conn is the part of *pgx.Conn a readiness check needs.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close(ctx context.Context) error
}

// WaitReady polls the database every interval until it answers SELECT 1 or
// timeout elapses. It returns the time spent waiting.
func WaitReady(ctx context.Context, connString string, interval, timeout time.Duration, dial Dialer) (time.Duration, error) {
	if dial == nil {
		dial = pgxDialer
	}
	log := zap.L().With(zap.String("component", "db.wait"))

	start := time.Now()
	cfg := resilience.FixedInterval(interval, timeout)
	cfg.OnRetry = resilience.RetryLogger("db wait")

	err := resilience.Do(ctx, cfg, func(ctx context.Context) error {
		return pingOnce(ctx, connString, dial)
	})
	elapsed := time.Since(start)
	if err != nil {
		return elapsed, eris.Wrapf(err, "db: not ready after %s", elapsed.Round(100*time.Millisecond))
	}

	log.Info("database ready", zap.Duration("elapsed", elapsed))
	return elapsed, nil
}

func pingOnce(ctx context.Context, connString string, dial Dialer) error {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	conn, err := dial(ctx, connString)
	if err != nil {
		return eris.Wrap(err, "db: connect")
	}
	defer func() { _ = conn.Close(context.Background()) }()

	if _, err := conn.Exec(ctx, "SELECT 1"); err != nil {
		return eris.Wrap(err, "db: select 1")
	}
	return nil
}

func pgxDialer(ctx context.Context, connString string) (Conn, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
