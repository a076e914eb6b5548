package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/fleet-insight/internal/entity"
	"github.com/ds124wfegd/fleet-insight/pkg/warehouse"
)

type InsightRepository interface {
	// Ranking operations
	TopVehiclesByDistance(ctx context.Context, limit int) ([]entity.VehicleMetric, error)

	// Statistical operations
	FleetSummary(ctx context.Context) (*entity.FleetSummary, error)

	// Connectivity
	Version(ctx context.Context) (string, error)
}

type AuditRepository interface {
	EnsureTable(ctx context.Context) error
	Append(ctx context.Context, rows []entity.AuditLogRow) error
}

// Options shared by the warehouse repositories.
type Options struct {
	Dialect      warehouse.Dialect
	SourceTable  string
	AuditTable   string
	QueryTimeout time.Duration
}

// withConn runs fn on a dedicated connection that is released on every
// return path. Acquisition failures are reported as entity.ErrConnection.
func withConn(ctx context.Context, db *sql.DB, timeout time.Duration, fn func(ctx context.Context, conn *sql.Conn) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrConnection, err)
	}
	defer conn.Close()

	return fn(ctx, conn)
}

func queryError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", entity.ErrQuery, op, err)
}
