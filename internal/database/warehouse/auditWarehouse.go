package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ds124wfegd/fleet-insight/internal/entity"
)

var auditColumns = []string{
	"RUN_AT",
	"VEHICLE_ID",
	"AVG_SPEED",
	"TOTAL_DISTANCE",
	"AVG_IDLE_TIME",
	"TELEGRAM_STATUS",
	"MESSAGE_ID",
	"EXECUTION_ID",
}

type auditRepository struct {
	db   *sql.DB
	opts Options
}

func NewAuditRepository(db *sql.DB, opts Options) AuditRepository {
	return &auditRepository{db: db, opts: opts}
}

func (r *auditRepository) createTableQuery() string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			RUN_AT TIMESTAMP,
			VEHICLE_ID VARCHAR,
			AVG_SPEED FLOAT,
			TOTAL_DISTANCE FLOAT,
			AVG_IDLE_TIME FLOAT,
			TELEGRAM_STATUS VARCHAR,
			MESSAGE_ID VARCHAR,
			EXECUTION_ID VARCHAR
		)`, r.opts.AuditTable)
}

func (r *auditRepository) insertQuery() string {
	placeholders := make([]string, len(auditColumns))
	for i := range auditColumns {
		placeholders[i] = r.opts.Dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		r.opts.AuditTable,
		strings.Join(auditColumns, ", "),
		strings.Join(placeholders, ", "),
	)
}

// EnsureTable creates the audit table if it does not exist yet.
func (r *auditRepository) EnsureTable(ctx context.Context) error {
	return withConn(ctx, r.db, r.opts.QueryTimeout, func(ctx context.Context, conn *sql.Conn) error {
		if _, err := conn.ExecContext(ctx, r.createTableQuery()); err != nil {
			return queryError("create audit table", err)
		}
		return nil
	})
}

// Append writes all rows in one transaction; either every row lands or none.
func (r *auditRepository) Append(ctx context.Context, rows []entity.AuditLogRow) error {
	if len(rows) == 0 {
		return nil
	}

	return withConn(ctx, r.db, r.opts.QueryTimeout, func(ctx context.Context, conn *sql.Conn) error {
		// DDL commits implicitly on Snowflake, so it runs outside the transaction
		if _, err := conn.ExecContext(ctx, r.createTableQuery()); err != nil {
			return queryError("create audit table", err)
		}

		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return queryError("begin audit append", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, r.insertQuery())
		if err != nil {
			return queryError("prepare audit append", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			_, err := stmt.ExecContext(ctx,
				row.RunAt,
				row.VehicleID,
				row.AvgSpeed,
				row.TotalDistance,
				row.AvgIdleTime,
				row.DeliveryStatus,
				row.MessageID,
				row.ExecutionID,
			)
			if err != nil {
				return queryError(fmt.Sprintf("append audit row for %s", row.VehicleID), err)
			}
		}

		if err := tx.Commit(); err != nil {
			return queryError("commit audit append", err)
		}
		return nil
	})
}
