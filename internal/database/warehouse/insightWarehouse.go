package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ds124wfegd/fleet-insight/internal/entity"
)

type insightRepository struct {
	db   *sql.DB
	opts Options
}

func NewInsightRepository(db *sql.DB, opts Options) InsightRepository {
	return &insightRepository{db: db, opts: opts}
}

// TopVehiclesByDistance groups the telemetry by vehicle and ranks it by summed distance.
func (r *insightRepository) TopVehiclesByDistance(ctx context.Context, limit int) ([]entity.VehicleMetric, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", entity.ErrInvalidInput)
	}
	if limit == 0 {
		return []entity.VehicleMetric{}, nil
	}

	// limit is a validated int, identifiers come from validated configuration
	query := fmt.Sprintf(`
		SELECT
			VEHICLE_ID,
			AVG(AVG_SPEED) AS AVG_SPEED,
			SUM(TOTAL_DISTANCE_KM) AS TOTAL_DISTANCE,
			AVG(TOTAL_IDLE_TIME_S) AS AVG_IDLE_TIME
		FROM %s
		GROUP BY VEHICLE_ID
		ORDER BY TOTAL_DISTANCE DESC
		LIMIT %d
	`, r.opts.SourceTable, limit)

	metrics := make([]entity.VehicleMetric, 0, limit)
	err := withConn(ctx, r.db, r.opts.QueryTimeout, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query)
		if err != nil {
			return queryError("top vehicles", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				vehicleID                        sql.NullString
				avgSpeed, totalDistance, avgIdle sql.NullFloat64
			)
			if err := rows.Scan(&vehicleID, &avgSpeed, &totalDistance, &avgIdle); err != nil {
				return queryError("scan top vehicles", err)
			}
			metrics = append(metrics, entity.VehicleMetric{
				VehicleID:     vehicleID.String,
				AvgSpeed:      avgSpeed.Float64,
				TotalDistance: totalDistance.Float64,
				AvgIdleTime:   avgIdle.Float64,
			})
		}
		if err := rows.Err(); err != nil {
			return queryError("iterate top vehicles", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return metrics, nil
}

func (r *insightRepository) FleetSummary(ctx context.Context) (*entity.FleetSummary, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(DISTINCT VEHICLE_ID) AS TOTAL_VEHICLES,
			AVG(AVG_SPEED) AS AVG_SPEED,
			SUM(TOTAL_DISTANCE_KM) AS TOTAL_DISTANCE,
			AVG(TOTAL_IDLE_TIME_S) AS AVG_IDLE_TIME
		FROM %s
	`, r.opts.SourceTable)

	var summary entity.FleetSummary
	err := withConn(ctx, r.db, r.opts.QueryTimeout, func(ctx context.Context, conn *sql.Conn) error {
		var avgSpeed, totalDistance, avgIdle sql.NullFloat64
		err := conn.QueryRowContext(ctx, query).Scan(
			&summary.TotalVehicles,
			&avgSpeed,
			&totalDistance,
			&avgIdle,
		)
		if err != nil {
			return queryError("fleet summary", err)
		}
		summary.AvgSpeed = avgSpeed.Float64
		summary.TotalDistance = totalDistance.Float64
		summary.AvgIdleTime = avgIdle.Float64
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.GeneratedAt = time.Now()
	return &summary, nil
}

func (r *insightRepository) Version(ctx context.Context) (string, error) {
	var version string
	err := withConn(ctx, r.db, r.opts.QueryTimeout, func(ctx context.Context, conn *sql.Conn) error {
		if err := conn.QueryRowContext(ctx, r.opts.Dialect.VersionQuery).Scan(&version); err != nil {
			return queryError("version", err)
		}
		return nil
	})
	return version, err
}
