package entity

import "time"

// AuditLogRow is one append-only row of the insight log table.
type AuditLogRow struct {
	RunAt          time.Time `db:"RUN_AT"`
	VehicleID      string    `db:"VEHICLE_ID"`
	AvgSpeed       float64   `db:"AVG_SPEED"`
	TotalDistance  float64   `db:"TOTAL_DISTANCE"`
	AvgIdleTime    float64   `db:"AVG_IDLE_TIME"`
	DeliveryStatus string    `db:"TELEGRAM_STATUS"`
	MessageID      string    `db:"MESSAGE_ID"`
	ExecutionID    string    `db:"EXECUTION_ID"`
}
