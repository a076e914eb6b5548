package entity

import "time"

// VehicleMetric is one aggregated row of the warehouse telemetry table.
type VehicleMetric struct {
	VehicleID     string  `json:"vehicle_id" db:"VEHICLE_ID"`
	AvgSpeed      float64 `json:"avg_speed" db:"AVG_SPEED"`
	TotalDistance float64 `json:"total_distance" db:"TOTAL_DISTANCE"`
	AvgIdleTime   float64 `json:"avg_idle_time" db:"AVG_IDLE_TIME"`
}

// FleetSummary aggregates the whole source table.
type FleetSummary struct {
	TotalVehicles int64     `json:"total_vehicle"`
	AvgSpeed      float64   `json:"avg_speed"`
	TotalDistance float64   `json:"total_distance"`
	AvgIdleTime   float64   `json:"avg_idle_time"`
	GeneratedAt   time.Time `json:"timestamp"`
}
