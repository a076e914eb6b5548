package entity

import "errors"

var (
	// Warehouse errors
	ErrConnection = errors.New("warehouse connection failed")
	ErrQuery      = errors.New("warehouse query failed")

	// Notification errors
	ErrDelivery = errors.New("notification delivery failed")
	ErrLogging  = errors.New("audit log write failed")

	// Pipeline errors
	ErrNoData        = errors.New("no data found")
	ErrRunInProgress = errors.New("notification run already in progress")

	// General errors
	ErrInvalidInput = errors.New("invalid input")
)
