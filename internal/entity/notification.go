package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

type DeliveryStatus string

const (
	DeliveryStatusSent            DeliveryStatus = "sent"
	DeliveryStatusFailedHTTP      DeliveryStatus = "failed-http"
	DeliveryStatusFailedException DeliveryStatus = "failed-exception"
)

// MessageIDUnavailable is stored when the provider did not return a message id.
const MessageIDUnavailable = "N/A"

type NotificationResult struct {
	Status           DeliveryStatus  `json:"status"`
	HTTPStatus       int             `json:"http_status,omitempty"`
	MessageID        string          `json:"message_id"`
	Error            string          `json:"error,omitempty"`
	SentAt           time.Time       `json:"sent_at"`
	ProviderResponse json.RawMessage `json:"provider_response,omitempty"`
}

func (r NotificationResult) Delivered() bool {
	return r.Status == DeliveryStatusSent
}

// Summary renders the status with the HTTP code, e.g. "failed-http 401".
func (r NotificationResult) Summary() string {
	if r.Status == DeliveryStatusFailedHTTP && r.HTTPStatus != 0 {
		return fmt.Sprintf("%s %d", r.Status, r.HTTPStatus)
	}
	return string(r.Status)
}

type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduler Trigger = "scheduler"
)

// NotifyReport is the outcome of one aggregate, format, send and log run.
type NotifyReport struct {
	ExecutionID string             `json:"execution_id"`
	Trigger     Trigger            `json:"trigger"`
	Rows        []VehicleMetric    `json:"rows"`
	Message     string             `json:"message"`
	Delivery    NotificationResult `json:"delivery"`
	Logged      bool               `json:"logged"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
}
