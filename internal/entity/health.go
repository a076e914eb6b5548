package entity

import "time"

type HealthReport struct {
	Warehouse   string    `json:"warehouse"`
	Telegram    string    `json:"telegram"`
	WarehouseOK bool      `json:"-"`
	TelegramOK  bool      `json:"-"`
	CheckedAt   time.Time `json:"timestamp"`
}

func (h HealthReport) Healthy() bool {
	return h.WarehouseOK && h.TelegramOK
}
