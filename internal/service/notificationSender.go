package service

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ds124wfegd/fleet-insight/internal/entity"
	"github.com/ds124wfegd/fleet-insight/pkg/telegram"

	"github.com/sirupsen/logrus"
)

type notificationSender struct {
	bot    MessageClient
	chatID string
}

// NewNotificationSender accepts a nil bot; every Send then fails with
// failed-exception.
func NewNotificationSender(bot MessageClient, chatID string) NotificationSender {
	return &notificationSender{bot: bot, chatID: chatID}
}

func (s *notificationSender) Send(ctx context.Context, message string) entity.NotificationResult {
	result := entity.NotificationResult{
		MessageID: entity.MessageIDUnavailable,
		SentAt:    time.Now(),
	}

	if s.bot == nil {
		result.Status = entity.DeliveryStatusFailedException
		result.Error = "telegram bot token is not configured"
		return result
	}

	resp, err := s.bot.SendMessage(ctx, s.chatID, message, telegram.ParseModeMarkdownV2)
	if err != nil {
		logrus.WithError(err).Warn("Telegram delivery failed")
		result.Status = entity.DeliveryStatusFailedException
		result.Error = err.Error()
		return result
	}

	result.HTTPStatus = resp.StatusCode
	result.ProviderResponse = resp.Raw
	if resp.MessageID != 0 {
		result.MessageID = strconv.FormatInt(resp.MessageID, 10)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		result.Status = entity.DeliveryStatusSent
		return result
	}

	result.Status = entity.DeliveryStatusFailedHTTP
	result.Error = resp.Description
	if result.Error == "" {
		result.Error = http.StatusText(resp.StatusCode)
	}
	logrus.WithFields(logrus.Fields{
		"http_status": resp.StatusCode,
		"description": result.Error,
	}).Warn("Telegram rejected message")

	return result
}
