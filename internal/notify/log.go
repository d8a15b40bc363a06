package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hostfolio-ai/guest-knowledge/pkg/logger"
	"github.com/hostfolio-ai/guest-knowledge/pkg/metrics"
)

// LogNotifier is the delivery stub used when no NATS transport is
// configured: it records the notification in the service log and reports
// success.
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates the logging stub notifier.
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

// Notify logs the notification and succeeds.
func (n *LogNotifier) Notify(ctx context.Context, notification Notification) (*Receipt, error) {
	msgID := uuid.New().String()
	n.logger.Info("host notification (log stub)",
		zap.String("message_id", msgID),
		zap.String("recipient", notification.Recipient),
		zap.String("subject", notification.Subject),
		zap.Bool("has_draft", notification.Draft != ""),
		zap.Any("metadata", notification.Metadata),
	)
	metrics.NotificationsTotal.WithLabelValues("log", "ok").Inc()
	return &Receipt{Success: true, MessageID: msgID}, nil
}
