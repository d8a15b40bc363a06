package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	natsclient "github.com/hostfolio-ai/guest-knowledge/internal/nats"
	"github.com/hostfolio-ai/guest-knowledge/pkg/metrics"
)

const (
	// StreamName is the name of the notifications stream.
	StreamName = "NOTIFICATIONS"

	// SubjectPrefix is the prefix for all notification subjects.
	SubjectPrefix = "notify"
)

// NATSNotifier publishes host notifications to a JetStream stream for a
// downstream sender to deliver.
type NATSNotifier struct {
	client *natsclient.Client
}

// NewNATSNotifier creates a notifier over an established NATS client.
func NewNATSNotifier(client *natsclient.Client) *NATSNotifier {
	return &NATSNotifier{client: client}
}

// EnsureStream ensures the notifications stream exists with proper
// configuration.
func (n *NATSNotifier) EnsureStream(ctx context.Context) error {
	js := n.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Host notifications awaiting delivery",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// hostSubject returns the subject for a host notification. The property id
// segment lets downstream senders subscribe per property.
func hostSubject(meta map[string]string) string {
	property := meta["property_id"]
	if property == "" {
		property = "unknown"
	}
	return fmt.Sprintf("%s.host.%s", SubjectPrefix, property)
}

// Notify publishes the notification and returns a receipt carrying the
// publish id.
func (n *NATSNotifier) Notify(ctx context.Context, notification Notification) (*Receipt, error) {
	data, err := json.Marshal(notification)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("nats", "error").Inc()
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}

	msgID := uuid.New().String()
	_, err = n.client.JetStream().Publish(ctx, hostSubject(notification.Metadata), data,
		jetstream.WithMsgID(msgID),
	)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("nats", "error").Inc()
		return &Receipt{Success: false, Error: err.Error()}, fmt.Errorf("failed to publish notification: %w", err)
	}

	metrics.NotificationsTotal.WithLabelValues("nats", "ok").Inc()
	return &Receipt{Success: true, MessageID: msgID}, nil
}
