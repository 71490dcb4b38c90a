// Package notify is the narrow interface to the external notification
// provider. The core never sees the provider's wire format.
package notify

import (
	"context"
	"fmt"
	"log/slog"
)

type Message struct {
	TenantID int64
	Title    string
	Body     string
	Data     map[string]string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier is the fallback when no push provider is configured; reminders
// still count as sent so guard flags behave the same in every environment.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Send(_ context.Context, msg Message) error {
	n.Logger.Info("notification",
		"tenant", msg.TenantID,
		"title", msg.Title,
		"body", msg.Body,
	)
	return nil
}

// TenantTopic is the per-tenant broadcast topic name.
func TenantTopic(tenantID int64) string {
	return fmt.Sprintf("tenant-%d", tenantID)
}
