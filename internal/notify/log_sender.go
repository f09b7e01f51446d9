package notify

import (
	"context"

	"vault-backend/internal/shared/telemetry"
)

// LogSender writes the message to the log instead of delivering it. Used in
// dev when no email service is configured.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, recipientEmail string, vars map[string]string) error {
	_ = ctx
	fields := map[string]any{"to": recipientEmail}
	for k, v := range vars {
		fields[k] = v
	}
	telemetry.Info("notify.send", fields)
	return nil
}

var _ Sender = LogSender{}
