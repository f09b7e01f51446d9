package notify

import "context"

// Sender delivers a templated message to an email address. Failures must be
// reported to the caller, never swallowed.
type Sender interface {
	Send(ctx context.Context, recipientEmail string, vars map[string]string) error
}
