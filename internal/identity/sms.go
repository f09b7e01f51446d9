package identity

import (
	"context"

	"vault-backend/internal/shared/telemetry"
)

// CodeSender delivers a verification code out of band.
type CodeSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// LogCodeSender writes codes to the structured log instead of sending SMS.
// Dev and test environments only.
type LogCodeSender struct{}

func (LogCodeSender) SendCode(ctx context.Context, phone, code string) error {
	telemetry.Info("sms.code", map[string]any{
		"phone": phone,
		"code":  code,
	})
	return nil
}
