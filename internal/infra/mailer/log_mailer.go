package mailer

import (
	"context"

	"perfumeshop/internal/logger"
)

// LogMailer はメールを送らずにログへ出す（開発用）
type LogMailer struct {
	logg *logger.Logger
}

func NewLogMailer(logg *logger.Logger) *LogMailer {
	return &LogMailer{logg: logg}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to string, resetURL string) error {
	ctx = m.logg.WithFields(ctx, map[string]any{
		"mail_to":   to,
		"reset_url": resetURL,
	})
	m.logg.Info(ctx, "password reset mail")
	return nil
}
