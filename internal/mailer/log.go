package mailer

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// LogProvider logs emails instead of sending them.
// Used for dry runs.
type LogProvider struct {
	logger *slog.Logger
}

// NewLogProvider creates a new log-based email provider.
func NewLogProvider(logger *slog.Logger) *LogProvider {
	return &LogProvider{logger: logger}
}

// Name returns the provider name.
func (p *LogProvider) Name() string {
	return "log"
}

// Send logs the email details.
func (p *LogProvider) Send(ctx context.Context, msg *Message) (*Response, error) {
	p.logger.Info("EMAIL (dry run - not actually sent)",
		"from", msg.From,
		"to", strings.Join(msg.To, ", "),
		"cc", strings.Join(msg.CC, ", "),
		"subject", msg.Subject,
		"bytes", len(msg.HTML),
		"attachments", len(msg.Attachments),
	)
	return &Response{StatusCode: http.StatusAccepted}, nil
}
