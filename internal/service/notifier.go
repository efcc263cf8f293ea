package service

import (
	"context"
	"log/slog"
)

// ActivationNotifier delivers a freshly issued activation code to the customer.
type ActivationNotifier interface {
	NotifyActivationCode(ctx context.Context, email, code string)
}

// LogNotifier writes activation codes to the log instead of sending them.
// Codes never leave the server log; operators relay them by hand.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyActivationCode(ctx context.Context, email, code string) {
	n.logger.InfoContext(ctx, "activation code issued",
		slog.String("email", email),
		slog.String("code", code),
	)
}
