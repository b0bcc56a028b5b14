package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// LogNotifier writes alerts to the structured log. It is the default when no
// notify command is configured.
type LogNotifier struct{}

// Alert logs the alert at info level.
func (LogNotifier) Alert(_ context.Context, title, body string, payload ResumePayload) error {
	slog.Info("Payment alert",
		"title", title,
		"body", body,
		"amount", payload.Amount.String(),
		"payee", payload.Payee)
	return nil
}

// CommandNotifier shells out to a user-configured command, e.g. notify-send.
// The command receives the title and body as arguments and the resume
// payload in UPIWATCH_AMOUNT / UPIWATCH_PAYEE environment variables.
type CommandNotifier struct {
	Command string
}

// Alert runs the configured command with the alert text.
func (n CommandNotifier) Alert(ctx context.Context, title, body string, payload ResumePayload) error {
	cmd := exec.CommandContext(ctx, n.Command, title, body)
	cmd.Env = append(cmd.Environ(),
		"UPIWATCH_AMOUNT="+payload.Amount.String(),
		"UPIWATCH_PAYEE="+payload.Payee,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notify command %q failed: %w", n.Command, err)
	}
	return nil
}
