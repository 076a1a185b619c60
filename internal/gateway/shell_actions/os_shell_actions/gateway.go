package os_shell_actions

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/horockey/orbcomm/internal/gateway/shell_actions"
	"github.com/rs/zerolog"
)

var _ shell_actions.Gateway = &osShellActions{}

type osShellActions struct {
	logger zerolog.Logger
}

func New(logger zerolog.Logger) *osShellActions {
	return &osShellActions{
		logger: logger,
	}
}

func (gw *osShellActions) Run(ctx context.Context, cmdline string) (string, error) {
	gw.logger.Debug().Str("cmd", cmdline).Msg("running shell action")

	out, err := exec.CommandContext(ctx, "sh", "-c", cmdline).Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf(
				"command %q failed with %s: %s",
				cmdline,
				exitErr.ProcessState.String(),
				string(exitErr.Stderr),
			)
		}
		return "", fmt.Errorf("executing command %q: %w", cmdline, err)
	}

	return string(out), nil
}
