package shell_orb_properties

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/horockey/orbcomm/internal/gateway/orb_properties"
	"github.com/horockey/orbcomm/internal/model"
	"github.com/rs/zerolog"
)

var _ orb_properties.Gateway = &shellOrbProperties{}

// Resolves attributes by running a shell command per attribute and
// taking its trimmed stdout.
type shellOrbProperties struct {
	commands map[model.Attribute]string
	logger   zerolog.Logger
}

// DefaultCommands mirrors orb system layout: the id tool on PATH and
// the persistent partition files.
func DefaultCommands() map[model.Attribute]string {
	return map[model.Attribute]string{
		model.AttrID:              "orb-id",
		model.AttrName:            "cat /usr/persistent/orb-name",
		model.AttrHardwareVersion: "cat /usr/persistent/hardware_version",
	}
}

func New(commands map[model.Attribute]string, logger zerolog.Logger) *shellOrbProperties {
	if commands == nil {
		commands = DefaultCommands()
	}
	return &shellOrbProperties{
		commands: commands,
		logger:   logger,
	}
}

func (gw *shellOrbProperties) Lookup(ctx context.Context, attr model.Attribute) (string, error) {
	cmdline, found := gw.commands[attr]
	if !found {
		return "", fmt.Errorf("no command configured for attribute %s", attr)
	}

	gw.logger.Debug().Str("attr", string(attr)).Str("cmd", cmdline).Msg("looking up property")

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

	return strings.TrimSpace(string(out)), nil
}
