package orbcomm

import (
	"github.com/horockey/orbcomm/internal/gateway/fleet_bus"
	"github.com/horockey/orbcomm/internal/gateway/orb_properties"
	"github.com/horockey/orbcomm/internal/gateway/shell_actions"
	"github.com/horockey/orbcomm/internal/model"
	"github.com/horockey/orbcomm/internal/repository/command_journal"
)

type (
	Bus          = fleet_bus.Gateway
	BusMessage   = fleet_bus.Message
	Properties   = orb_properties.Gateway
	ShellActions = shell_actions.Gateway
	Journal      = command_journal.Repository
	JournalEntry = model.JournalEntry

	QueryKind   = model.QueryKind
	CommandKind = model.CommandKind
	Attribute   = model.Attribute
)

const (
	QueryName            = model.QueryName
	QueryID              = model.QueryID
	QueryHardwareVersion = model.QueryHardwareVersion

	CommandReboot      = model.CommandReboot
	CommandShutdown    = model.CommandShutdown
	CommandResetGimbal = model.CommandResetGimbal

	AttrID              = model.AttrID
	AttrName            = model.AttrName
	AttrHardwareVersion = model.AttrHardwareVersion

	DiscoveryKey = model.DiscoveryKey
)

// ParseQuery maps a token to its QueryKind, exact match only.
func ParseQuery(token string) (QueryKind, error) {
	return model.ParseQuery(token)
}

// ParseCommand maps a token to its CommandKind, exact match only.
func ParseCommand(token string) (CommandKind, error) {
	return model.ParseCommand(token)
}
