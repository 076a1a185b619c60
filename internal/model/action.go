package model

import "fmt"

// DiscoveryKey is the well-known topic all nodes heartbeat their ID on.
// It carries no node id on purpose: listeners do not know the fleet yet.
const DiscoveryKey = "orb/id"

type QueryKind string

const (
	QueryName            QueryKind = "name"
	QueryID              QueryKind = "id"
	QueryHardwareVersion QueryKind = "hardware_version"
)

type CommandKind string

const (
	CommandReboot      CommandKind = "reboot"
	CommandShutdown    CommandKind = "shutdown"
	CommandResetGimbal CommandKind = "reset_gimbal"
)

// ParseQuery maps a token to its QueryKind.
// Matching is exact: no trimming, no case folding.
// Dispatch correctness depends on that.
func ParseQuery(token string) (QueryKind, error) {
	switch q := QueryKind(token); q {
	case QueryName, QueryID, QueryHardwareVersion:
		return q, nil
	default:
		return "", UnknownTokenError{Token: token}
	}
}

// ParseCommand maps a token to its CommandKind. Exact match only.
func ParseCommand(token string) (CommandKind, error) {
	switch c := CommandKind(token); c {
	case CommandReboot, CommandShutdown, CommandResetGimbal:
		return c, nil
	default:
		return "", UnknownTokenError{Token: token}
	}
}

// Key builds the topic key for querying this attribute of given node.
func (q QueryKind) Key(nodeID string) string {
	return fmt.Sprintf("orb/%s/%s", nodeID, q)
}

// Key builds the topic key for sending this command to given node.
func (c CommandKind) Key(nodeID string) string {
	return fmt.Sprintf("orb/%s/command/%s", nodeID, c)
}

// CommandFilter is the subscription filter matching every command key
// of given node ("+" is the single-level topic wildcard).
func CommandFilter(nodeID string) string {
	return fmt.Sprintf("orb/%s/command/+", nodeID)
}
