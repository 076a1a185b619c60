package command_journal

import (
	"github.com/horockey/orbcomm/internal/model"
)

// Repository is the node-local audit trail of dispatched commands.
// The command path is fire-and-forget on the wire, so this record is
// the only place an operator can see what a node actually ran.
type Repository interface {
	model.MetricsProvider
	Append(entry model.JournalEntry) error
	// Recent returns up to n entries, newest first.
	Recent(n int) ([]model.JournalEntry, error)
}
