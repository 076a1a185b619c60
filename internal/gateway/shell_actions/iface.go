package shell_actions

import "context"

// Gateway runs external shell actions on behalf of the dispatcher.
// Run is synchronous: it returns the action's stdout on success, or
// an error wrapping exit status and stderr.
type Gateway interface {
	Run(ctx context.Context, cmdline string) (string, error)
}
