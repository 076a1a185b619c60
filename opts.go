package orbcomm

import (
	"errors"
	"fmt"
	"time"

	"github.com/horockey/go-toolbox/options"
	"github.com/horockey/orbcomm/internal/gateway/orb_properties"
	"github.com/horockey/orbcomm/internal/gateway/shell_actions"
	"github.com/horockey/orbcomm/internal/repository/command_journal"
	"github.com/rs/zerolog"
)

type (
	NodeOption   = options.Option[createNodeParams]
	ClientOption = options.Option[createClientParams]
)

// Sets custom discovery heartbeat interval.
// Default is 1s.
func WithHeartbeatInterval(ivl time.Duration) NodeOption {
	return func(target *createNodeParams) error {
		if ivl <= 0 {
			return fmt.Errorf("heartbeat interval must be positive, got: %s", ivl.String())
		}
		target.heartbeatInterval = ivl
		return nil
	}
}

// Sets custom timeout for startup property lookups.
// Default is 5s.
func WithPropertyLookupTimeout(to time.Duration) NodeOption {
	return func(target *createNodeParams) error {
		if to <= 0 {
			return fmt.Errorf("property lookup timeout must be positive, got: %s", to.String())
		}
		target.propertyLookupTimeout = to
		return nil
	}
}

// Sets user-defined property provider.
// Default is shell lookups of the orb system layout.
func WithProperties(gw orb_properties.Gateway) NodeOption {
	return func(target *createNodeParams) error {
		if gw == nil {
			return errors.New("got nil properties gateway")
		}
		target.properties = gw
		return nil
	}
}

// Sets user-defined shell actions gateway.
// Default runs actions via sh -c.
func WithShellActions(gw shell_actions.Gateway) NodeOption {
	return func(target *createNodeParams) error {
		if gw == nil {
			return errors.New("got nil shell actions gateway")
		}
		target.shell = gw
		return nil
	}
}

// Sets user-defined command journal.
// Default is bounded in-memory journal.
func WithJournal(repo command_journal.Repository) NodeOption {
	return func(target *createNodeParams) error {
		if repo == nil {
			return errors.New("got nil journal")
		}
		target.journal = repo
		return nil
	}
}

// Sets custom node logger.
// Default is stdout logger.
func WithNodeLogger(l zerolog.Logger) NodeOption {
	return func(target *createNodeParams) error {
		target.logger = l
		return nil
	}
}

// Sets custom total discovery window.
// Default is 3s.
func WithDiscoveryWindow(w time.Duration) ClientOption {
	return func(target *createClientParams) error {
		if w <= 0 {
			return fmt.Errorf("discovery window must be positive, got: %s", w.String())
		}
		target.discoveryWindow = w
		return nil
	}
}

// Sets custom per-receive timeout for discovery and query replies.
// Default is 1s.
func WithReceiveTimeout(to time.Duration) ClientOption {
	return func(target *createClientParams) error {
		if to <= 0 {
			return fmt.Errorf("receive timeout must be positive, got: %s", to.String())
		}
		target.recvTimeout = to
		return nil
	}
}

// Sets custom client logger.
// Default is stdout logger.
func WithClientLogger(l zerolog.Logger) ClientOption {
	return func(target *createClientParams) error {
		target.logger = l
		return nil
	}
}
