package orb_properties

import (
	"context"

	"github.com/horockey/orbcomm/internal/model"
)

// Gateway resolves static node attributes from an external provider.
// Lookups are best-effort: callers substitute the attribute's default
// on any error and must never abort startup over one.
type Gateway interface {
	Lookup(ctx context.Context, attr model.Attribute) (string, error)
}
