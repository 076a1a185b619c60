package model

// Attribute names a static node property served on the query keys.
type Attribute string

const (
	AttrID              Attribute = "id"
	AttrName            Attribute = "name"
	AttrHardwareVersion Attribute = "hardware_version"
)

// DefaultValue is what a node serves when the property provider
// fails. Provider failures must never abort node startup.
func (a Attribute) DefaultValue() string {
	switch a {
	case AttrID:
		return "UnknownOrb"
	case AttrName:
		return "DevOrb"
	case AttrHardwareVersion:
		return "UnknownHWVersion"
	default:
		return ""
	}
}
