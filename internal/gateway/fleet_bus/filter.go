package fleet_bus

import "strings"

// MatchFilter reports whether topic matches filter.
// "+" matches exactly one segment, trailing "#" matches any remainder.
func MatchFilter(filter, topic string) bool {
	fSegs := strings.Split(filter, "/")
	tSegs := strings.Split(topic, "/")

	for i, fs := range fSegs {
		if fs == "#" {
			return i == len(fSegs)-1
		}
		if i >= len(tSegs) {
			return false
		}
		if fs != "+" && fs != tSegs[i] {
			return false
		}
	}

	return len(fSegs) == len(tSegs)
}
