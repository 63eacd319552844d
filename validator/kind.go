package validator

import "strings"

// Kind is a set of violation kinds.
type Kind uint8

const (
	KindSpeed Kind = 1 << iota
	KindWarp
	KindDistance
	KindCollision
	KindInvalid
)

var kindNames = []string{"speed", "warp", "distance", "collision", "invalid"}

// Has returns true if k contains every kind in other.
func (k Kind) Has(other Kind) bool {
	return k&other == other
}

func (k Kind) String() string {
	if k == 0 {
		return "none"
	}
	var names []string
	for i, name := range kindNames {
		if k&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}
