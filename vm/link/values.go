package link

import (
	"strings"

	"github.com/chazu/linkcore/vm"
)

// Values is a multiple-value result set. Most calls return exactly one
// value; an empty set reads as nil.
type Values []vm.Value

// Single returns a one-value result set.
func Single(v vm.Value) Values {
	return Values{v}
}

// Primary returns the first value, or nil if there are none.
func (vs Values) Primary() vm.Value {
	if len(vs) == 0 {
		return vm.Nil
	}
	return vs[0]
}

func (vs Values) String() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}
