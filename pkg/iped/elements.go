package iped

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// ElementSet is the ordered set of element identifiers for a study,
// "E1" through "En". The ordering is fixed for the lifetime of a study
// and gives every element a stable bit position in a TaskVector.
type ElementSet struct {
	ids []string
}

// NewElementSet builds the identifier set for n elements.
func NewElementSet(n int) (*ElementSet, error) {
	if n < MinElements || n > MaxElements {
		return nil, fmt.Errorf("element count %d outside [%d, %d]: %w",
			n, MinElements, MaxElements, ErrInvalidConfiguration)
	}
	ids := make([]string, n)
	for i := range ids {
		ids[i] = "E" + strconv.Itoa(i+1)
	}
	return &ElementSet{ids: ids}, nil
}

// Size returns the number of elements in the set.
func (s *ElementSet) Size() int { return len(s.ids) }

// ID returns the identifier at position i.
func (s *ElementSet) ID(i int) string { return s.ids[i] }

// IDs returns the identifiers in positional order. The returned slice
// is shared and must not be modified.
func (s *ElementSet) IDs() []string { return s.ids }

// Index resolves an identifier back to its bit position.
func (s *ElementSet) Index(id string) (int, bool) {
	ord, ok := parseElementOrdinal(id)
	if !ok || ord > len(s.ids) {
		return 0, false
	}
	return ord - 1, true
}

// parseElementOrdinal extracts the 1-based ordinal from an "E<n>"
// identifier.
func parseElementOrdinal(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, "E")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// TaskVector is one task's on/off state for up to MaxElements elements,
// element i (zero-based) occupying bit i. The compact form keeps the
// scheduler's popcount and overlap arithmetic exact and allocation free.
type TaskVector uint16

// Has reports whether element i is active.
func (v TaskVector) Has(i int) bool { return v&(1<<uint(i)) != 0 }

// ActiveCount returns the number of active elements.
func (v TaskVector) ActiveCount() int { return bits.OnesCount16(uint16(v)) }

// vectorOf builds a TaskVector from zero-based element positions.
func vectorOf(positions []int) TaskVector {
	var v TaskVector
	for _, p := range positions {
		v |= 1 << uint(p)
	}
	return v
}

// String renders the vector as a 0/1 string in element order, mainly
// for logs and test failure messages.
func (v TaskVector) String() string {
	var b strings.Builder
	for i := 0; i < MaxElements; i++ {
		if v.Has(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
