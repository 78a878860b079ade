package migration

import (
	"slices"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// newCollator returns a numeric-aware, case- and accent-insensitive collator,
// so "2" sorts before "10" and "a" ties with "A".
func newCollator() *collate.Collator {
	return collate.New(language.Und, collate.Numeric, collate.IgnoreCase, collate.IgnoreDiacritics)
}

// sortKeys is shared by every comparison. A Collator reuses internal
// buffers, so calls are serialized.
var sortKeys = struct {
	sync.Mutex
	c *collate.Collator
}{c: newCollator()}

// Compare compares two sort keys with numeric-aware, case-insensitive ordering.
func Compare(a, b string) int {
	sortKeys.Lock()
	defer sortKeys.Unlock()
	return sortKeys.c.CompareString(a, b)
}

// Plan is the ordered pair of sequences a run executes.
type Plan struct {
	OneOffs     []File
	Idempotents []File
}

// Order splits classified files by kind and sorts each sequence by its sort
// key. Equal keys keep their input order.
func Order(files []File) Plan {
	var plan Plan
	for _, f := range files {
		switch f.Kind {
		case OneOff:
			plan.OneOffs = append(plan.OneOffs, f)
		case Idempotent:
			plan.Idempotents = append(plan.Idempotents, f)
		}
	}

	byKey := func(a, b File) int {
		return Compare(a.SortKey(), b.SortKey())
	}
	slices.SortStableFunc(plan.OneOffs, byKey)
	slices.SortStableFunc(plan.Idempotents, byKey)

	return plan
}

// Build classifies, validates and orders discovered files.
func Build(files []File) (Plan, error) {
	if err := CheckDuplicateIDs(files); err != nil {
		return Plan{}, err
	}
	return Order(files), nil
}
