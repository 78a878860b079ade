// Package migration classifies discovered files into one-off and idempotent
// migrations and orders each class deterministically.
package migration

import (
	"fmt"
	"regexp"

	"github.com/surmigrate/surmigrate/internal/apperr"
	"github.com/surmigrate/surmigrate/internal/source"
)

// Kind distinguishes migrations that run once from those that run every time.
type Kind int

const (
	// OneOff migrations carry a leading numeric id and run at most once per database.
	OneOff Kind = iota
	// Idempotent migrations have no numeric prefix and run on every invocation.
	Idempotent
)

func (k Kind) String() string {
	switch k {
	case OneOff:
		return "one-off"
	case Idempotent:
		return "idempotent"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// File is a classified migration file.
type File struct {
	source.File
	Kind Kind
	// ID is the leading digit run of the name. Empty for idempotent files.
	ID string
}

// SortKey is the id for one-off files and the full name otherwise.
func (f File) SortKey() string {
	if f.Kind == OneOff {
		return f.ID
	}
	return f.Name
}

var idPattern = regexp.MustCompile(`^(\d+)`)

// ClassifyFile extracts the leading maximal run of decimal digits from the
// file name. A match makes the file a one-off keyed by those digits.
func ClassifyFile(f source.File) File {
	if m := idPattern.FindStringSubmatch(f.Name); m != nil {
		return File{File: f, Kind: OneOff, ID: m[1]}
	}
	return File{File: f, Kind: Idempotent}
}

// Classify classifies every file, preserving input order.
func Classify(files []source.File) []File {
	out := make([]File, 0, len(files))
	for _, f := range files {
		out = append(out, ClassifyFile(f))
	}
	return out
}

// CheckDuplicateIDs rejects two one-off files that share an id, since both
// would be recorded under the same ledger entry.
func CheckDuplicateIDs(files []File) error {
	seen := make(map[string]string, len(files))
	for _, f := range files {
		if f.Kind != OneOff {
			continue
		}
		if prev, ok := seen[f.ID]; ok {
			return &apperr.Error{
				Code:    apperr.CodeDuplicateID,
				Message: fmt.Sprintf("one-off migration id %q is used by more than one file", f.ID),
				Detail:  fmt.Sprintf("%s, %s", prev, f.Name),
			}
		}
		seen[f.ID] = f.Name
	}
	return nil
}
