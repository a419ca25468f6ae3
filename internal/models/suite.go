package models

import (
	"fmt"
	"sort"
	"strings"
)

// ModelSuite is the ordered, source-of-truth list of model identifiers for a
// benchmark suite. Order matters: it drives partition assignment and report
// ordering, so it must be stable across runs.
type ModelSuite []string

// Validate rejects suites that would break partition disjointness.
func (s ModelSuite) Validate() error {
	seen := make(map[string]int, len(s))
	for i, id := range s {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: suite entry %d is empty", ErrInvalidInput, i)
		}
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%w: model %q appears twice in suite (entries %d and %d)", ErrInvalidInput, id, prev, i)
		}
		seen[id] = i
	}
	return nil
}

// Filter returns the suite with excluded identifiers removed, preserving order.
func (s ModelSuite) Filter(exclusions ExclusionSet) []string {
	out := make([]string, 0, len(s))
	for _, id := range s {
		if exclusions.Contains(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// ExclusionSet holds model identifiers removed from consideration before
// partitioning, e.g. models known to be broken on a given suite.
type ExclusionSet map[string]struct{}

// NewExclusionSet builds a set from identifiers. Blank entries are ignored.
func NewExclusionSet(ids ...string) ExclusionSet {
	set := make(ExclusionSet, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

// Contains is safe to call on a nil set.
func (e ExclusionSet) Contains(id string) bool {
	_, ok := e[id]
	return ok
}

// Union returns a new set with the members of both.
func (e ExclusionSet) Union(other ExclusionSet) ExclusionSet {
	out := make(ExclusionSet, len(e)+len(other))
	for id := range e {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the members in lexical order.
func (e ExclusionSet) Sorted() []string {
	ids := make([]string, 0, len(e))
	for id := range e {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
