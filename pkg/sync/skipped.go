package sync

import "sort"

// SkippedKeys is the set of document keys for which a conflict could not be
// resolved in favor of either side. Skipped keys are reported, never
// silently dropped.
type SkippedKeys map[string]struct{}

// NewSkippedKeys creates a set from the given keys.
func NewSkippedKeys(keys ...string) SkippedKeys {
	s := make(SkippedKeys, len(keys))
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts a key into the set.
func (s SkippedKeys) Add(key string) {
	s[key] = struct{}{}
}

// Update inserts all keys from other into the set.
func (s SkippedKeys) Update(other SkippedKeys) {
	for k := range other {
		s[k] = struct{}{}
	}
}

// Contains reports whether key is in the set.
func (s SkippedKeys) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of keys in the set.
func (s SkippedKeys) Len() int {
	return len(s)
}

// Sorted returns the keys in sorted order.
func (s SkippedKeys) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
