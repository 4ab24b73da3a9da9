package contract

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import "fmt"

// MergePolicy decides which ancestor wins when two ancestors declare
// a state variable or event with the same name.
type MergePolicy int

const (
	// ClosestAncestorWins keeps the declaration of the ancestor closest to the class.
	ClosestAncestorWins MergePolicy = iota

	// BaseAncestorWins keeps the declaration of the most base ancestor.
	BaseAncestorWins
)

// ParseMergePolicy parses "closest" or "base".
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch s {
	case "", "closest":
		return ClosestAncestorWins, nil
	case "base":
		return BaseAncestorWins, nil
	}
	return 0, fmt.Errorf("unknown merge policy %v", s)
}

// Opts is the options for the class registry.
type Opts struct {
	// Policy to merge inherited state variables and events
	MergePolicy MergePolicy

	// Number of cached linearizations
	CacheSize int
}
