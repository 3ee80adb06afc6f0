package dyncachectrl

import (
	"fmt"
	"strings"
)

// PathID identifies one of the memory paths the controller can route to.
type PathID int

// The paths, from fastest to largest.
const (
	PathDirect PathID = iota
	PathCachedSmall
	PathCachedMedium
	PathCachedLarge

	numPaths
)

var pathNames = [numPaths]string{
	PathDirect:       "direct",
	PathCachedSmall:  "cached-small",
	PathCachedMedium: "cached-medium",
	PathCachedLarge:  "cached-large",
}

func (p PathID) String() string {
	if p < 0 || p >= numPaths {
		return fmt.Sprintf("PathID(%d)", int(p))
	}

	return pathNames[p]
}

// AllPaths lists every path.
func AllPaths() []PathID {
	return []PathID{
		PathDirect, PathCachedSmall, PathCachedMedium, PathCachedLarge,
	}
}

// ParsePathID converts a name such as "direct" or "cached-small" to a PathID.
func ParsePathID(s string) (PathID, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for p, n := range pathNames {
		if n == name {
			return PathID(p), nil
		}
	}

	return 0, fmt.Errorf("unknown path %q, expecting one of %s",
		s, strings.Join(pathNames[:], ", "))
}

// PathClass groups the paths into the ones that keep state and the one that
// does not.
type PathClass int

// The path classes.
const (
	ClassDirect PathClass = iota
	ClassCached
)

func (c PathClass) String() string {
	if c == ClassCached {
		return "cached"
	}

	return "direct"
}

// ClassOf returns the class of a path.
func ClassOf(p PathID) PathClass {
	if p == PathDirect {
		return ClassDirect
	}

	return ClassCached
}

// Transition describes how the controller moves from one path to another.
type Transition int

// The transitions. Only TransitionCachedToDirect requires a flush.
const (
	TransitionNone Transition = iota
	TransitionDirectToCached
	TransitionCachedToDirect
	TransitionCachedResize
)

func (t Transition) String() string {
	switch t {
	case TransitionDirectToCached:
		return "direct->cached"
	case TransitionCachedToDirect:
		return "cached->direct"
	case TransitionCachedResize:
		return "cached->cached"
	default:
		return "none"
	}
}

// TransitionOf classifies a move from one path to another.
func TransitionOf(from, to PathID) Transition {
	fromClass, toClass := ClassOf(from), ClassOf(to)

	switch {
	case fromClass == ClassCached && toClass == ClassDirect:
		return TransitionCachedToDirect
	case fromClass == ClassDirect && toClass == ClassCached:
		return TransitionDirectToCached
	case from != to:
		return TransitionCachedResize
	default:
		return TransitionNone
	}
}
