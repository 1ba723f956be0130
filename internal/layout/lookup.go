package layout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jmylchreest/zorder/internal/view"
)

// ErrUnknownView is returned when a name matches no node in the tree.
var ErrUnknownView = errors.New("unknown view")

// maxSuggestDistance bounds how far a misspelt name may be from a suggestion.
const maxSuggestDistance = 3

// Lookup finds a node by name. The error for an unknown name suggests the
// closest existing name when one is near enough.
func (t *Tree) Lookup(name string) (*view.Node, error) {
	if n, ok := t.nodes[name]; ok {
		return n, nil
	}
	if s := Suggest(name, t.Names()); s != "" {
		return nil, fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownView, name, s)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownView, name)
}

// Suggest returns the candidate closest to name by edit distance, ignoring
// case, or "" if none is within range.
func Suggest(name string, candidates []string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	lower := strings.ToLower(name)
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(lower, strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
