// Package similarity provides the string similarity capability used by the
// fuzzy scoring passes. The implementation is chosen once at startup.
package similarity

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/stockbind/backend/internal/normalize"
)

// Supported implementation names
const (
	KindTokenSet = "token_set"
	KindJaccard  = "jaccard"
)

// StringSimilarity scores two strings on a 0-100 scale
type StringSimilarity interface {
	Ratio(a, b string) float64
	Name() string
}

// New returns the implementation registered under kind. Empty selects token_set.
func New(kind string) (StringSimilarity, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindTokenSet:
		return TokenSet{}, nil
	case KindJaccard:
		return Jaccard{}, nil
	default:
		return nil, fmt.Errorf("unknown similarity %q (want %s or %s)", kind, KindTokenSet, KindJaccard)
	}
}

// TokenSet is a token-set ratio backed by Levenshtein edit distance.
// Word order and duplicate words do not affect the score, and a string whose
// words are a subset of the other's scores 100.
type TokenSet struct{}

// Name implements StringSimilarity
func (TokenSet) Name() string { return KindTokenSet }

// Ratio implements StringSimilarity
func (TokenSet) Ratio(a, b string) float64 {
	setA, setB := wordSet(a), wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for w := range setA {
		if setB[w] {
			common = append(common, w)
		} else {
			onlyA = append(onlyA, w)
		}
	}
	for w := range setB {
		if !setA[w] {
			onlyB = append(onlyB, w)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := editRatio(withA, withB)
	if base != "" {
		best = max(best, editRatio(base, withA), editRatio(base, withB))
	}
	return best
}

// Jaccard scores word-set overlap: 100 * |A∩B| / |A∪B|.
type Jaccard struct{}

// Name implements StringSimilarity
func (Jaccard) Name() string { return KindJaccard }

// Ratio implements StringSimilarity
func (Jaccard) Ratio(a, b string) float64 {
	setA, setB := wordSet(a), wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	inter := 0
	for w := range setA {
		if setB[w] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	return 100 * float64(inter) / float64(union)
}

// editRatio converts Levenshtein distance into a 0-100 similarity
func editRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 100
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(longest))
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range normalize.Words(s) {
		set[w] = true
	}
	return set
}
