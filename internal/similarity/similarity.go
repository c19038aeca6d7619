// Package similarity scores how alike two company or facility names are, on
// a 0-1 scale, and picks the best candidate above a threshold.
package similarity

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/rotisserie/eris"
)

// Func scores two names in [0, 1]; 1 means identical after normalization.
type Func interface {
	Similarity(a, b string) float64
}

// Algorithm names accepted by ByName.
const (
	AlgorithmTokenSet    = "token_set"
	AlgorithmLevenshtein = "levenshtein"
)

// ByName returns the similarity function for a configured algorithm name.
func ByName(name string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", AlgorithmTokenSet:
		return TokenSet{}, nil
	case AlgorithmLevenshtein:
		return Levenshtein{}, nil
	}
	return nil, eris.Errorf("similarity: unknown algorithm %q", name)
}

// Levenshtein is normalized edit-distance similarity over the full names.
type Levenshtein struct{}

// Similarity implements Func.
func (Levenshtein) Similarity(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return levenshtein.Similarity(a, b, nil)
}

// TokenSet compares names by their word sets so word order and repeated
// words do not matter. The shared words are compared against each side's
// remainder with edit-distance similarity and the best pairing wins, which
// lets "Nord Energie" match "Kraftwerk Nord Energie AG".
type TokenSet struct{}

// Similarity implements Func.
func (TokenSet) Similarity(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	ta, tb := tokens(a), tokens(b)
	var common, onlyA, onlyB []string
	for t := range ta {
		if _, ok := tb[t]; ok {
			common = append(common, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if _, ok := ta[t]; !ok {
			onlyB = append(onlyB, t)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := levenshtein.Similarity(withA, withB, nil)
	if base != "" {
		best = max(best,
			levenshtein.Similarity(base, withA, nil),
			levenshtein.Similarity(base, withB, nil))
	}
	return best
}

// Match is one candidate scored against a query name.
type Match struct {
	Index int
	Name  string
	Score float64
}

// BestMatch returns the candidate most similar to name whose score reaches
// threshold. Ties go to the earliest candidate. ok is false when nothing
// qualifies.
func BestMatch(f Func, name string, candidates []string, threshold float64) (Match, bool) {
	best := Match{Index: -1}
	for i, c := range candidates {
		s := f.Similarity(name, c)
		if s > best.Score {
			best = Match{Index: i, Name: c, Score: s}
		}
	}
	if best.Index < 0 || best.Score < threshold {
		return Match{}, false
	}
	return best, true
}

// Rank scores every candidate and returns those reaching threshold, most
// similar first.
func Rank(f Func, name string, candidates []string, threshold float64) []Match {
	var out []Match
	for i, c := range candidates {
		if s := f.Similarity(name, c); s >= threshold && s > 0 {
			out = append(out, Match{Index: i, Name: c, Score: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
