package reconcile

import (
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// containmentScore is the similarity given when one description contains
// the other, e.g. "AMZN MKTP US*2K4" and "amzn mktp".
const containmentScore = 0.9

// minContainment is the shortest normalized text that counts as contained.
const minContainment = 4

// similarity scores two descriptions in [0, 1]: the best of token overlap,
// edit distance and containment.
func similarity(a, b string) float64 {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	best := jaccard(strings.Fields(na), strings.Fields(nb))
	if lev := levenshteinRatio(na, nb); lev > best {
		best = lev
	}
	short, long := na, nb
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) >= minContainment && strings.Contains(long, short) && containmentScore > best {
		best = containmentScore
	}
	return best
}

// normalizeText lowercases s, turns punctuation into spaces and collapses runs of spaces.
func normalizeText(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

func jaccard(a, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, w := range a {
		set[w] = true
	}
	inter := 0
	union := len(set)
	seen := make(map[string]bool, len(b))
	for _, w := range b {
		if seen[w] {
			continue
		}
		seen[w] = true
		if set[w] {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func levenshteinRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 0
	}
	d := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)
	return clamp01(1 - float64(d)/float64(longest))
}
