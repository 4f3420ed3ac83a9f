package dedup

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// indel weights a substitution as a deletion plus an insertion, which makes
// the distance comparable to the combined length of both strings.
var indel = levenshtein.NewParams().SubCost(2)

// Similarity scores two normalized names in [0, 100]. Empty names never
// match anything, including each other.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	return TokenSortRatio(a, b)
}

// TokenSortRatio sorts the whitespace-separated tokens of each string,
// rejoins them with single spaces and returns
// 100 * (1 - distance / (len(a) + len(b))).
func TokenSortRatio(a, b string) float64 {
	sa, sb := sortTokens(a), sortTokens(b)

	total := utf8.RuneCountInString(sa) + utf8.RuneCountInString(sb)
	if total == 0 {
		return 100
	}

	dist := levenshtein.Distance(sa, sb, indel)
	ratio := 100 * (1 - float64(dist)/float64(total))

	switch {
	case ratio < 0:
		return 0
	case ratio > 100:
		return 100
	}
	return ratio
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
