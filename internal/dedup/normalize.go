// Package dedup groups company observations that name the same company and
// folds each group into a single record.
package dedup

import (
	"regexp"
	"strings"
	"unicode"
)

// entitySuffixes are stripped in order, each anchored to the end of the
// name. Order matters: "acme holdings inc" loses "inc" before "holdings".
var entitySuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*,?\s*inc\.?$`),
	regexp.MustCompile(`(?i)\s*,?\s*llc\.?$`),
	regexp.MustCompile(`(?i)\s*,?\s*ltd\.?$`),
	regexp.MustCompile(`(?i)\s*,?\s*corp\.?$`),
	regexp.MustCompile(`(?i)\s*,?\s*corporation$`),
	regexp.MustCompile(`(?i)\s*,?\s*incorporated$`),
	regexp.MustCompile(`(?i)\s*,?\s*limited$`),
	regexp.MustCompile(`(?i)\s*,?\s*l\.?l\.?c\.?$`),
	regexp.MustCompile(`(?i)\s*,?\s*company$`),
	regexp.MustCompile(`(?i)\s*,?\s*co\.?$`),
	regexp.MustCompile(`(?i)\s*,?\s*holdings?$`),
	regexp.MustCompile(`(?i)\s*,?\s*group$`),
	regexp.MustCompile(`(?i)\s*,?\s*partners?$`),
	regexp.MustCompile(`(?i)\s*,?\s*ventures?$`),
	regexp.MustCompile(`(?i)\s*,?\s*capital$`),
	regexp.MustCompile(`(?i)\s*,?\s*fund$`),
	regexp.MustCompile(`(?i)\s*,?\s*lp$`),
	regexp.MustCompile(`(?i)\s*,?\s*l\.?p\.?$`),
}

// nonWord matches anything other than letters, digits, underscore or ASCII
// whitespace. Unicode spaces are folded to ' ' before it runs.
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// Normalize reduces a company name to its comparison form: lower-cased,
// entity suffixes removed, punctuation dropped, whitespace collapsed.
// Suffixes are matched as trailing text, not whole words, so "Disco" loses
// its "co" just as "Acme Co" does.
func Normalize(name string) string {
	if name == "" {
		return ""
	}

	n := strings.TrimSpace(strings.Map(foldSpace, strings.ToLower(name)))
	for _, re := range entitySuffixes {
		n = re.ReplaceAllString(n, "")
	}
	n = nonWord.ReplaceAllString(n, "")

	return strings.Join(strings.Fields(n), " ")
}

// foldSpace maps every Unicode space (NBSP, \v, ideographic space, ...) to
// an ASCII space so suffix anchoring and collapsing treat them alike.
func foldSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return ' '
	}
	return r
}
