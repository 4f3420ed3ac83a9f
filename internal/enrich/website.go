package enrich

import (
	"net/url"
	"regexp"
	"strings"
)

// notFoundPhrases mark an answer that has no website.
var notFoundPhrases = []string{"not_found", "not found", "unable to find", "could not find", "n/a", "unknown"}

// excludedDomains are profile, news and search sites that are never a
// company's own website.
var excludedDomains = []string{
	"linkedin.com", "twitter.com", "facebook.com", "instagram.com",
	"youtube.com", "crunchbase.com", "pitchbook.com", "bloomberg.com",
	"sec.gov", "wikipedia.org", "google.com", "bing.com",
}

var (
	urlRe    = regexp.MustCompile(`https?://[^\s<>"')\]]+(?:\.[^\s<>"')\]]+)+`)
	domainRe = regexp.MustCompile(`^(?:www\.)?[a-zA-Z0-9-]+(?:\.[a-zA-Z]{2,})+$`)
	tldRe    = regexp.MustCompile(`\.[a-zA-Z]{2,}(?:/|$)`)
)

// ExtractWebsite pulls a company website out of a lookup answer. The first
// http(s) URL wins; an answer that is only a bare domain gets https://.
// Answers that say the site was not found yield "".
func ExtractWebsite(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return ""
	}

	lower := strings.ToLower(answer)
	for _, p := range notFoundPhrases {
		if strings.Contains(lower, p) {
			return ""
		}
	}

	if m := urlRe.FindString(answer); m != "" {
		if u := strings.TrimRight(m, ".,;:"); IsValidWebsite(u) {
			return u
		}
	}

	if domainRe.MatchString(answer) {
		if u := "https://" + answer; IsValidWebsite(u) {
			return u
		}
	}
	return ""
}

// IsValidWebsite requires an http(s) scheme and a TLD, and rejects hosts on
// excludedDomains or their subdomains.
func IsValidWebsite(raw string) bool {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return false
	}
	if !tldRe.MatchString(raw) {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, d := range excludedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return false
		}
	}
	return true
}
