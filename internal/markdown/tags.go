package markdown

import (
	"regexp"
	"strings"
)

var hashtagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// ParseTagList splits a comma-separated tag field. Entries are trimmed and
// blanks dropped; order is kept and duplicates are left for the merge step.
func ParseTagList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Hashtags returns the inline #tags in body, deduplicated, in order of first
// appearance.
func Hashtags(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range hashtagRe.FindAllStringSubmatch(body, -1) {
		t := m[1]
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
