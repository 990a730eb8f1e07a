package blocking

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmptyDomain is returned when input normalizes to nothing.
var ErrEmptyDomain = errors.New("empty domain")

var schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Normalize reduces user input such as "https://www.Example.com:8080/path"
// to a bare lower-case domain ("example.com").
func Normalize(raw string) (string, error) {
	domain := strings.TrimSpace(raw)
	domain = schemePrefix.ReplaceAllString(domain, "")
	if i := strings.IndexAny(domain, "/?#"); i >= 0 {
		domain = domain[:i]
	}
	if i := strings.LastIndex(domain, "@"); i >= 0 {
		domain = domain[i+1:]
	}
	if i := strings.Index(domain, ":"); i >= 0 {
		domain = domain[:i]
	}
	domain = strings.ToLower(strings.TrimSuffix(domain, "."))
	domain = strings.TrimPrefix(domain, "www.")
	if domain == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptyDomain, raw)
	}
	return domain, nil
}

// AddDomain returns list with raw appended in normalized form. The second
// return value is false when the domain was already present.
func AddDomain(list []string, raw string) ([]string, bool, error) {
	domain, err := Normalize(raw)
	if err != nil {
		return list, false, err
	}
	for _, existing := range list {
		if existing == domain {
			return list, false, nil
		}
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, list...)
	return append(out, domain), true, nil
}

// RemoveDomain returns list without raw. The second return value is false
// when the domain was not present.
func RemoveDomain(list []string, raw string) ([]string, bool) {
	domain, err := Normalize(raw)
	if err != nil {
		domain = strings.TrimSpace(raw)
	}
	out := make([]string, 0, len(list))
	removed := false
	for _, existing := range list {
		if existing == domain {
			removed = true
			continue
		}
		out = append(out, existing)
	}
	return out, removed
}

// Clean normalizes and de-duplicates a stored list, keeping first-seen
// order and dropping entries that do not normalize.
func Clean(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, raw := range list {
		domain, err := Normalize(raw)
		if err != nil {
			continue
		}
		if _, ok := seen[domain]; ok {
			continue
		}
		seen[domain] = struct{}{}
		out = append(out, domain)
	}
	return out
}
