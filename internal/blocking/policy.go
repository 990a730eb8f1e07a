package blocking

import (
	"net/url"

	"github.com/SoarinFerret/FocusWarden/internal/session"
)

const (
	ResourceMainFrame = "main_frame"
	ActionRedirect    = "redirect"
)

// Redirect is where a blocked navigation is sent.
type Redirect struct {
	URL string `json:"url"`
}

// Action of a rule. Only redirects are produced.
type Action struct {
	Type     string   `json:"type"`
	Redirect Redirect `json:"redirect"`
}

// Condition selects the navigations a rule applies to.
type Condition struct {
	URLFilter     string   `json:"urlFilter"`
	ResourceTypes []string `json:"resourceTypes"`
}

// Rule is one declarative redirect rule.
type Rule struct {
	ID        int       `json:"id"`
	Priority  int       `json:"priority"`
	Action    Action    `json:"action"`
	Condition Condition `json:"condition"`
}

// RuleSet is a complete set of rules. It is always replaced as a whole.
type RuleSet []Rule

// Active reports whether blocking applies: a running focus phase with at
// least one blocked domain.
func Active(running bool, mode session.Mode, list []string) bool {
	return running && mode == session.ModeFocus && len(list) > 0
}

// Derive computes the rule set for the given clock state. Each domain gets
// a bare and a www. rule redirecting to redirectURL with the domain in the
// "site" query parameter. The result is empty when blocking is inactive.
func Derive(running bool, mode session.Mode, list []string, redirectURL string) RuleSet {
	if !Active(running, mode, list) {
		return RuleSet{}
	}

	rules := make(RuleSet, 0, len(list)*2)
	for i, domain := range list {
		target := BlockedPageURL(redirectURL, domain)
		for j, filter := range []string{"*://" + domain + "/*", "*://www." + domain + "/*"} {
			rules = append(rules, Rule{
				ID:       i*2 + j + 1,
				Priority: 1,
				Action: Action{
					Type:     ActionRedirect,
					Redirect: Redirect{URL: target},
				},
				Condition: Condition{
					URLFilter:     filter,
					ResourceTypes: []string{ResourceMainFrame},
				},
			})
		}
	}
	return rules
}

// BlockedPageURL appends the site parameter to base.
func BlockedPageURL(base, domain string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?site=" + url.QueryEscape(domain)
	}
	q := u.Query()
	q.Set("site", domain)
	u.RawQuery = q.Encode()
	return u.String()
}
