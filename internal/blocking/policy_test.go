package blocking

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoarinFerret/FocusWarden/internal/session"
)

const testRedirect = "http://127.0.0.1:7425/blocked"

func TestActive(t *testing.T) {
	list := []string{"example.com"}
	tests := []struct {
		name     string
		running  bool
		mode     session.Mode
		list     []string
		expected bool
	}{
		{"Running focus with sites", true, session.ModeFocus, list, true},
		{"Paused focus", false, session.ModeFocus, list, false},
		{"Running short break", true, session.ModeShortBreak, list, false},
		{"Running long break", true, session.ModeLongBreak, list, false},
		{"Empty block list", true, session.ModeFocus, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Active(tt.running, tt.mode, tt.list))
			rules := Derive(tt.running, tt.mode, tt.list, testRedirect)
			assert.Equal(t, tt.expected, len(rules) > 0, "rule set must be non-empty exactly when active")
		})
	}
}

func TestDerive_TwoRulesPerDomain(t *testing.T) {
	rules := Derive(true, session.ModeFocus, []string{"example.com", "reddit.com"}, testRedirect)
	require.Len(t, rules, 4)

	assert.Equal(t, 1, rules[0].ID)
	assert.Equal(t, "*://example.com/*", rules[0].Condition.URLFilter)
	assert.Equal(t, 2, rules[1].ID)
	assert.Equal(t, "*://www.example.com/*", rules[1].Condition.URLFilter)
	assert.Equal(t, 3, rules[2].ID)
	assert.Equal(t, "*://reddit.com/*", rules[2].Condition.URLFilter)
	assert.Equal(t, 4, rules[3].ID)
	assert.Equal(t, "*://www.reddit.com/*", rules[3].Condition.URLFilter)

	for _, r := range rules {
		assert.Equal(t, 1, r.Priority)
		assert.Equal(t, ActionRedirect, r.Action.Type)
		assert.Equal(t, []string{ResourceMainFrame}, r.Condition.ResourceTypes)
	}
	assert.Equal(t, testRedirect+"?site=example.com", rules[0].Action.Redirect.URL)
	assert.Equal(t, testRedirect+"?site=reddit.com", rules[3].Action.Redirect.URL)
}

func TestBlockedPageURL(t *testing.T) {
	assert.Equal(t, "http://localhost/blocked?site=a.com", BlockedPageURL("http://localhost/blocked", "a.com"))
	assert.Equal(t, "http://localhost/blocked?lang=en&site=a.com", BlockedPageURL("http://localhost/blocked?lang=en", "a.com"))
}

type recordingApplier struct {
	calls [][]Rule
	err   error
}

func (r *recordingApplier) Replace(_ context.Context, rules RuleSet) error {
	r.calls = append(r.calls, rules)
	return r.err
}

func TestEngine_RecomputeReplacesWholeSet(t *testing.T) {
	applier := &recordingApplier{}
	e := NewEngine(applier, testRedirect, nil)
	ctx := context.Background()

	e.Recompute(ctx, true, session.ModeFocus, []string{"example.com"})
	assert.Len(t, e.Applied(), 2)

	// Pausing clears both rules.
	e.Recompute(ctx, false, session.ModeFocus, []string{"example.com"})
	assert.Empty(t, e.Applied())

	// A new block list never keeps rules from the previous one.
	e.Recompute(ctx, true, session.ModeFocus, []string{"example.com"})
	e.Recompute(ctx, true, session.ModeFocus, []string{"reddit.com"})
	applied := e.Applied()
	require.Len(t, applied, 2)
	assert.Equal(t, "*://reddit.com/*", applied[0].Condition.URLFilter)

	assert.Len(t, applier.calls, 4)
}

func TestEngine_FailureKeepsPreviousRules(t *testing.T) {
	applier := &recordingApplier{}
	e := NewEngine(applier, testRedirect, nil)
	ctx := context.Background()

	e.Recompute(ctx, true, session.ModeFocus, []string{"example.com"})
	require.Len(t, e.Applied(), 2)

	applier.err = errors.New("platform refused")
	assert.NotPanics(t, func() {
		e.Recompute(ctx, false, session.ModeFocus, []string{"example.com"})
	})
	assert.Len(t, e.Applied(), 2, "failed install leaves prior state in place")
}

func TestFileApplier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules", "rules.json")
	applier := FileApplier{Path: path}
	ctx := context.Background()

	rules := Derive(true, session.ModeFocus, []string{"example.com"}, testRedirect)
	require.NoError(t, applier.Replace(ctx, rules))

	loaded, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, rules, loaded)

	require.NoError(t, applier.Replace(ctx, nil))
	loaded, err = LoadRules(path)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
