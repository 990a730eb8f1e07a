package blocking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/SoarinFerret/FocusWarden/internal/session"
)

// Applier installs a rule set, replacing whatever was installed before.
type Applier interface {
	Replace(ctx context.Context, rules RuleSet) error
}

// Engine recomputes and applies the redirect rules whenever the clock or
// the block list changes.
type Engine struct {
	applier     Applier
	redirectURL string
	logger      *slog.Logger

	mu      sync.RWMutex
	applied RuleSet
}

// NewEngine creates an engine. A nil applier disables installation but
// still tracks the derived rule set.
func NewEngine(applier Applier, redirectURL string, logger *slog.Logger) *Engine {
	if applier == nil {
		applier = NopApplier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		applier:     applier,
		redirectURL: redirectURL,
		logger:      logger,
		applied:     RuleSet{},
	}
}

// Recompute derives the full rule set and hands it to the applier. On
// failure the previously applied set is kept and the error is only logged.
func (e *Engine) Recompute(ctx context.Context, running bool, mode session.Mode, list []string) {
	rules := Derive(running, mode, list, e.redirectURL)
	if err := e.applier.Replace(ctx, rules); err != nil {
		e.logger.Error("apply blocking rules", "rules", len(rules), "err", err)
		return
	}

	e.mu.Lock()
	e.applied = rules
	e.mu.Unlock()

	if len(rules) > 0 {
		e.logger.Debug("blocking enabled", "domains", len(list), "rules", len(rules))
	} else {
		e.logger.Debug("blocking disabled", "running", running, "mode", mode, "domains", len(list))
	}
}

// Applied returns a copy of the last successfully installed rule set.
func (e *Engine) Applied() RuleSet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(RuleSet, len(e.applied))
	copy(out, e.applied)
	return out
}

// NopApplier accepts every rule set and installs nothing.
type NopApplier struct{}

func (NopApplier) Replace(context.Context, RuleSet) error { return nil }

// FileApplier writes the rule set as a JSON array to Path. A browser
// companion loads the file and swaps its dynamic rules for the contents.
type FileApplier struct {
	Path string
}

func (f FileApplier) Replace(_ context.Context, rules RuleSet) error {
	if rules == nil {
		rules = RuleSet{}
	}
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("create rules directory: %w", err)
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write rules file: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		return fmt.Errorf("replace rules file: %w", err)
	}
	return nil
}

// LoadRules reads a rule set previously written by FileApplier.
func LoadRules(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules RuleSet
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	return rules, nil
}
