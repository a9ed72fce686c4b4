// Package classification implements the deterministic fast-path classifier.
package classification

import (
	"fmt"
	"sync"

	"github.com/skillrecordings/support-sub010/internal/model"
)

// Rule is one row of the fast-path decision table: a conjunction of signal
// predicates and the classification it yields.
type Rule struct {
	When       func(model.ThreadSignals) bool
	Name       string
	Reasoning  string
	Category   model.Category
	Confidence float64 // Confidence reported when the rule matches (0.0-1.0)
}

// FastPath evaluates an ordered rule table top-down; the first matching rule wins.
type FastPath struct {
	rules []Rule
	mu    sync.RWMutex
}

// NewFastPath creates a classifier over the given rules, kept in the given order.
func NewFastPath(rules []Rule) (*FastPath, error) {
	if err := validateRules(rules); err != nil {
		return nil, err
	}
	return &FastPath{rules: append([]Rule(nil), rules...)}, nil
}

// NewDefaultFastPath creates a classifier over DefaultRules.
func NewDefaultFastPath() *FastPath {
	fp, err := NewFastPath(DefaultRules())
	if err != nil {
		panic(fmt.Sprintf("default fast-path rules are invalid: %v", err))
	}
	return fp
}

// Classify returns the classification of the first matching rule, or nil when
// no rule matches and the caller should consult the fallback.
func (fp *FastPath) Classify(_ model.Thread, signals model.ThreadSignals) *model.Classification {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	for _, rule := range fp.rules {
		if !rule.When(signals) {
			continue
		}
		return &model.Classification{
			Category:   rule.Category,
			Confidence: rule.Confidence,
			Signals:    signals,
			Reasoning:  rule.Reasoning,
			Rule:       rule.Name,
			Source:     model.SourceFastPath,
		}
	}

	// No match: abstain.
	return nil
}

// UpdateRules replaces the rule table.
func (fp *FastPath) UpdateRules(rules []Rule) error {
	if err := validateRules(rules); err != nil {
		return err
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.rules = append([]Rule(nil), rules...)
	return nil
}

// Rules returns a copy of the rule table in evaluation order.
func (fp *FastPath) Rules() []Rule {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	return append([]Rule(nil), fp.rules...)
}

// RuleNames returns the rule names in evaluation order.
func (fp *FastPath) RuleNames() []string {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	names := make([]string, len(fp.rules))
	for i, r := range fp.rules {
		names[i] = r.Name
	}
	return names
}

func validateRules(rules []Rule) error {
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			return fmt.Errorf("rule %d has no name", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate rule name %q", r.Name)
		}
		seen[r.Name] = true
		if r.When == nil {
			return fmt.Errorf("rule %q has no predicate", r.Name)
		}
		if !r.Category.IsValid() || r.Category == model.CategoryUnknown {
			return fmt.Errorf("rule %q has invalid category %q", r.Name, r.Category)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return fmt.Errorf("rule %q confidence %.2f out of range", r.Name, r.Confidence)
		}
	}
	return nil
}
