// Package fixtures loads conversation fixture files used for replays and
// regression tests of the fast path.
package fixtures

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skillrecordings/support-sub010/internal/model"
	"gopkg.in/yaml.v3"
)

// Fixture is one recorded conversation and, optionally, the decision a human
// reviewer agreed with.
type Fixture struct {
	Name           string          `yaml:"name" json:"name"`
	AppID          string          `yaml:"app_id,omitempty" json:"app_id,omitempty"`
	ConversationID string          `yaml:"conversation_id,omitempty" json:"conversation_id,omitempty"`
	Messages       []model.Message `yaml:"messages" json:"messages"`
	Expect         Expectation     `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Expectation is the reviewer-approved result for a fixture. An empty category
// with Abstain set means the fast path must not decide.
type Expectation struct {
	Category model.Category `yaml:"category,omitempty" json:"category,omitempty"`
	Action   model.Action   `yaml:"action,omitempty" json:"action,omitempty"`
	Abstain  bool           `yaml:"abstain,omitempty" json:"abstain,omitempty"`
}

// File is the on-disk layout of a fixture file.
type File struct {
	Fixtures []Fixture `yaml:"fixtures" json:"fixtures"`
}

// Thread converts the fixture into a thread ready for decisioning.
func (f Fixture) Thread() model.Thread {
	id := f.ConversationID
	if id == "" {
		id = f.Name
	}
	return model.NewThread(id, f.Messages)
}

// Load reads fixtures from a YAML or JSON file, chosen by extension.
func Load(path string) ([]Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DecodeJSON(data)
	default:
		return DecodeYAML(data)
	}
}

// DecodeYAML parses a YAML fixture document.
func DecodeYAML(data []byte) ([]Fixture, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return file.Fixtures, validate(file.Fixtures)
}

// DecodeJSON parses a JSON fixture document.
func DecodeJSON(data []byte) ([]Fixture, error) {
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return file.Fixtures, validate(file.Fixtures)
}

func validate(fixtures []Fixture) error {
	seen := make(map[string]bool, len(fixtures))
	for i, f := range fixtures {
		if f.Name == "" {
			return fmt.Errorf("fixture %d: missing name", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("fixture %q: duplicate name", f.Name)
		}
		seen[f.Name] = true
		if len(f.Messages) == 0 {
			return fmt.Errorf("fixture %q: no messages", f.Name)
		}
		if f.Expect.Category != "" && !f.Expect.Category.IsValid() {
			return fmt.Errorf("fixture %q: unknown category %q", f.Name, f.Expect.Category)
		}
		if f.Expect.Action != "" && !f.Expect.Action.IsValid() {
			return fmt.Errorf("fixture %q: unknown action %q", f.Name, f.Expect.Action)
		}
	}
	return nil
}
