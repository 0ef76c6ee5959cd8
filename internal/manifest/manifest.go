// Package manifest loads declarative story manifests from YAML and replays
// them through the registration facade. A manifest file describes one kind:
// its kind-level decorators and parameters, then its stories. Decorators are
// referenced by name and resolved against a host-supplied catalog.
package manifest

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest errors.
var (
	// ErrNoKind is returned when a manifest has no kind name.
	ErrNoKind = errors.New("manifest has no kind")

	// ErrNoStories is returned when a manifest declares no stories.
	ErrNoStories = errors.New("manifest has no stories")

	// ErrUnnamedStory is returned when a story entry has no name.
	ErrUnnamedStory = errors.New("story has no name")

	// ErrDuplicateName is returned when two stories in one manifest share a name.
	ErrDuplicateName = errors.New("duplicate story name in manifest")

	// ErrUnknownDecorator is returned when a decorator name is not in the catalog.
	ErrUnknownDecorator = errors.New("unknown decorator")
)

// Manifest is one kind's worth of story declarations.
type Manifest struct {
	Kind       string         `yaml:"kind"`
	Parameters map[string]any `yaml:"parameters"`
	Decorators []string       `yaml:"decorators"`
	Stories    []Story        `yaml:"stories"`
}

// Story is one declared story. Text is the render template; ${key}
// placeholders expand against the story's effective parameters at render
// time. An empty Text renders as the story name.
type Story struct {
	Name       string         `yaml:"name"`
	Text       string         `yaml:"text"`
	ID         string         `yaml:"id"`
	Parameters map[string]any `yaml:"parameters"`
	Decorators []string       `yaml:"decorators"`
}

// Parse decodes and validates a manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (m *Manifest) validate() error {
	if m.Kind == "" {
		return ErrNoKind
	}
	if len(m.Stories) == 0 {
		return fmt.Errorf("%w: kind %q", ErrNoStories, m.Kind)
	}
	seen := make(map[string]bool, len(m.Stories))
	for i, st := range m.Stories {
		if st.Name == "" {
			return fmt.Errorf("%w: kind %q, story index %d", ErrUnnamedStory, m.Kind, i)
		}
		if seen[st.Name] {
			return fmt.Errorf("%w: kind %q, story %q", ErrDuplicateName, m.Kind, st.Name)
		}
		seen[st.Name] = true
	}
	return nil
}
