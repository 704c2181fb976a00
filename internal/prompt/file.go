package prompt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk shape of an exported template set.
type fileFormat struct {
	Templates map[Task]string `yaml:"templates"`
	Revisions []Revision      `yaml:"revisions,omitempty"`
}

// LoadFile reads a template set written by SaveFile. A missing file yields
// an empty set.
func LoadFile(path string) (map[Task]string, error) {
	f, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return f.Templates, nil
}

// Load applies the template set at path to l and restores its revision log.
// A missing file leaves l unchanged.
func Load(path string, l *Learner) error {
	f, err := readFile(path)
	if err != nil {
		return err
	}
	if err := l.Apply(f.Templates); err != nil {
		return err
	}
	l.mu.Lock()
	l.revisions = append(append([]Revision{}, f.Revisions...), l.revisions...)
	l.mu.Unlock()
	return nil
}

func readFile(path string) (fileFormat, error) {
	var f fileFormat
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fileFormat{Templates: map[Task]string{}}, nil
	}
	if err != nil {
		return f, fmt.Errorf("read prompts: %w", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("parse prompts %s: %w", path, err)
	}
	if f.Templates == nil {
		f.Templates = map[Task]string{}
	}
	return f, nil
}

// SaveFile writes the learner's templates and revision log to path.
func SaveFile(path string, l *Learner) error {
	data, err := yaml.Marshal(fileFormat{Templates: l.Templates(), Revisions: l.Revisions()})
	if err != nil {
		return fmt.Errorf("encode prompts: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create prompts dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prompts: %w", err)
	}
	return os.Rename(tmp, path)
}
