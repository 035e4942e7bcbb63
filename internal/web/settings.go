package web

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings holds the page text. Fields left empty in the YAML file keep their defaults.
type Settings struct {
	Title       string `yaml:"title"`
	Heading     string `yaml:"heading"`
	Greeting    string `yaml:"greeting"`
	Placeholder string `yaml:"placeholder"`
	// MarkedURL is the script URL of the Markdown renderer used by the chat view.
	MarkedURL string `yaml:"marked_url"`
}

func DefaultSettings() Settings {
	return Settings{
		Title:       "Gemma 3 Local Assistant",
		Heading:     "Gemma 3 Assistant (12B)",
		Greeting:    "Hello! I'm Gemma 3. How can I help you today?",
		Placeholder: "Type your message...",
		MarkedURL:   "https://cdn.jsdelivr.net/npm/marked/marked.min.js",
	}
}

// LoadSettings reads overrides from path. A missing file is not an error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if strings.TrimSpace(path) == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read page settings: %w", err)
	}
	var override Settings
	if err := yaml.Unmarshal(b, &override); err != nil {
		return s, fmt.Errorf("parse page settings %s: %w", path, err)
	}
	s.merge(override)
	return s, nil
}

func (s *Settings) merge(o Settings) {
	if v := strings.TrimSpace(o.Title); v != "" {
		s.Title = v
	}
	if v := strings.TrimSpace(o.Heading); v != "" {
		s.Heading = v
	}
	if v := strings.TrimSpace(o.Greeting); v != "" {
		s.Greeting = v
	}
	if v := strings.TrimSpace(o.Placeholder); v != "" {
		s.Placeholder = v
	}
	if v := strings.TrimSpace(o.MarkedURL); v != "" {
		s.MarkedURL = v
	}
}
