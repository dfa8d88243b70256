// Package promptfile loads prompt manifests: a YAML frontmatter block fenced
// by "---" lines, followed by a template body in prompt/ syntax. Manifests
// keep the prompt, its default parameters and its tool bindings in one
// reviewable file.
package promptfile

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/promptwire/promptwire/prompt"
	"github.com/promptwire/promptwire/provider"
)

// ErrInvalidManifest reports a manifest that fails structural validation.
var ErrInvalidManifest = fmt.Errorf("promptfile: invalid manifest")

// frontmatter is the YAML shape bound directly to domain types.
type frontmatter struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Provider    string   `yaml:"provider"`
	Model       string   `yaml:"model"`
	Params      struct {
		Temperature   *float64 `yaml:"temperature"`
		MaxTokens     *int64   `yaml:"max_tokens"`
		TopP          *float64 `yaml:"top_p"`
		StopSequences []string `yaml:"stop_sequences"`
	} `yaml:"params"`
	Args     []string `yaml:"args"`
	Tools    []string `yaml:"tools"`
	JSONMode bool     `yaml:"json_mode"`
}

// File is a parsed prompt manifest.
type File struct {
	Name        string
	Description string
	Provider    string
	Model       string
	Params      provider.CallParams
	Args        []string // required argument names
	Tools       []string // tool names to bind at call time
	JSONMode    bool
	Template    *prompt.Template
}

// ParseBytes parses a manifest from raw bytes.
func ParseBytes(data []byte) (*File, error) {
	front, body, err := splitFrontmatter(string(data))
	if err != nil {
		return nil, err
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(front), &fm); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if fm.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidManifest)
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: missing template body", ErrInvalidManifest)
	}

	tmpl, err := prompt.Parse(body)
	if err != nil {
		return nil, err
	}

	return &File{
		Name:        fm.Name,
		Description: fm.Description,
		Provider:    fm.Provider,
		Model:       fm.Model,
		Params: provider.CallParams{
			Model:         fm.Model,
			Temperature:   fm.Params.Temperature,
			MaxTokens:     fm.Params.MaxTokens,
			TopP:          fm.Params.TopP,
			StopSequences: fm.Params.StopSequences,
		},
		Args:     fm.Args,
		Tools:    fm.Tools,
		JSONMode: fm.JSONMode,
		Template: tmpl,
	}, nil
}

// ParseFile reads and parses a manifest file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is validated by caller
	if err != nil {
		return nil, fmt.Errorf("promptfile: read file: %w", err)
	}
	return ParseBytes(data)
}

// ParseFS reads and parses a manifest from fs.FS (e.g. embed.FS).
func ParseFS(fsys fs.FS, name string) (*File, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("promptfile: read fs: %w", err)
	}
	return ParseBytes(data)
}

// CheckArgs verifies that every declared argument is present.
func (f *File) CheckArgs(args map[string]interface{}) error {
	for _, name := range f.Args {
		if _, ok := args[name]; !ok {
			return &prompt.MissingArgumentError{Field: name}
		}
	}
	return nil
}

// splitFrontmatter separates the fenced YAML block from the template body.
// A manifest without a frontmatter fence is all body.
func splitFrontmatter(source string) (front, body string, err error) {
	normalized := strings.ReplaceAll(source, "\r\n", "\n")
	if !strings.HasPrefix(normalized, "---\n") {
		return "", normalized, nil
	}
	rest := normalized[len("---\n"):]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return "", "", fmt.Errorf("%w: unterminated frontmatter", ErrInvalidManifest)
	}
	front = rest[:idx]
	body = rest[idx+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")
	return front, body, nil
}
