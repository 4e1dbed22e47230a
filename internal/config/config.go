// Package config loads and validates pbxprune configuration.
//
// Configuration comes from an optional YAML file layered over Default.
// Unknown keys are rejected. The merged result is checked against an
// embedded CUE schema and then against the matching-mode requirements.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/pbxprune/internal/prune"
)

//go:embed schema.cue
var schemaCUE string

// DefaultPath is the manifest location inside a Capacitor iOS project.
const DefaultPath = "ios/App/App.xcodeproj/project.pbxproj"

// DefaultKeywords select the watchOS companion target.
var DefaultKeywords = []string{"Watch", "watchOS", "watchos"}

// Config is the effective configuration for a run.
type Config struct {
	// Path is the manifest to operate on.
	Path string `yaml:"path" json:"path"`

	// Mode is the matching strategy: identifier, keyword or both.
	Mode string `yaml:"mode" json:"mode"`

	// Identifiers are the 24-hex object identifiers of the target.
	Identifiers []string `yaml:"identifiers,omitempty" json:"identifiers,omitempty"`

	// Keywords are case-sensitive substrings naming the target.
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`

	Verify VerifyConfig `yaml:"verify,omitempty" json:"verify"`

	// Journal is the SQLite journal path. Empty disables journaling.
	Journal string `yaml:"journal,omitempty" json:"journal,omitempty"`
}

// VerifyConfig configures the post-removal check.
type VerifyConfig struct {
	// Keywords to search for. Defaults to Config.Keywords.
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`

	// MaxSamples caps the findings reported. Zero means the default.
	MaxSamples int `yaml:"max_samples,omitempty" json:"max_samples,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Path:     DefaultPath,
		Mode:     string(prune.ModeKeyword),
		Keywords: append([]string(nil), DefaultKeywords...),
		Verify: VerifyConfig{
			MaxSamples: prune.DefaultMaxSamples,
		},
	}
}

// Load reads and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read decodes a YAML configuration file over the defaults without
// validating it, so callers can apply overrides first.
// Keys absent from the file keep their default values. An empty file
// yields the defaults.
func Read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration against the schema and the
// requirements of its matching mode.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if _, err := c.Matcher(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Matcher builds the matcher the configuration describes.
func (c *Config) Matcher() (prune.Matcher, error) {
	return prune.NewMatcher(prune.Mode(c.Mode), c.Identifiers, c.Keywords)
}

// VerifyKeywords returns the keywords to verify against.
func (c *Config) VerifyKeywords() []string {
	if len(c.Verify.Keywords) > 0 {
		return c.Verify.Keywords
	}
	return c.Keywords
}

// VerifyOptions returns the verifier options for this configuration.
// Identifiers are checked only when the mode uses them.
func (c *Config) VerifyOptions() prune.VerifyOptions {
	opts := prune.VerifyOptions{
		Keywords:   c.VerifyKeywords(),
		MaxSamples: c.Verify.MaxSamples,
	}
	if prune.Mode(c.Mode) != prune.ModeKeyword {
		opts.Identifiers = c.Identifiers
	}
	return opts
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
