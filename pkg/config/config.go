// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/qgzedit/pkg/rule"
	"gitlab.com/tozd/go/errors"
)

// ⚙️ Defaults applied by Validate
const (
	DefaultPostfix          = "_MODIFICADO"
	DefaultArchiveGlob      = "*.qgz"
	DefaultMemberGlob       = "**/*.qgs"
	DefaultFallbackEncoding = "latin-1"
)

// FallbackEncodings lists the accepted fallback_encoding values.
var FallbackEncodings = []string{"latin-1", "iso-8859-1", "windows-1252", "cp1252"}

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config is the immutable description of one batch run
type Config struct {
	Rules            rule.Set `json:"rules" yaml:"rules"`
	Postfix          string   `json:"postfix,omitempty" yaml:"postfix,omitempty"`
	InputDir         string   `json:"input_dir" yaml:"input_dir"`
	OutputDir        string   `json:"output_dir" yaml:"output_dir"`
	ArchiveGlob      string   `json:"archive_glob,omitempty" yaml:"archive_glob,omitempty"`
	MemberGlob       string   `json:"member_glob,omitempty" yaml:"member_glob,omitempty"`
	Workers          int      `json:"workers,omitempty" yaml:"workers,omitempty"`
	Retries          int      `json:"retries,omitempty" yaml:"retries,omitempty"`
	FallbackEncoding string   `json:"fallback_encoding,omitempty" yaml:"fallback_encoding,omitempty"`

	location string
	warnings []rule.Warning
}

// 🔧 Override mutates a parsed config before validation
type Override func(cfg *Config)

// 🎯 Load reads, parses and validates the configuration at path.
// Every failure is a rule.ConfigurationError.
func Load(ctx context.Context, path string, overrides ...Override) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rule.WrapConfigurationError("config", errors.Errorf("reading config file: %w", err))
	}

	p := GetParser(path)
	if p == nil {
		return nil, rule.NewConfigurationError(0, "config", path, "no parser found for file")
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		if rule.IsConfigurationError(err) {
			return nil, err
		}
		return nil, rule.WrapConfigurationError("config", errors.Errorf("parsing config: %w", err))
	}
	location, err := filepath.Abs(path)
	if err != nil {
		return nil, rule.WrapConfigurationError("config", errors.Errorf("resolving config path: %w", err))
	}
	cfg.location = location

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debug().
		Int("rules", len(cfg.Rules)).
		Str("input_dir", cfg.InputDir).
		Str("output_dir", cfg.OutputDir).
		Msg("configuration loaded")

	return cfg, nil
}

// 🔍 Validate applies defaults, resolves directories relative to the config
// file and validates every rule. It fails on the first problem. Running it
// again on a validated config changes nothing.
func (cfg *Config) Validate() error {
	if cfg.InputDir == "" {
		return rule.NewConfigurationError(0, "input_dir", "", "is required")
	}
	if cfg.OutputDir == "" {
		return rule.NewConfigurationError(0, "output_dir", "", "is required")
	}

	base := "."
	if cfg.location != "" {
		base = filepath.Dir(cfg.location)
	}
	cfg.InputDir = resolve(base, cfg.InputDir)
	cfg.OutputDir = resolve(base, cfg.OutputDir)

	if cfg.Postfix == "" {
		cfg.Postfix = DefaultPostfix
	}
	if strings.ContainsAny(cfg.Postfix, `/\`) {
		return rule.NewConfigurationError(0, "postfix", cfg.Postfix, "must not contain path separators")
	}
	if cfg.ArchiveGlob == "" {
		cfg.ArchiveGlob = DefaultArchiveGlob
	}
	if cfg.MemberGlob == "" {
		cfg.MemberGlob = DefaultMemberGlob
	}
	for field, pattern := range map[string]string{"archive_glob": cfg.ArchiveGlob, "member_glob": cfg.MemberGlob} {
		if !doublestar.ValidatePattern(pattern) {
			return rule.NewConfigurationError(0, field, pattern, "invalid glob pattern")
		}
	}

	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.Workers < 0 {
		return rule.NewConfigurationError(0, "workers", fmt.Sprint(cfg.Workers), "must be at least 1")
	}
	if cfg.Retries < 0 {
		return rule.NewConfigurationError(0, "retries", fmt.Sprint(cfg.Retries), "must not be negative")
	}

	if cfg.FallbackEncoding == "" {
		cfg.FallbackEncoding = DefaultFallbackEncoding
	}
	cfg.FallbackEncoding = strings.ToLower(cfg.FallbackEncoding)
	if !isFallbackEncoding(cfg.FallbackEncoding) {
		return rule.NewConfigurationError(0, "fallback_encoding", cfg.FallbackEncoding,
			"must be one of: "+strings.Join(FallbackEncodings, ", "))
	}

	warnings, err := rule.Validate(cfg.Rules)
	if err != nil {
		return err
	}
	cfg.warnings = warnings

	return nil
}

// Warnings returns the rule warnings found by Validate.
func (cfg *Config) Warnings() []rule.Warning {
	return cfg.warnings
}

// Location returns the absolute path the config was loaded from.
func (cfg *Config) Location() string {
	return cfg.location
}

// OutputName returns the archive name written for the given input archive.
func (cfg *Config) OutputName(input string) string {
	name := filepath.Base(input)
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + cfg.Postfix + ext
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s -> %s (%d rules, postfix %q)", cfg.InputDir, cfg.OutputDir, len(cfg.Rules), cfg.Postfix)
}

func resolve(base, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(base, dir)
}

func isFallbackEncoding(name string) bool {
	for _, enc := range FallbackEncodings {
		if enc == name {
			return true
		}
	}
	return false
}
