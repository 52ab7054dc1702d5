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
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/walteh/qgzedit/pkg/rule"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// env.NAME is available to expressions
	envVars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if ok && hclIdentifier(name) {
			envVars[name] = cty.StringVal(value)
		}
	}
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(envVars),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		InputDir         string `hcl:"input_dir"`
		OutputDir        string `hcl:"output_dir"`
		Postfix          string `hcl:"postfix,optional"`
		ArchiveGlob      string `hcl:"archive_glob,optional"`
		MemberGlob       string `hcl:"member_glob,optional"`
		Workers          int    `hcl:"workers,optional"`
		Retries          int    `hcl:"retries,optional"`
		FallbackEncoding string `hcl:"fallback_encoding,optional"`
		Rules            []struct {
			Search  string `hcl:"search"`
			Replace string `hcl:"replace"`
			Type    string `hcl:"type,optional"`
		} `hcl:"rule,block"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := &Config{
		Postfix:          hclCfg.Postfix,
		InputDir:         hclCfg.InputDir,
		OutputDir:        hclCfg.OutputDir,
		ArchiveGlob:      hclCfg.ArchiveGlob,
		MemberGlob:       hclCfg.MemberGlob,
		Workers:          hclCfg.Workers,
		Retries:          hclCfg.Retries,
		FallbackEncoding: hclCfg.FallbackEncoding,
	}
	for _, r := range hclCfg.Rules {
		cfg.Rules = append(cfg.Rules, rule.Rule{
			Search:  r.Search,
			Replace: r.Replace,
			Type:    rule.ValueType(r.Type),
		})
	}

	return cfg, nil
}

func hclIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
