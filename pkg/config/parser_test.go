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
	"testing"

	"github.com/stretchr/testify/assert"
)

// 🧪 TestParserRegistration tests the parser registration system
func TestParserRegistration(t *testing.T) {
	// Save original parsers
	originalParsers := parsers
	defer func() {
		parsers = originalParsers
	}()

	parsers = nil

	p := &YAMLParser{}
	Register(p)
	assert.Len(t, parsers, 1, "should have 1 parser registered")
	assert.Same(t, p, parsers[0], "registered parser should match")
}

// 🧪 TestParserSelection tests parser selection by file extension
func TestParserSelection(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     Parser
	}{
		{
			name:     "legacy_config_json",
			filename: "config.json",
			want:     &JSONParser{},
		},
		{
			name:     "json_file",
			filename: "rules.JSON",
			want:     &JSONParser{},
		},
		{
			name:     "yaml_file",
			filename: "config.yaml",
			want:     &YAMLParser{},
		},
		{
			name:     "yml_file",
			filename: "config.yml",
			want:     &YAMLParser{},
		},
		{
			name:     "hcl_file",
			filename: "config.hcl",
			want:     &HCLParser{},
		},
		{
			name:     "unknown_extension",
			filename: "config.txt",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetParser(tt.filename)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.IsType(t, tt.want, got)
		})
	}
}
