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

package text

import (
	"context"
	"io"

	"gitlab.com/tozd/go/errors"
)

var _ TextReplacer = (*IsolatingReplacer)(nil)

// IsolatingReplacer implements TextReplacer on top of Apply
type IsolatingReplacer struct{}

// NewIsolatingReplacer creates a new IsolatingReplacer
func NewIsolatingReplacer() *IsolatingReplacer {
	return &IsolatingReplacer{}
}

// ReplaceText implements TextReplacer.ReplaceText
func (r *IsolatingReplacer) ReplaceText(ctx context.Context, content io.Reader, rules []ReplacementRule) (*ReplacementResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Errorf("replacing text: %w", err)
	}

	originalContent, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}

	original := string(originalContent)
	modified, report := Apply(original, rules)

	return &ReplacementResult{
		WasModified:      modified != original,
		ReplacementCount: report.Total(),
		Report:           report,
		OriginalContent:  originalContent,
		ModifiedContent:  []byte(modified),
	}, nil
}
