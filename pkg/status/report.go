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

package status

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 💾 WriteReport stores the summary as indented JSON at path
func WriteReport(ctx context.Context, path string, s *Summary) error {
	content, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Errorf("encoding report: %w", err)
	}

	// Create parent directories
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	if err := WriteFileAtomic(path, append(content, '\n')); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("report written")
	return nil
}

// WriteFileAtomic writes next to path and renames into place
func WriteFileAtomic(path string, content []byte) error {
	tempPath := path + ".tmp"

	// Write to temp file
	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}

	// Rename temp file to target (atomic operation)
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}
