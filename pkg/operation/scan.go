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

package operation

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔍 Scan lists the regular files directly inside dir whose name matches
// glob, case-insensitively. The result is sorted.
func Scan(ctx context.Context, dir, glob string) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Errorf("reading input directory: %w", err)
	}

	pattern := strings.ToLower(glob)

	var archives []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		ok, err := doublestar.Match(pattern, strings.ToLower(entry.Name()))
		if err != nil {
			return nil, errors.Errorf("matching archive glob %q: %w", glob, err)
		}
		if !ok {
			continue
		}

		archives = append(archives, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(archives)

	logger.Debug().
		Str("dir", dir).
		Str("glob", glob).
		Int("archives", len(archives)).
		Msg("input scanned")

	return archives, nil
}
