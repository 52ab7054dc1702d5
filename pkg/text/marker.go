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
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// markerDelim brackets every marker. NUL is not a legal XML 1.0 character, so
// it cannot occur in a well-formed project descriptor.
const markerDelim = "\x00"

// newMarker derives a deterministic marker from the rule position and a
// fingerprint of its search text, salting it until it is absent from document.
func newMarker(document string, index int, search string) string {
	base := fmt.Sprintf("%sqgzedit:%d:%016x", markerDelim, index, xxhash.Sum64String(search))

	marker := base + markerDelim
	for salt := 1; strings.Contains(document, marker); salt++ {
		marker = fmt.Sprintf("%s:%d%s", base, salt, markerDelim)
	}
	return marker
}
