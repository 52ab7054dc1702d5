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

// 📈 MatchReport maps a search pattern to the number of times it occurred in
// the original document. Rules sharing a pattern accumulate under one key.
// A pattern with count 0 ran and matched nothing; an absent pattern never ran.
type MatchReport map[string]int

// Merge adds every count of other into r.
func (r MatchReport) Merge(other MatchReport) {
	for pattern, count := range other {
		r[pattern] += count
	}
}

// Total returns the sum of all counts.
func (r MatchReport) Total() int {
	total := 0
	for _, count := range r {
		total += count
	}
	return total
}

// Ran reports whether the pattern was part of any engine invocation.
func (r MatchReport) Ran(pattern string) bool {
	_, ok := r[pattern]
	return ok
}
