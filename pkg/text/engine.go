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
	"strings"
)

// unclaimed marks a segment that no rule has matched yet
const unclaimed = -1

// segment is a run of the working copy: raw text, or a region claimed by a token
type segment struct {
	text  string
	token int
}

// 🏷️ Token is the opaque placeholder a rule leaves behind for each match.
type Token struct {
	Index  int    // position of the owning rule
	Marker string // printable form, absent from the source document
	Value  string // final replacement text
}

// 🧩 Tokenized is the intermediate form of a document: raw text interleaved
// with tokens. Claimed regions are never rescanned.
type Tokenized struct {
	segments []segment
	tokens   []Token
}

// 🎯 Apply runs every rule over document and returns the transformed text and
// the per-pattern counts observed in the original document.
//
// Rules are applied in two passes. First each rule, in order, swaps its
// matches in the still-unclaimed text for a token. Then every token is
// resolved to its replacement. A replacement can therefore never be matched
// by another rule, and when patterns overlap the earlier rule wins.
func Apply(document string, rules []ReplacementRule) (string, MatchReport) {
	report := make(MatchReport, len(rules))
	if len(rules) == 0 {
		return document, report
	}

	for _, rule := range rules {
		report[rule.FromText] += countOccurrences(document, rule.FromText)
	}

	return Tokenize(document, rules).Resolve(), report
}

// Tokenize performs the isolation pass of Apply.
func Tokenize(document string, rules []ReplacementRule) *Tokenized {
	t := &Tokenized{
		segments: []segment{{text: document, token: unclaimed}},
		tokens:   make([]Token, 0, len(rules)),
	}

	for i, rule := range rules {
		t.tokens = append(t.tokens, Token{
			Index:  i,
			Marker: newMarker(document, i, rule.FromText),
			Value:  rule.ToText,
		})
		if rule.FromText == "" {
			continue
		}
		t.claim(i, rule.FromText)
	}

	return t
}

// claim replaces every match of search in unclaimed segments with the token.
func (t *Tokenized) claim(token int, search string) {
	out := make([]segment, 0, len(t.segments))
	for _, seg := range t.segments {
		if seg.token != unclaimed || !strings.Contains(seg.text, search) {
			out = append(out, seg)
			continue
		}

		rest := seg.text
		for {
			idx := strings.Index(rest, search)
			if idx < 0 {
				break
			}
			if idx > 0 {
				out = append(out, segment{text: rest[:idx], token: unclaimed})
			}
			out = append(out, segment{text: search, token: token})
			rest = rest[idx+len(search):]
		}
		if rest != "" {
			out = append(out, segment{text: rest, token: unclaimed})
		}
	}
	t.segments = out
}

// String renders the intermediate form with each claimed region shown as its marker.
func (t *Tokenized) String() string {
	return t.render(func(tok Token) string { return tok.Marker })
}

// Resolve performs the resolution pass: every token becomes its replacement.
func (t *Tokenized) Resolve() string {
	return t.render(func(tok Token) string { return tok.Value })
}

func (t *Tokenized) render(tokenText func(Token) string) string {
	var b strings.Builder
	for _, seg := range t.segments {
		if seg.token == unclaimed {
			b.WriteString(seg.text)
			continue
		}
		b.WriteString(tokenText(t.tokens[seg.token]))
	}
	return b.String()
}

// countOccurrences counts non-overlapping matches; an empty pattern matches nothing.
func countOccurrences(document, search string) int {
	if search == "" {
		return 0
	}
	return strings.Count(document, search)
}
