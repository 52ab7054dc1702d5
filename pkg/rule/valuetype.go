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

package rule

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// 🏷️ ValueType constrains the values a rule may search for and replace with
type ValueType string

const (
	TypeText ValueType = "texto" // any non-blank text
	TypeIP   ValueType = "ip"    // dotted-quad IPv4 address
)

// DefaultType is used when a rule does not declare one
const DefaultType = TypeText

// 📋 TypeInfo describes a value type for users
type TypeInfo struct {
	Name        string
	Example     string
	Description string
	Valid       func(value string) bool
}

var valueTypes = map[ValueType]TypeInfo{
	TypeIP: {
		Name:        "IPv4 address",
		Example:     "192.168.1.100",
		Description: "IPv4 address (format: XXX.XXX.XXX.XXX)",
		Valid:       IsIPv4,
	},
	TypeText: {
		Name:        "Free text",
		Example:     "any text",
		Description: "any text, must not be blank",
		Valid:       IsText,
	},
}

// Lookup returns the description of a value type.
func Lookup(t ValueType) (TypeInfo, bool) {
	info, ok := valueTypes[t]
	return info, ok
}

// Types returns every known value type, sorted.
func Types() []ValueType {
	out := make([]ValueType, 0, len(valueTypes))
	for t := range valueTypes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func typeNames() string {
	names := make([]string, 0, len(valueTypes))
	for _, t := range Types() {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}

var ipv4Pattern = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})$`)

// IsIPv4 reports whether the trimmed value is four dot separated groups of
// one to three digits, each at most 255. Leading zeros are accepted.
func IsIPv4(value string) bool {
	groups := ipv4Pattern.FindStringSubmatch(strings.TrimSpace(value))
	if groups == nil {
		return false
	}
	for _, group := range groups[1:] {
		n, err := strconv.Atoi(group)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}

// IsText reports whether the value has any non-space content.
func IsText(value string) bool {
	return strings.TrimSpace(value) != ""
}
