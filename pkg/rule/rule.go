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
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/walteh/qgzedit/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// 🔄 Rule is one configured find/replace pair
type Rule struct {
	Search  string    `json:"search" yaml:"search" validate:"required"`
	Replace string    `json:"replace" yaml:"replace" validate:"required"`
	Type    ValueType `json:"type,omitempty" yaml:"type,omitempty" validate:"valuetype"`
}

// 📚 Set is an ordered list of rules. Order decides which rule claims
// overlapping text first.
type Set []Rule

// Replacements converts the set into engine rules.
func (s Set) Replacements() []text.ReplacementRule {
	out := make([]text.ReplacementRule, 0, len(s))
	for _, r := range s {
		out = append(out, text.ReplacementRule{FromText: r.Search, ToText: r.Replace})
	}
	return out
}

// Patterns returns the distinct search patterns in first-seen order.
func (s Set) Patterns() []string {
	seen := make(map[string]bool, len(s))
	out := make([]string, 0, len(s))
	for _, r := range s {
		if seen[r.Search] {
			continue
		}
		seen[r.Search] = true
		out = append(out, r.Search)
	}
	return out
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		// registration only fails on an empty tag or nil func
		_ = validate.RegisterValidation("valuetype", func(fl validator.FieldLevel) bool {
			_, ok := Lookup(ValueType(fl.Field().String()))
			return ok
		})
	})
	return validate
}

// ✅ Validate checks every rule in order and fails on the first invalid one.
// Rules without a type get DefaultType. Rules whose search and replace are
// identical are valid and reported as warnings.
func Validate(rules Set) ([]Warning, error) {
	if len(rules) == 0 {
		return nil, NewConfigurationError(0, "rules", "", "no replacement rules configured")
	}

	var warnings []Warning
	for i := range rules {
		if rules[i].Type == "" {
			rules[i].Type = DefaultType
		}
		if err := validateRule(i+1, rules[i]); err != nil {
			return nil, err
		}
		if rules[i].Search == rules[i].Replace {
			warnings = append(warnings, Warning{
				Rule:    i + 1,
				Message: fmt.Sprintf("search and replace are identical (%q)", rules[i].Search),
			})
		}
	}

	return warnings, nil
}

func validateRule(num int, r Rule) error {
	if err := structValidator().Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return errors.Errorf("validating rule #%d: %w", num, err)
		}
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return NewConfigurationError(num, fe.Field(), "", "is required")
		case "valuetype":
			return NewConfigurationError(num, fe.Field(), fmt.Sprint(fe.Value()),
				"unknown value type, valid types: "+typeNames())
		default:
			return NewConfigurationError(num, fe.Field(), fmt.Sprint(fe.Value()), "failed validation: "+fe.Tag())
		}
	}

	info, _ := Lookup(r.Type)
	for _, field := range []struct{ name, value string }{
		{"search", r.Search},
		{"replace", r.Replace},
	} {
		if !info.Valid(field.value) {
			return NewConfigurationError(num, field.name, field.value,
				fmt.Sprintf("expected %s: %s (e.g. %s)", info.Name, info.Description, info.Example))
		}
	}
	return nil
}
