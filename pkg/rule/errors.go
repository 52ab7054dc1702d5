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

	"gitlab.com/tozd/go/errors"
)

// ❌ ConfigurationError is fatal to a whole run. It is raised before any
// archive is touched.
type ConfigurationError struct {
	Rule   int    // 1-based rule number, 0 when not tied to a rule
	Field  string // offending field, if any
	Value  string // offending value, if any
	Reason string
	Err    error // underlying cause, if any
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Rule > 0 && e.Field != "":
		return fmt.Sprintf("rule #%d: %s %q: %s", e.Rule, e.Field, e.Value, e.Reason)
	case e.Rule > 0:
		return fmt.Sprintf("rule #%d: %s", e.Rule, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Reason)
	default:
		return e.Reason
	}
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError returns a ConfigurationError carrying a stack trace.
func NewConfigurationError(rule int, field, value, reason string) error {
	return errors.WithStack(&ConfigurationError{
		Rule:   rule,
		Field:  field,
		Value:  value,
		Reason: reason,
	})
}

// WrapConfigurationError marks err as a ConfigurationError about field.
func WrapConfigurationError(field string, err error) error {
	return errors.WithStack(&ConfigurationError{
		Field:  field,
		Reason: err.Error(),
		Err:    err,
	})
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cerr *ConfigurationError
	return errors.As(err, &cerr)
}

// ⚠️ Warning is a suspicious but valid rule.
type Warning struct {
	Rule    int
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("rule #%d: %s", w.Rule, w.Message)
}
