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

package archive

import (
	"fmt"

	"gitlab.com/tozd/go/errors"
)

// ContainerKind classifies a ContainerError
type ContainerKind string

const (
	KindInvalid   ContainerKind = "invalid"    // not a readable archive
	KindNoMembers ContainerKind = "no_members" // opened, but no text member matched
	KindWrite     ContainerKind = "write"      // repacking failed
)

// 📦 ContainerError is fatal to a single archive. The batch records it and
// moves on to the next archive.
type ContainerError struct {
	Archive string
	Kind    ContainerKind
	Err     error
}

func (e *ContainerError) Error() string {
	switch e.Kind {
	case KindNoMembers:
		return fmt.Sprintf("archive %s: no text members found", e.Archive)
	case KindWrite:
		return fmt.Sprintf("archive %s: writing output: %v", e.Archive, e.Err)
	default:
		return fmt.Sprintf("archive %s: not a valid container: %v", e.Archive, e.Err)
	}
}

func (e *ContainerError) Unwrap() error {
	return e.Err
}

func newContainerError(archive string, kind ContainerKind, err error) error {
	return errors.WithStack(&ContainerError{Archive: archive, Kind: kind, Err: err})
}

// 🔤 EncodingError means a text member could be decoded neither as UTF-8 nor
// with the fallback encoding. Only that member is skipped.
type EncodingError struct {
	Archive  string
	Member   string
	Encoding string
	Err      error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("archive %s: member %s: cannot decode as utf-8 or %s: %v", e.Archive, e.Member, e.Encoding, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// IsNoMembers reports whether err is a ContainerError for an archive without text members.
func IsNoMembers(err error) bool {
	var cerr *ContainerError
	return errors.As(err, &cerr) && cerr.Kind == KindNoMembers
}
