// Copyright 2026 The inferbatch Authors.
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

package facade

import "fmt"

// Code classifies a Status the way spec.md §7 taxonomizes errors.
type Code int

const (
	// OK is the zero value: no error.
	OK Code = iota
	InvalidArgument
	PermissionDenied
	FailedPrecondition
	Internal
	// EngineError wraps whatever the wrapped engine itself returned,
	// forwarded unchanged to every caller in the batch.
	EngineError
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case InvalidArgument:
		return "InvalidArgument"
	case PermissionDenied:
		return "PermissionDenied"
	case FailedPrecondition:
		return "FailedPrecondition"
	case Internal:
		return "Internal"
	case EngineError:
		return "EngineError"
	default:
		return "Unknown"
	}
}

// Status is the error representation Run returns, so callers can inspect
// Code() the way a gRPC-style status is inspected rather than string
// matching an error message.
type Status struct {
	code    Code
	message string
	err     error
}

// Code returns the classification of s.
func (s *Status) Code() Code { return s.code }

// Error implements the error interface.
func (s *Status) Error() string {
	if s.err != nil {
		return fmt.Sprintf("%s: %s: %v", s.code, s.message, s.err)
	}
	return fmt.Sprintf("%s: %s", s.code, s.message)
}

// Unwrap exposes the wrapped error, if any, to errors.Is/errors.As.
func (s *Status) Unwrap() error { return s.err }

func newStatus(code Code, format string, args ...any) *Status {
	return &Status{code: code, message: fmt.Sprintf(format, args...)}
}

// WrapInvalidArgument builds an InvalidArgument status.
func WrapInvalidArgument(format string, args ...any) *Status {
	return newStatus(InvalidArgument, format, args...)
}

// WrapPermissionDenied builds a PermissionDenied status.
func WrapPermissionDenied(format string, args ...any) *Status {
	return newStatus(PermissionDenied, format, args...)
}

// WrapFailedPrecondition builds a FailedPrecondition status.
func WrapFailedPrecondition(format string, args ...any) *Status {
	return newStatus(FailedPrecondition, format, args...)
}

// WrapInternal builds an Internal status.
func WrapInternal(format string, args ...any) *Status {
	return newStatus(Internal, format, args...)
}

// FromEngineError wraps err (returned by a batched or bypassed engine
// call, or by the driver's merge/split stages) as an EngineError status,
// preserving err for errors.Is/As. The driver does not itself distinguish
// a merge/split internal error from a genuine engine error once it
// reaches a task's terminal status; the wrapped message does.
func FromEngineError(err error) *Status {
	return &Status{code: EngineError, message: "engine error", err: err}
}
