// Copyright (c) 2025, Drydock Authors.
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

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a structured error classification.
type ErrorCode string

const (
	// ErrCodeUnknownEnvironment indicates an environment identifier that is
	// not present in the environment registry.
	ErrCodeUnknownEnvironment ErrorCode = "UNKNOWN_ENVIRONMENT"
	// ErrCodePrerequisiteMissing indicates a required external tool or
	// cluster credential is unavailable before any mutating step began.
	ErrCodePrerequisiteMissing ErrorCode = "PREREQUISITE_MISSING"
	// ErrCodeUnresolvedPlaceholder indicates configuration composition left
	// a placeholder token unresolved; the resource set is never emitted.
	ErrCodeUnresolvedPlaceholder ErrorCode = "UNRESOLVED_PLACEHOLDER"
	// ErrCodeOptionalUnavailable indicates an optional capability resource
	// could not be applied because its supporting controller or API group is
	// not installed in the target environment.
	ErrCodeOptionalUnavailable ErrorCode = "OPTIONAL_CAPABILITY_UNAVAILABLE"
	// ErrCodeReadinessTimeout indicates a workload did not report ready
	// within the bounded wait.
	ErrCodeReadinessTimeout ErrorCode = "READINESS_TIMEOUT"
	// ErrCodeSecretPolicyViolation indicates insecure default credentials
	// were requested in an environment that forbids them.
	ErrCodeSecretPolicyViolation ErrorCode = "SECRET_POLICY_VIOLATION"
	// ErrCodeInvalidRequest indicates malformed or invalid user input.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrCodeTimeout indicates an operation exceeded its time limit.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an internal system error.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// StructuredError provides structured error information for better
// observability. It includes an error code for programmatic handling, a
// human-readable message, the underlying cause, and optional context.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// NewWithContext creates a new StructuredError with context information.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Context: context,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the error code of err if it is (or wraps) a StructuredError,
// or ErrCodeInternal otherwise. A nil err returns the empty code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err is (or wraps) a StructuredError with the code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
