// Package errors provides structured error types shared across drydock
// components. StructuredError carries a stable error code that maps directly
// to the orchestrator's failure taxonomy (unknown environment, missing
// prerequisite, unresolved placeholder, optional capability unavailable,
// readiness timeout, secret policy violation) so callers can branch on
// classification without string matching.
package errors
