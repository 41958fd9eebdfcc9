// Package defaults centralizes timeout and threshold constants used across
// drydock components. Every blocking operation in the orchestrator carries a
// bounded timeout sourced from here unless overridden through configuration.
package defaults
