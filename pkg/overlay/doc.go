// Package overlay implements the configuration layering engine. It merges
// environment-agnostic base resource templates with environment-specific
// overlay values (namespace, image reference, hostname/TLS, storage class)
// in a fixed, documented order, and fails closed if any placeholder token
// survives the merge.
//
// The merge is a typed mapping from placeholder key to resolved value, not a
// templating language: templates carry ${TOKEN} markers and nothing else.
package overlay
