// Package environment implements the environment registry: a static table
// mapping abstract environment names (dev, staging, prod) to concrete
// deployment targets (namespace, image registry, hostname suffix, tag scheme,
// TLS issuer, storage class).
//
// Resolution is a pure lookup with no I/O; every other drydock component
// depends on a resolved tuple and refuses to act on an unknown identifier.
package environment
