// Package secrets implements the secret materializer: idempotent generation
// and reuse of credential material per (service, environment) pair, policy
// enforcement for environments that forbid default credentials, and
// exactly-once registration of the resulting Secret resource in a composed
// resource set.
//
// Secret values are wrapped in the redacting Value type so they cannot leak
// through fmt or slog; the only plaintext sinks are the 0600 store file and
// the decoded Secret object sent to the cluster.
package secrets
