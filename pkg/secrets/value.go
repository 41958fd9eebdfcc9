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

package secrets

import (
	"log/slog"

	"gopkg.in/yaml.v3"
)

// redactedMarker replaces secret values on any logging or display surface.
const redactedMarker = "[redacted]"

// Value is a credential value that redacts itself on every formatting
// surface (fmt, slog). The plaintext is only reachable through Reveal, and
// through YAML marshalling used by the secured store file.
type Value string

// String implements fmt.Stringer and always redacts.
func (Value) String() string { return redactedMarker }

// GoString redacts %#v formatting as well.
func (Value) GoString() string { return redactedMarker }

// LogValue implements slog.LogValuer so structured logs never carry
// plaintext credentials.
func (Value) LogValue() slog.Value { return slog.StringValue(redactedMarker) }

// Reveal returns the plaintext. Callers must only pass it to secured sinks
// (the secret store file, the cluster Secret object).
func (v Value) Reveal() string { return string(v) }

// MarshalYAML writes the plaintext; the store file is the secured sink the
// material is persisted to.
func (v Value) MarshalYAML() (any, error) { return string(v), nil }

// UnmarshalYAML reads the plaintext back from the store file.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	*v = Value(node.Value)
	return nil
}
