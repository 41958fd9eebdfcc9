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

package environment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	apperrors "github.com/drydock-sh/drydock/pkg/errors"
	"github.com/drydock-sh/drydock/pkg/serializer"
)

// maxSuggestionDistance is the levenshtein cutoff for "did you mean" hints.
const maxSuggestionDistance = 3

// Registry maps environment identifiers to their deployment target tuples.
// It is a pure lookup table: Resolve performs no I/O and has no side effects,
// so callers can (and must) resolve before any mutating operation.
type Registry struct {
	environments map[string]*Environment
}

// builtin returns the default environment table.
func builtin() map[string]*Environment {
	return map[string]*Environment{
		Dev: {
			ID:                      Dev,
			Namespace:               "apps-dev",
			Registry:                "registry.dev.internal:5000",
			HostSuffix:              ".dev.internal",
			TagPrefix:               "dev-",
			TLSIssuer:               "selfsigned",
			StorageClass:            "standard",
			AllowDefaultCredentials: true,
		},
		Staging: {
			ID:                      Staging,
			Namespace:               "apps-staging",
			Registry:                "registry.staging.example.com",
			HostSuffix:              ".staging.example.com",
			TagPrefix:               "rc-",
			TLSIssuer:               "letsencrypt-staging",
			StorageClass:            "standard",
			AllowDefaultCredentials: true,
		},
		Prod: {
			ID:                      Prod,
			Namespace:               "apps",
			Registry:                "registry.example.com",
			HostSuffix:              ".example.com",
			TagPrefix:               "v",
			TLSIssuer:               "letsencrypt-prod",
			StorageClass:            "fast-ssd",
			AllowDefaultCredentials: false,
		},
	}
}

// NewRegistry creates a registry with the built-in environment table.
func NewRegistry() *Registry {
	return &Registry{environments: builtin()}
}

// NewRegistryFromFile creates a registry with the built-in table extended or
// overridden by entries from a YAML file. Entries must be complete tuples;
// an incomplete entry fails the whole load so a half-defined environment can
// never be resolved.
func NewRegistryFromFile(path string) (*Registry, error) {
	reg := NewRegistry()
	if path == "" {
		return reg, nil
	}

	overrides, err := serializer.FromFile[map[string]*Environment](path)
	if err != nil {
		return nil, fmt.Errorf("failed to load environments file: %w", err)
	}

	for id, env := range *overrides {
		env.ID = id
		if err := env.validate(); err != nil {
			return nil, fmt.Errorf("invalid environment in %s: %w", path, err)
		}
		reg.environments[id] = env
	}
	return reg, nil
}

// Resolve maps an environment identifier to its deployment target tuple.
// Unknown identifiers are rejected with UNKNOWN_ENVIRONMENT before any side
// effect occurs; the message carries a nearest-match suggestion when one is
// close enough to be plausible.
func (r *Registry) Resolve(id string) (*Environment, error) {
	env, ok := r.environments[id]
	if !ok {
		msg := fmt.Sprintf("unknown environment %q (known: %s)", id, strings.Join(r.IDs(), ", "))
		if suggestion := r.nearest(id); suggestion != "" {
			msg = fmt.Sprintf("unknown environment %q, did you mean %q?", id, suggestion)
		}
		return nil, apperrors.New(apperrors.ErrCodeUnknownEnvironment, msg)
	}
	if err := env.validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, "incomplete environment tuple", err)
	}
	return env, nil
}

// IDs returns the known environment identifiers in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.environments))
	for id := range r.environments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// nearest returns the closest known identifier within the suggestion cutoff,
// or empty string if nothing is close.
func (r *Registry) nearest(id string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, known := range r.IDs() {
		if d := levenshtein.ComputeDistance(strings.ToLower(id), known); d < bestDist {
			best = known
			bestDist = d
		}
	}
	if bestDist > maxSuggestionDistance {
		return ""
	}
	return best
}
