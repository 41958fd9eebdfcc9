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

import "fmt"

// Well-known environment identifiers in the built-in registry.
const (
	Dev     = "dev"
	Staging = "staging"
	Prod    = "prod"
)

// Environment is the concrete deployment target a name resolves to. Tuples
// are immutable once defined: they are looked up, never mutated at runtime.
type Environment struct {
	// ID is the environment identifier (e.g., "dev", "staging", "prod").
	ID string `yaml:"id"`

	// Namespace is the target cluster namespace.
	Namespace string `yaml:"namespace"`

	// Registry is the image registry address images are pulled from.
	Registry string `yaml:"registry"`

	// HostSuffix is appended to service names to form exposed hostnames
	// (e.g., ".staging.example.com").
	HostSuffix string `yaml:"hostSuffix"`

	// TagPrefix is the image tag scheme prefix (e.g., "dev-", "v").
	TagPrefix string `yaml:"tagPrefix"`

	// TLSIssuer identifies the certificate issuer for ingress TLS.
	TLSIssuer string `yaml:"tlsIssuer"`

	// StorageClass is the storage class for datastore volume claims.
	StorageClass string `yaml:"storageClass"`

	// AllowDefaultCredentials permits deterministic convenience credentials
	// when materializing secrets. Production forbids them.
	AllowDefaultCredentials bool `yaml:"allowDefaultCredentials"`
}

// Hostname returns the externally reachable hostname for a service in this
// environment.
func (e *Environment) Hostname(service string) string {
	return service + e.HostSuffix
}

// ImageRef returns the fully qualified image reference for a repository and
// version under this environment's registry and tag scheme.
func (e *Environment) ImageRef(repository, version string) string {
	return fmt.Sprintf("%s/%s:%s%s", e.Registry, repository, e.TagPrefix, version)
}

// validate reports the first missing required field, if any. Every tuple in
// the registry must be complete before it can be resolved.
func (e *Environment) validate() error {
	switch {
	case e.ID == "":
		return fmt.Errorf("environment has no id")
	case e.Namespace == "":
		return fmt.Errorf("environment %q has no namespace", e.ID)
	case e.Registry == "":
		return fmt.Errorf("environment %q has no registry", e.ID)
	case e.HostSuffix == "":
		return fmt.Errorf("environment %q has no host suffix", e.ID)
	case e.TLSIssuer == "":
		return fmt.Errorf("environment %q has no TLS issuer", e.ID)
	case e.StorageClass == "":
		return fmt.Errorf("environment %q has no storage class", e.ID)
	}
	return nil
}
