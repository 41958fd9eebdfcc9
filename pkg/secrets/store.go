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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Material is the credential set for one (service, environment) pair. It is
// owned by the persistent store and shared read-only by every rollout for
// that pair.
type Material struct {
	Service     string           `yaml:"service"`
	Environment string           `yaml:"environment"`
	CreatedAt   time.Time        `yaml:"createdAt"`
	Random      bool             `yaml:"random"`
	Values      map[string]Value `yaml:"values"`
}

// Keys returns the credential key names in sorted order.
func (m *Material) Keys() []string {
	keys := make([]string, 0, len(m.Values))
	for k := range m.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store persists secret material as environment-scoped files under a root
// directory: <root>/<environment>/<service>.yaml, mode 0600. These files are
// the only durable artifacts the orchestrator owns and must be excluded from
// version control.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Path returns the store file path for a (service, environment) pair.
func (s *Store) Path(envID, service string) string {
	return filepath.Join(s.root, envID, service+".yaml")
}

// Exists reports whether material is already persisted for the pair.
func (s *Store) Exists(envID, service string) bool {
	_, err := os.Stat(s.Path(envID, service))
	return err == nil
}

// Load reads persisted material for the pair.
func (s *Store) Load(envID, service string) (*Material, error) {
	data, err := os.ReadFile(s.Path(envID, service))
	if err != nil {
		return nil, fmt.Errorf("failed to read secret material for %s/%s: %w", envID, service, err)
	}
	var m Material
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse secret material for %s/%s: %w", envID, service, err)
	}
	return &m, nil
}

// Save persists material, creating the environment directory with owner-only
// permissions.
func (s *Store) Save(m *Material) error {
	dir := filepath.Join(s.root, m.Environment)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create secret dir %s: %w", dir, err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal secret material: %w", err)
	}
	path := s.Path(m.Environment, m.Service)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write secret material to %s: %w", path, err)
	}
	return nil
}
