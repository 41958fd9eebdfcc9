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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/drydock-sh/drydock/pkg/defaults"
)

// Config is the explicit, immutable process configuration. It is constructed
// once at startup and threaded through every component; no component reads
// ambient global state such as an auto-detected working directory.
type Config struct {
	// Kubeconfig is the path to the kubeconfig file. Empty means automatic
	// discovery (KUBECONFIG, ~/.kube/config, in-cluster).
	Kubeconfig string

	// SecretsDir is the root directory for environment-scoped secret files.
	// Files under it are the only durable artifacts the orchestrator owns.
	SecretsDir string

	// EnvironmentsFile is an optional YAML file that extends or overrides
	// the built-in environment registry.
	EnvironmentsFile string

	// ReadinessTimeout bounds the workload readiness wait per unit.
	ReadinessTimeout time.Duration

	// ApplyTimeout bounds each declarative resource apply.
	ApplyTimeout time.Duration
}

// Option mutates a Config during construction.
type Option func(*Config)

// WithKubeconfig sets an explicit kubeconfig path.
func WithKubeconfig(path string) Option {
	return func(c *Config) { c.Kubeconfig = path }
}

// WithSecretsDir sets the secret store root directory.
func WithSecretsDir(dir string) Option {
	return func(c *Config) { c.SecretsDir = dir }
}

// WithEnvironmentsFile sets the environment registry override file.
func WithEnvironmentsFile(path string) Option {
	return func(c *Config) { c.EnvironmentsFile = path }
}

// WithReadinessTimeout overrides the default readiness wait.
func WithReadinessTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.ReadinessTimeout = d
		}
	}
}

// New builds a Config with defaults applied, then options in order.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{
		ReadinessTimeout: defaults.ReadinessTimeout,
		ApplyTimeout:     defaults.ApplyTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.SecretsDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory for secrets dir: %w", err)
		}
		cfg.SecretsDir = filepath.Join(home, ".drydock", "secrets")
	}

	return cfg, nil
}
