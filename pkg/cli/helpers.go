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

package cli

import (
	"fmt"

	"github.com/urfave/cli/v3"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"

	"github.com/drydock-sh/drydock/pkg/config"
	"github.com/drydock-sh/drydock/pkg/environment"
	"github.com/drydock-sh/drydock/pkg/k8s/client"
	"github.com/drydock-sh/drydock/pkg/stack"
)

// loadConfig builds the runtime configuration from global flags.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	var opts []config.Option
	if v := cmd.String("kubeconfig"); v != "" {
		opts = append(opts, config.WithKubeconfig(v))
	}
	if v := cmd.String("secrets-dir"); v != "" {
		opts = append(opts, config.WithSecretsDir(v))
	}
	if v := cmd.String("environments-file"); v != "" {
		opts = append(opts, config.WithEnvironmentsFile(v))
	}
	if v := cmd.Duration("timeout"); v > 0 {
		opts = append(opts, config.WithReadinessTimeout(v))
	}
	return config.New(opts...)
}

// resolveEnvironment resolves the --env flag against the registry, extended
// by --environments-file when given.
func resolveEnvironment(cmd *cli.Command, cfg *config.Config) (*environment.Environment, error) {
	reg := environment.NewRegistry()
	if cfg.EnvironmentsFile != "" {
		var err error
		reg, err = environment.NewRegistryFromFile(cfg.EnvironmentsFile)
		if err != nil {
			return nil, err
		}
	}
	return reg.Resolve(cmd.String("env"))
}

// resolveServices resolves the positional service argument. The reserved
// name "all" expands to the full stack.
func resolveServices(arg string) ([]*stack.ServiceDescriptor, error) {
	catalog := stack.NewCatalog()
	if arg == "" {
		return nil, fmt.Errorf("a service name is required (one of %v, or %q)", catalog.Names(), stack.StackAll)
	}
	if arg == stack.StackAll {
		return catalog.Stack(stack.StackAll)
	}
	svc, err := catalog.Lookup(arg)
	if err != nil {
		return nil, err
	}
	return []*stack.ServiceDescriptor{svc}, nil
}

// newKubeClients builds the typed and dynamic clients.
func newKubeClients(kubeconfig string) (kubernetes.Interface, dynamic.Interface, error) {
	return client.Build(kubeconfig)
}
