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

package stack

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	apperrors "github.com/drydock-sh/drydock/pkg/errors"
)

// ComponentKind classifies a deployable component within a service.
type ComponentKind string

const (
	// KindApp is a stateless application component (Deployment + Service).
	KindApp ComponentKind = "app"

	// KindDatastore is a relational datastore component (StatefulSet +
	// headless Service). It must reach readiness before the app components
	// of the same service are applied.
	KindDatastore ComponentKind = "datastore"
)

// StackAll is the stack name resolving to every catalog service.
const StackAll = "all"

// Component is one deployable process of a service.
type Component struct {
	// Name is the component name, used for workload and service names.
	Name string

	// Kind determines which base templates the component renders.
	Kind ComponentKind

	// Repository is the image repository path under the environment registry.
	// Empty for datastore components, which pin a stock image.
	Repository string

	// Port is the container port the component serves on.
	Port int

	// Version is the component release version used for image tags.
	Version string
}

// ServiceDescriptor is the static, environment-independent definition of a
// deployable service. Descriptors are defined once in the catalog and never
// mutated at runtime.
type ServiceDescriptor struct {
	// Name is the service name.
	Name string

	// Components are the deployable processes; co-located in one namespace.
	Components []Component

	// OwnsDatastore indicates the service deploys its own relational
	// datastore and therefore requires a storage-class substitution.
	OwnsDatastore bool

	// NeedsBaseURL indicates the service must receive an externally
	// reachable base URL value and therefore gets an ingress rule.
	NeedsBaseURL bool

	// MetricsMonitor indicates the service ships an optional metrics
	// descriptor resource whose controller may not be installed everywhere.
	MetricsMonitor bool
}

// App returns the first app-kind component. Every catalog service has one.
func (s *ServiceDescriptor) App() *Component {
	for i := range s.Components {
		if s.Components[i].Kind == KindApp {
			return &s.Components[i]
		}
	}
	return nil
}

// Datastore returns the datastore component, or nil if the service owns none.
func (s *ServiceDescriptor) Datastore() *Component {
	for i := range s.Components {
		if s.Components[i].Kind == KindDatastore {
			return &s.Components[i]
		}
	}
	return nil
}

// Catalog holds the static service definitions and named stacks.
type Catalog struct {
	services map[string]*ServiceDescriptor
	stacks   map[string][]string
}

// NewCatalog returns the built-in service catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		services: map[string]*ServiceDescriptor{
			"wiki": {
				Name: "wiki",
				Components: []Component{
					{Name: "wiki", Kind: KindApp, Repository: "apps/wiki", Port: 3000, Version: "2.5.0"},
					{Name: "wiki-db", Kind: KindDatastore, Port: 5432, Version: "16"},
				},
				OwnsDatastore:  true,
				NeedsBaseURL:   true,
				MetricsMonitor: true,
			},
			"api": {
				Name: "api",
				Components: []Component{
					{Name: "api", Kind: KindApp, Repository: "apps/api", Port: 8080, Version: "1.9.2"},
					{Name: "api-db", Kind: KindDatastore, Port: 5432, Version: "16"},
				},
				OwnsDatastore:  true,
				NeedsBaseURL:   true,
				MetricsMonitor: true,
			},
			"docs": {
				Name: "docs",
				Components: []Component{
					{Name: "docs", Kind: KindApp, Repository: "apps/docs", Port: 8080, Version: "0.7.1"},
				},
				NeedsBaseURL: true,
			},
		},
		stacks: map[string][]string{
			StackAll: {"wiki", "api", "docs"},
		},
	}
}

// Lookup returns the descriptor for a service name, with a nearest-match
// suggestion on unknown names.
func (c *Catalog) Lookup(name string) (*ServiceDescriptor, error) {
	svc, ok := c.services[name]
	if !ok {
		msg := fmt.Sprintf("unknown service %q (known: %s)", name, strings.Join(c.Names(), ", "))
		if s := nearest(name, c.Names()); s != "" {
			msg = fmt.Sprintf("unknown service %q, did you mean %q?", name, s)
		}
		return nil, apperrors.New(apperrors.ErrCodeInvalidRequest, msg)
	}
	return svc, nil
}

// Stack resolves a name to an ordered list of descriptors. A service name
// resolves to a single-element stack; a stack name resolves to its members.
func (c *Catalog) Stack(name string) ([]*ServiceDescriptor, error) {
	if members, ok := c.stacks[name]; ok {
		out := make([]*ServiceDescriptor, 0, len(members))
		for _, m := range members {
			svc, err := c.Lookup(m)
			if err != nil {
				return nil, err
			}
			out = append(out, svc)
		}
		return out, nil
	}

	svc, err := c.Lookup(name)
	if err != nil {
		return nil, err
	}
	return []*ServiceDescriptor{svc}, nil
}

// Names returns the known service names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.services))
	for n := range c.services {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func nearest(name string, known []string) string {
	const cutoff = 3
	best, bestDist := "", cutoff+1
	for _, k := range known {
		if d := levenshtein.ComputeDistance(strings.ToLower(name), k); d < bestDist {
			best, bestDist = k, d
		}
	}
	if bestDist > cutoff {
		return ""
	}
	return best
}
