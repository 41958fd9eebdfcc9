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

package overlay

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/runtime"
)

// Layer orders resources within a deployment unit. Lower layers are applied
// first; teardown runs in reverse.
type Layer int

const (
	// LayerInfra holds shared platform resources (ingress rules, optional
	// capability descriptors).
	LayerInfra Layer = iota

	// LayerSecret holds credential resources registered by the materializer.
	LayerSecret

	// LayerDatastore holds datastore workloads, applied and readiness-gated
	// before the app layer when the service owns a datastore.
	LayerDatastore

	// LayerApp holds the application workloads.
	LayerApp
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerInfra:
		return "infra"
	case LayerSecret:
		return "secret"
	case LayerDatastore:
		return "datastore"
	case LayerApp:
		return "app"
	default:
		return fmt.Sprintf("layer(%d)", int(l))
	}
}

// Resource is a single composed declarative resource, carrying both the
// deterministic rendered bytes and the decoded object the executor applies.
type Resource struct {
	// Kind is the resource kind (Deployment, Service, Ingress, ...).
	Kind string

	// Name is the resource name.
	Name string

	// Namespace is the target namespace.
	Namespace string

	// Layer determines apply ordering within the unit.
	Layer Layer

	// Optional marks capability resources whose absence degrades rather
	// than fails the rollout.
	Optional bool

	// Raw is the rendered YAML document.
	Raw []byte

	// Object is the decoded typed object (unstructured for kinds outside
	// the core scheme, such as optional capability descriptors).
	Object runtime.Object
}

// ID returns a stable kind/name identifier for reports.
func (r *Resource) ID() string {
	return fmt.Sprintf("%s/%s", strings.ToLower(r.Kind), r.Name)
}

// ResourceSet is the concrete, fully resolved resource list for one service
// in one environment. It is transient: created per invocation and discarded
// after the run completes.
type ResourceSet struct {
	Service     string
	Environment string
	Namespace   string
	Resources   []Resource
}

// Add appends a resource, keeping the set ordered by layer (stable within a
// layer).
func (s *ResourceSet) Add(res Resource) {
	s.Resources = append(s.Resources, res)
	sort.SliceStable(s.Resources, func(i, j int) bool {
		return s.Resources[i].Layer < s.Resources[j].Layer
	})
}

// ByLayer returns pointers to the resources in the given layer, in order.
func (s *ResourceSet) ByLayer(l Layer) []*Resource {
	var out []*Resource
	for i := range s.Resources {
		if s.Resources[i].Layer == l {
			out = append(out, &s.Resources[i])
		}
	}
	return out
}

// Contains reports whether a resource with the kind and name is present.
func (s *ResourceSet) Contains(kind, name string) bool {
	for i := range s.Resources {
		if s.Resources[i].Kind == kind && s.Resources[i].Name == name {
			return true
		}
	}
	return false
}

// Bytes renders the whole set as a multi-document YAML stream. The output is
// byte-stable for identical inputs.
func (s *ResourceSet) Bytes() []byte {
	var buf bytes.Buffer
	for i := range s.Resources {
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(s.Resources[i].Raw)
		if !bytes.HasSuffix(s.Resources[i].Raw, []byte("\n")) {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// WriteDir writes each resource as a numbered YAML file under dir, creating
// the directory if needed. File order matches apply order.
func (s *ResourceSet) WriteDir(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}
	files := make([]string, 0, len(s.Resources))
	for i := range s.Resources {
		r := &s.Resources[i]
		name := fmt.Sprintf("%02d-%s-%s.yaml", i, strings.ToLower(r.Kind), r.Name)
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, r.Raw, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		files = append(files, path)
	}
	return files, nil
}
