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
	"embed"
	"fmt"
	"strconv"

	"github.com/distribution/reference"

	"github.com/drydock-sh/drydock/pkg/environment"
	apperrors "github.com/drydock-sh/drydock/pkg/errors"
	"github.com/drydock-sh/drydock/pkg/stack"
)

//go:embed templates/*.yaml
var templatesFS embed.FS

// datastoreImageRepo is the stock datastore image repository, mirrored
// through each environment's registry.
const datastoreImageRepo = "library/postgres"

// patch is one environment-specific substitution pass. Patches are applied
// in the fixed order listed in patchesFor; each substitutes only its own
// tokens. A token a patch does not carry a value for is left in place for a
// later patch or for the final unresolved scan.
type patch struct {
	name   string
	values map[string]string
}

// template keys by component kind.
var (
	appTemplates       = []string{"app-deployment.yaml", "app-service.yaml"}
	datastoreTemplates = []string{"datastore-service.yaml", "datastore-statefulset.yaml"}
)

// layerFor maps each template to the rollout layer of its resources.
var layerFor = map[string]Layer{
	"app-deployment.yaml":        LayerApp,
	"app-service.yaml":           LayerApp,
	"app-ingress.yaml":           LayerInfra,
	"datastore-service.yaml":     LayerDatastore,
	"datastore-statefulset.yaml": LayerDatastore,
	"metrics-monitor.yaml":       LayerInfra,
}

// SecretName returns the credential secret name a service's workloads
// reference. The materializer registers a Secret under this exact name.
func SecretName(service string) string {
	return service + "-credentials"
}

// Compose merges the environment-agnostic base templates for a service with
// the environment-specific overlay values, producing the concrete resource
// set for one (service, environment) pair.
//
// Overlay patches are applied in a fixed order: namespace substitution, image
// reference substitution, hostname/TLS substitution, storage-class
// substitution. After all patches, any remaining placeholder token fails the
// compose with UNRESOLVED_PLACEHOLDER rather than emitting a partially
// resolved resource. Absence of a placeholder is not an error: a service
// without a datastore simply renders no storage-class token.
//
// Composition is deterministic: the same descriptor and tuple yield
// byte-identical sets.
func Compose(svc *stack.ServiceDescriptor, env *environment.Environment) (*ResourceSet, error) {
	set := &ResourceSet{
		Service:     svc.Name,
		Environment: env.ID,
		Namespace:   env.Namespace,
	}

	for i := range svc.Components {
		comp := &svc.Components[i]
		for _, tmpl := range templatesForComponent(svc, comp) {
			if err := renderInto(set, tmpl, svc, comp, env); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// templatesForComponent returns the template files a component renders, in a
// fixed order.
func templatesForComponent(svc *stack.ServiceDescriptor, comp *stack.Component) []string {
	switch comp.Kind {
	case stack.KindDatastore:
		return datastoreTemplates
	default:
		tmpls := append([]string{}, appTemplates...)
		if svc.NeedsBaseURL {
			tmpls = append(tmpls, "app-ingress.yaml")
		}
		if svc.MetricsMonitor {
			tmpls = append(tmpls, "metrics-monitor.yaml")
		}
		return tmpls
	}
}

func renderInto(set *ResourceSet, tmpl string, svc *stack.ServiceDescriptor, comp *stack.Component, env *environment.Environment) error {
	base, err := templatesFS.ReadFile("templates/" + tmpl)
	if err != nil {
		return fmt.Errorf("failed to read base template %s: %w", tmpl, err)
	}

	// Base pass: service identity values, environment-independent.
	doc := substituteTokens(string(base), map[string]string{
		"SERVICE":     svc.Name,
		"COMPONENT":   comp.Name,
		"PORT":        strconv.Itoa(comp.Port),
		"VERSION":     comp.Version,
		"SECRET_NAME": SecretName(svc.Name),
	})

	imageRef, err := componentImage(comp, env)
	if err != nil {
		return err
	}

	// Overlay passes, in the documented fixed order.
	for _, p := range []patch{
		{name: "namespace", values: map[string]string{"NAMESPACE": env.Namespace}},
		{name: "image", values: map[string]string{"IMAGE": imageRef}},
		{name: "hostname/tls", values: map[string]string{
			"HOST":       env.Hostname(svc.Name),
			"TLS_ISSUER": env.TLSIssuer,
		}},
		{name: "storage-class", values: map[string]string{"STORAGE_CLASS": env.StorageClass}},
	} {
		doc = substituteTokens(doc, p.values)
	}

	// Fail closed: a token no overlay resolved must never reach the cluster.
	if unresolved := scanUnresolved(doc); len(unresolved) > 0 {
		return apperrors.NewWithContext(apperrors.ErrCodeUnresolvedPlaceholder,
			fmt.Sprintf("unresolved placeholder %q in %s for service %s", unresolved[0], tmpl, svc.Name),
			map[string]any{"template": tmpl, "placeholders": unresolved})
	}

	raw := []byte(doc)
	obj, gvk, err := decodeObject(raw)
	if err != nil {
		return fmt.Errorf("composed resource from %s is not valid: %w", tmpl, err)
	}

	set.Add(Resource{
		Kind:      gvk.Kind,
		Name:      comp.Name,
		Namespace: env.Namespace,
		Layer:     layerFor[tmpl],
		Optional:  tmpl == "metrics-monitor.yaml",
		Raw:       raw,
		Object:    obj,
	})
	return nil
}

// componentImage resolves and validates the image reference a component runs
// in the given environment.
func componentImage(comp *stack.Component, env *environment.Environment) (string, error) {
	var ref string
	if comp.Kind == stack.KindDatastore {
		// Stock datastore images keep their upstream tag; only the registry
		// is mirrored per environment.
		ref = fmt.Sprintf("%s/%s:%s", env.Registry, datastoreImageRepo, comp.Version)
	} else {
		ref = env.ImageRef(comp.Repository, comp.Version)
	}
	if _, err := reference.ParseNormalizedNamed(ref); err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid image reference %q for component %s", ref, comp.Name), err)
	}
	return ref, nil
}
