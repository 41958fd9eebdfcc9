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
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/drydock-sh/drydock/pkg/environment"
	apperrors "github.com/drydock-sh/drydock/pkg/errors"
	"github.com/drydock-sh/drydock/pkg/overlay"
	"github.com/drydock-sh/drydock/pkg/stack"
)

// Mode controls whether existing material is reused or rotated.
type Mode int

const (
	// ReuseIfPresent returns existing material unchanged; generation only
	// happens when the store has nothing for the pair. This is the default
	// for deployment runs so a redeploy never rotates credentials.
	ReuseIfPresent Mode = iota

	// ForceRegenerate discards existing material and generates new values.
	// Rotation is always opt-in and explicit.
	ForceRegenerate
)

// Source selects how generated values are produced.
type Source int

const (
	// SourceRandom draws values from a cryptographically strong source.
	SourceRandom Source = iota

	// SourceDefaults uses deterministic convenience values. Only permitted
	// in environments whose tuple allows default credentials.
	SourceDefaults
)

// randomValueBytes is the entropy per generated credential.
const randomValueBytes = 32

// Ref is a reference to materialized secret material: everything a rollout
// needs to wire the secret without carrying plaintext around.
type Ref struct {
	// Name is the cluster Secret name workloads reference.
	Name string

	// Namespace is the target namespace.
	Namespace string

	// Keys are the credential key names.
	Keys []string

	// Path is the store file backing the material.
	Path string
}

// Materializer generates or reuses credential material per (service,
// environment) pair and registers the resulting Secret resource in a
// composed resource set exactly once.
type Materializer struct {
	store *Store
}

// NewMaterializer creates a materializer over the given store.
func NewMaterializer(store *Store) *Materializer {
	return &Materializer{store: store}
}

// Ensure returns the material for (service, environment), generating it if
// absent. With ReuseIfPresent existing material is returned untouched, so
// running a deployment twice never rotates credentials. Generation with
// SourceDefaults fails with SECRET_POLICY_VIOLATION in environments that
// forbid default credentials, and nothing is written.
func (m *Materializer) Ensure(svc *stack.ServiceDescriptor, env *environment.Environment, mode Mode, source Source) (*Material, error) {
	if mode == ReuseIfPresent && m.store.Exists(env.ID, svc.Name) {
		slog.Debug("reusing existing secret material",
			"service", svc.Name, "environment", env.ID)
		return m.store.Load(env.ID, svc.Name)
	}

	if source == SourceDefaults && !env.AllowDefaultCredentials {
		return nil, apperrors.New(apperrors.ErrCodeSecretPolicyViolation,
			fmt.Sprintf("environment %q forbids default credentials; pass --random to generate strong values", env.ID))
	}

	material := &Material{
		Service:     svc.Name,
		Environment: env.ID,
		CreatedAt:   time.Now().UTC(),
		Random:      source == SourceRandom,
		Values:      make(map[string]Value),
	}

	for _, key := range credentialKeys(svc) {
		v, err := generateValue(key, svc, source)
		if err != nil {
			return nil, err
		}
		material.Values[key] = v
	}

	if err := m.store.Save(material); err != nil {
		return nil, err
	}
	slog.Info("materialized secret",
		"service", svc.Name, "environment", env.ID,
		"random", material.Random, "keys", len(material.Values))
	return material, nil
}

// Ref derives the cluster reference for previously ensured material.
func (m *Materializer) Ref(material *Material, namespace string) *Ref {
	return &Ref{
		Name:      overlay.SecretName(material.Service),
		Namespace: namespace,
		Keys:      material.Keys(),
		Path:      m.store.Path(material.Environment, material.Service),
	}
}

// Register adds the Secret resource for the material to a composed resource
// set exactly once. Re-registering against a set that already references the
// secret is a no-op, never a duplicate reference.
//
// The rendered bytes carry redacted values; only the decoded object handed
// to the cluster contains plaintext.
func (m *Materializer) Register(set *overlay.ResourceSet, material *Material) *Ref {
	ref := m.Ref(material, set.Namespace)
	if set.Contains("Secret", ref.Name) {
		return ref
	}

	stringData := make(map[string]string, len(material.Values))
	redacted := fmt.Sprintf("apiVersion: v1\nkind: Secret\nmetadata:\n  name: %s\n  namespace: %s\nstringData:\n", ref.Name, ref.Namespace)
	for _, key := range material.Keys() {
		stringData[key] = material.Values[key].Reveal()
		redacted += fmt.Sprintf("  %s: %s\n", key, redactedMarker)
	}

	secret := &corev1.Secret{
		TypeMeta: metav1.TypeMeta{APIVersion: "v1", Kind: "Secret"},
		ObjectMeta: metav1.ObjectMeta{
			Name:      ref.Name,
			Namespace: ref.Namespace,
			Labels: map[string]string{
				"app.kubernetes.io/part-of":    material.Service,
				"app.kubernetes.io/managed-by": "drydock",
			},
		},
		Type:       corev1.SecretTypeOpaque,
		StringData: stringData,
	}

	set.Add(overlay.Resource{
		Kind:      "Secret",
		Name:      ref.Name,
		Namespace: ref.Namespace,
		Layer:     overlay.LayerSecret,
		Raw:       []byte(redacted),
		Object:    secret,
	})
	return ref
}

// credentialKeys returns the key names a service's material carries, in a
// fixed order.
func credentialKeys(svc *stack.ServiceDescriptor) []string {
	keys := []string{"SESSION_SECRET"}
	if svc.OwnsDatastore {
		keys = append(keys, "POSTGRES_DB", "POSTGRES_PASSWORD", "POSTGRES_USER")
	}
	return keys
}

// generateValue produces one credential value for a key.
func generateValue(key string, svc *stack.ServiceDescriptor, source Source) (Value, error) {
	// Identity-like keys are deterministic regardless of source; only
	// password/secret keys differ between random and default generation.
	switch key {
	case "POSTGRES_DB", "POSTGRES_USER":
		return Value(svc.Name), nil
	}

	if source == SourceDefaults {
		return Value(fmt.Sprintf("dev-%s-%s", svc.Name, key)), nil
	}

	buf := make([]byte, randomValueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random source: %w", err)
	}
	return Value(base64.RawURLEncoding.EncodeToString(buf)), nil
}
