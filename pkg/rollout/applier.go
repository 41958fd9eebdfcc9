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

package rollout

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apiequality "k8s.io/apimachinery/pkg/api/equality"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/utils/ptr"

	apperrors "github.com/drydock-sh/drydock/pkg/errors"
	"github.com/drydock-sh/drydock/pkg/overlay"
)

// Outcome classifies a declarative apply.
type Outcome string

const (
	// OutcomeCreated means the resource did not exist and was created.
	OutcomeCreated Outcome = "created"

	// OutcomeConfigured means the live resource differed and was updated.
	OutcomeConfigured Outcome = "configured"

	// OutcomeUnchanged means the live resource already matched the desired
	// definition; no mutation was issued.
	OutcomeUnchanged Outcome = "unchanged"
)

// Applier performs idempotent declarative operations against the cluster.
// All mutations are create-or-update on disjoint resource names, safe under
// concurrent non-conflicting writers.
type Applier interface {
	// NamespaceExists reports whether the namespace is present. Rollouts
	// never create namespaces implicitly.
	NamespaceExists(ctx context.Context, name string) (bool, error)

	// EnsureNamespace creates the namespace if absent. Only explicit
	// provisioning operations (bring-up) call this.
	EnsureNamespace(ctx context.Context, name string) error

	// Apply creates or updates one composed resource. Optional capability
	// kinds whose API group is not served return an error with code
	// OPTIONAL_CAPABILITY_UNAVAILABLE; the caller decides whether that is
	// fatal.
	Apply(ctx context.Context, res *overlay.Resource) (Outcome, error)

	// Delete removes one composed resource, treating absence as success.
	Delete(ctx context.Context, res *overlay.Resource) error

	// WorkloadReady reports whether an applied workload resource has
	// reached readiness. Non-workload kinds are always ready.
	WorkloadReady(ctx context.Context, res *overlay.Resource) (bool, error)
}

// KubeApplier implements Applier on a Kubernetes clientset. The dynamic
// client is optional: when nil, resources outside the typed scheme are
// reported as unavailable capabilities.
type KubeApplier struct {
	client  kubernetes.Interface
	dynamic dynamic.Interface
}

// NewKubeApplier creates an applier over the given clients. dyn may be nil.
func NewKubeApplier(client kubernetes.Interface, dyn dynamic.Interface) *KubeApplier {
	return &KubeApplier{client: client, dynamic: dyn}
}

// NamespaceExists implements Applier.
func (a *KubeApplier) NamespaceExists(ctx context.Context, name string) (bool, error) {
	_, err := a.client.CoreV1().Namespaces().Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check namespace %s: %w", name, err)
	}
	return true, nil
}

// EnsureNamespace implements Applier.
func (a *KubeApplier) EnsureNamespace(ctx context.Context, name string) error {
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name:   name,
			Labels: map[string]string{"app.kubernetes.io/managed-by": "drydock"},
		},
	}
	_, err := a.client.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if apierrors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

// Apply implements Applier.
func (a *KubeApplier) Apply(ctx context.Context, res *overlay.Resource) (Outcome, error) {
	switch obj := res.Object.(type) {
	case *appsv1.Deployment:
		return a.applyDeployment(ctx, obj)
	case *appsv1.StatefulSet:
		return a.applyStatefulSet(ctx, obj)
	case *corev1.Service:
		return a.applyService(ctx, obj)
	case *corev1.Secret:
		return a.applySecret(ctx, obj)
	case *networkingv1.Ingress:
		return a.applyIngress(ctx, obj)
	case *unstructured.Unstructured:
		return a.applyUnstructured(ctx, obj)
	default:
		return "", fmt.Errorf("no apply handler for kind %s", res.Kind)
	}
}

// Delete implements Applier.
func (a *KubeApplier) Delete(ctx context.Context, res *overlay.Resource) error {
	opts := metav1.DeleteOptions{}
	var err error
	switch obj := res.Object.(type) {
	case *appsv1.Deployment:
		err = a.client.AppsV1().Deployments(obj.Namespace).Delete(ctx, obj.Name, opts)
	case *appsv1.StatefulSet:
		err = a.client.AppsV1().StatefulSets(obj.Namespace).Delete(ctx, obj.Name, opts)
	case *corev1.Service:
		err = a.client.CoreV1().Services(obj.Namespace).Delete(ctx, obj.Name, opts)
	case *corev1.Secret:
		err = a.client.CoreV1().Secrets(obj.Namespace).Delete(ctx, obj.Name, opts)
	case *networkingv1.Ingress:
		err = a.client.NetworkingV1().Ingresses(obj.Namespace).Delete(ctx, obj.Name, opts)
	case *unstructured.Unstructured:
		gvr, gerr := a.resourceFor(obj.GroupVersionKind())
		if gerr != nil {
			return nil // capability absent; nothing to delete
		}
		err = a.dynamic.Resource(gvr).Namespace(obj.GetNamespace()).Delete(ctx, obj.GetName(), opts)
	default:
		return fmt.Errorf("no delete handler for kind %s", res.Kind)
	}
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}

// WorkloadReady implements Applier.
func (a *KubeApplier) WorkloadReady(ctx context.Context, res *overlay.Resource) (bool, error) {
	switch obj := res.Object.(type) {
	case *appsv1.Deployment:
		live, err := a.client.AppsV1().Deployments(obj.Namespace).Get(ctx, obj.Name, metav1.GetOptions{})
		if err != nil {
			return false, err
		}
		return live.Status.ReadyReplicas >= ptr.Deref(live.Spec.Replicas, 1), nil
	case *appsv1.StatefulSet:
		live, err := a.client.AppsV1().StatefulSets(obj.Namespace).Get(ctx, obj.Name, metav1.GetOptions{})
		if err != nil {
			return false, err
		}
		return live.Status.ReadyReplicas >= ptr.Deref(live.Spec.Replicas, 1), nil
	default:
		return true, nil
	}
}

func (a *KubeApplier) applyDeployment(ctx context.Context, desired *appsv1.Deployment) (Outcome, error) {
	cli := a.client.AppsV1().Deployments(desired.Namespace)
	existing, err := cli.Get(ctx, desired.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		_, err = cli.Create(ctx, desired, metav1.CreateOptions{})
		return OutcomeCreated, err
	}
	if err != nil {
		return "", err
	}
	if apiequality.Semantic.DeepEqual(existing.Spec, desired.Spec) {
		return OutcomeUnchanged, nil
	}
	desired = desired.DeepCopy()
	desired.ResourceVersion = existing.ResourceVersion
	desired.Status = existing.Status
	_, err = cli.Update(ctx, desired, metav1.UpdateOptions{})
	return OutcomeConfigured, err
}

func (a *KubeApplier) applyStatefulSet(ctx context.Context, desired *appsv1.StatefulSet) (Outcome, error) {
	cli := a.client.AppsV1().StatefulSets(desired.Namespace)
	existing, err := cli.Get(ctx, desired.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		_, err = cli.Create(ctx, desired, metav1.CreateOptions{})
		return OutcomeCreated, err
	}
	if err != nil {
		return "", err
	}
	if apiequality.Semantic.DeepEqual(existing.Spec, desired.Spec) {
		return OutcomeUnchanged, nil
	}
	desired = desired.DeepCopy()
	desired.ResourceVersion = existing.ResourceVersion
	desired.Status = existing.Status
	_, err = cli.Update(ctx, desired, metav1.UpdateOptions{})
	return OutcomeConfigured, err
}

func (a *KubeApplier) applyService(ctx context.Context, desired *corev1.Service) (Outcome, error) {
	cli := a.client.CoreV1().Services(desired.Namespace)
	existing, err := cli.Get(ctx, desired.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		_, err = cli.Create(ctx, desired, metav1.CreateOptions{})
		return OutcomeCreated, err
	}
	if err != nil {
		return "", err
	}
	// ClusterIP is allocated server-side and immutable; carry it over.
	desired = desired.DeepCopy()
	desired.Spec.ClusterIP = existing.Spec.ClusterIP
	desired.Spec.ClusterIPs = existing.Spec.ClusterIPs
	if apiequality.Semantic.DeepEqual(existing.Spec, desired.Spec) {
		return OutcomeUnchanged, nil
	}
	desired.ResourceVersion = existing.ResourceVersion
	_, err = cli.Update(ctx, desired, metav1.UpdateOptions{})
	return OutcomeConfigured, err
}

func (a *KubeApplier) applySecret(ctx context.Context, desired *corev1.Secret) (Outcome, error) {
	cli := a.client.CoreV1().Secrets(desired.Namespace)
	existing, err := cli.Get(ctx, desired.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		_, err = cli.Create(ctx, desired, metav1.CreateOptions{})
		return OutcomeCreated, err
	}
	if err != nil {
		return "", err
	}
	// The API server folds stringData into data on write and serves
	// stringData back empty, so the comparison must run on the merged
	// payload or every re-run would report a spurious update.
	if apiequality.Semantic.DeepEqual(secretPayload(existing), secretPayload(desired)) {
		return OutcomeUnchanged, nil
	}
	desired = desired.DeepCopy()
	desired.ResourceVersion = existing.ResourceVersion
	_, err = cli.Update(ctx, desired, metav1.UpdateOptions{})
	return OutcomeConfigured, err
}

// secretPayload merges a Secret's data and stringData into one map, the way
// the API server stores it.
func secretPayload(s *corev1.Secret) map[string][]byte {
	out := make(map[string][]byte, len(s.Data)+len(s.StringData))
	for k, v := range s.Data {
		out[k] = v
	}
	for k, v := range s.StringData {
		out[k] = []byte(v)
	}
	return out
}

func (a *KubeApplier) applyIngress(ctx context.Context, desired *networkingv1.Ingress) (Outcome, error) {
	cli := a.client.NetworkingV1().Ingresses(desired.Namespace)
	existing, err := cli.Get(ctx, desired.Name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		_, err = cli.Create(ctx, desired, metav1.CreateOptions{})
		return OutcomeCreated, err
	}
	if err != nil {
		return "", err
	}
	if apiequality.Semantic.DeepEqual(existing.Spec, desired.Spec) &&
		apiequality.Semantic.DeepEqual(existing.Annotations, desired.Annotations) {
		return OutcomeUnchanged, nil
	}
	desired = desired.DeepCopy()
	desired.ResourceVersion = existing.ResourceVersion
	desired.Status = existing.Status
	_, err = cli.Update(ctx, desired, metav1.UpdateOptions{})
	return OutcomeConfigured, err
}

// applyUnstructured handles kinds outside the typed scheme, i.e. custom
// resources backing optional capabilities. Availability is established via
// discovery so a missing controller degrades instead of erroring opaquely.
func (a *KubeApplier) applyUnstructured(ctx context.Context, desired *unstructured.Unstructured) (Outcome, error) {
	gvk := desired.GroupVersionKind()
	gvr, err := a.resourceFor(gvk)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeOptionalUnavailable,
			fmt.Sprintf("resource kind %s is not served by this cluster", gvk.Kind), err)
	}

	cli := a.dynamic.Resource(gvr).Namespace(desired.GetNamespace())
	existing, err := cli.Get(ctx, desired.GetName(), metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		_, err = cli.Create(ctx, desired, metav1.CreateOptions{})
		return OutcomeCreated, err
	}
	if err != nil {
		return "", err
	}
	if apiequality.Semantic.DeepEqual(existing.Object["spec"], desired.Object["spec"]) {
		return OutcomeUnchanged, nil
	}
	desired = desired.DeepCopy()
	desired.SetResourceVersion(existing.GetResourceVersion())
	_, err = cli.Update(ctx, desired, metav1.UpdateOptions{})
	return OutcomeConfigured, err
}

// resourceFor maps a GVK to its served resource via discovery.
func (a *KubeApplier) resourceFor(gvk schema.GroupVersionKind) (schema.GroupVersionResource, error) {
	if a.dynamic == nil {
		return schema.GroupVersionResource{}, fmt.Errorf("no dynamic client configured")
	}
	list, err := a.client.Discovery().ServerResourcesForGroupVersion(gvk.GroupVersion().String())
	if err != nil {
		return schema.GroupVersionResource{}, fmt.Errorf("API group %s not served: %w", gvk.GroupVersion(), err)
	}
	for _, r := range list.APIResources {
		if r.Kind == gvk.Kind {
			return gvk.GroupVersion().WithResource(r.Name), nil
		}
	}
	return schema.GroupVersionResource{}, fmt.Errorf("kind %s not found in group %s", gvk.Kind, gvk.GroupVersion())
}
