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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/kubernetes/fake"
	"k8s.io/utils/ptr"

	apperrors "github.com/drydock-sh/drydock/pkg/errors"
	"github.com/drydock-sh/drydock/pkg/overlay"
)

func testDeployment(name, ns, image string) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: ns},
		Spec: appsv1.DeploymentSpec{
			Replicas: ptr.To(int32(1)),
			Selector: &metav1.LabelSelector{
				MatchLabels: map[string]string{"app.kubernetes.io/name": name},
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: map[string]string{"app.kubernetes.io/name": name},
				},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{Name: name, Image: image}},
				},
			},
		},
	}
}

func TestNamespaceExists(t *testing.T) {
	t.Parallel()
	client := fake.NewClientset(&corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: "apps-dev"}})
	a := NewKubeApplier(client, nil)
	ctx := context.Background()

	ok, err := a.NamespaceExists(ctx, "apps-dev")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.NamespaceExists(ctx, "apps-prod")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnsureNamespaceIdempotent(t *testing.T) {
	t.Parallel()
	client := fake.NewClientset()
	a := NewKubeApplier(client, nil)
	ctx := context.Background()

	require.NoError(t, a.EnsureNamespace(ctx, "apps-staging"))
	require.NoError(t, a.EnsureNamespace(ctx, "apps-staging"))

	ns, err := client.CoreV1().Namespaces().Get(ctx, "apps-staging", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "drydock", ns.Labels["app.kubernetes.io/managed-by"])
}

func TestApplyDeploymentCreateUpdateUnchanged(t *testing.T) {
	t.Parallel()
	client := fake.NewClientset()
	a := NewKubeApplier(client, nil)
	ctx := context.Background()

	res := &overlay.Resource{
		Kind: "Deployment", Name: "wiki", Namespace: "apps-dev",
		Object: testDeployment("wiki", "apps-dev", "registry.dev.internal:5000/apps/wiki:dev-2.5.0"),
	}

	outcome, err := a.Apply(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	outcome, err = a.Apply(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)

	res.Object = testDeployment("wiki", "apps-dev", "registry.dev.internal:5000/apps/wiki:dev-2.6.0")
	outcome, err = a.Apply(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfigured, outcome)

	live, err := client.AppsV1().Deployments("apps-dev").Get(ctx, "wiki", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Contains(t, live.Spec.Template.Spec.Containers[0].Image, "dev-2.6.0")
}

func TestApplyServicePreservesClusterIP(t *testing.T) {
	t.Parallel()
	existing := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "wiki", Namespace: "apps-dev"},
		Spec: corev1.ServiceSpec{
			ClusterIP: "10.0.0.42",
			Ports:     []corev1.ServicePort{{Name: "http", Port: 80}},
		},
	}
	client := fake.NewClientset(existing)
	a := NewKubeApplier(client, nil)
	ctx := context.Background()

	desired := existing.DeepCopy()
	desired.Spec.ClusterIP = ""
	desired.Spec.Ports[0].Port = 8080
	desired.ResourceVersion = ""

	outcome, err := a.Apply(ctx, &overlay.Resource{Kind: "Service", Name: "wiki", Namespace: "apps-dev", Object: desired})
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfigured, outcome)

	live, err := client.CoreV1().Services("apps-dev").Get(ctx, "wiki", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.42", live.Spec.ClusterIP)
	assert.Equal(t, int32(8080), live.Spec.Ports[0].Port)
}

func TestApplyUnstructuredWithoutDynamicClient(t *testing.T) {
	t.Parallel()
	client := fake.NewClientset()
	a := NewKubeApplier(client, nil)

	monitor := &unstructured.Unstructured{Object: map[string]any{
		"apiVersion": "monitoring.coreos.com/v1",
		"kind":       "ServiceMonitor",
		"metadata":   map[string]any{"name": "wiki", "namespace": "apps-dev"},
	}}

	_, err := a.Apply(context.Background(), &overlay.Resource{
		Kind: "ServiceMonitor", Name: "wiki", Namespace: "apps-dev",
		Optional: true, Object: monitor,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeOptionalUnavailable))
}

func TestDeleteToleratesAbsent(t *testing.T) {
	t.Parallel()
	client := fake.NewClientset()
	a := NewKubeApplier(client, nil)

	err := a.Delete(context.Background(), &overlay.Resource{
		Kind: "Deployment", Name: "wiki", Namespace: "apps-dev",
		Object: testDeployment("wiki", "apps-dev", "img"),
	})
	assert.NoError(t, err)
}

func TestWorkloadReadyTracksReplicas(t *testing.T) {
	t.Parallel()
	dep := testDeployment("wiki", "apps-dev", "img")
	client := fake.NewClientset(dep)
	a := NewKubeApplier(client, nil)
	ctx := context.Background()
	res := &overlay.Resource{Kind: "Deployment", Name: "wiki", Namespace: "apps-dev", Object: dep}

	ready, err := a.WorkloadReady(ctx, res)
	require.NoError(t, err)
	assert.False(t, ready)

	dep.Status.ReadyReplicas = 1
	_, err = client.AppsV1().Deployments("apps-dev").UpdateStatus(ctx, dep, metav1.UpdateOptions{})
	require.NoError(t, err)

	ready, err = a.WorkloadReady(ctx, res)
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestApplySecretIdempotentAfterServerSideMerge(t *testing.T) {
	t.Parallel()
	client := fake.NewClientset()
	a := NewKubeApplier(client, nil)
	ctx := context.Background()

	desired := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{Name: "wiki-credentials", Namespace: "apps-dev"},
		Type:       corev1.SecretTypeOpaque,
		StringData: map[string]string{"POSTGRES_USER": "wiki", "POSTGRES_PASSWORD": "s3cr3t"},
	}
	res := &overlay.Resource{Kind: "Secret", Name: "wiki-credentials", Namespace: "apps-dev", Object: desired}

	outcome, err := a.Apply(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	// A real API server stores stringData as data and serves stringData
	// back empty; rewrite the stored object the same way.
	stored, err := client.CoreV1().Secrets("apps-dev").Get(ctx, "wiki-credentials", metav1.GetOptions{})
	require.NoError(t, err)
	stored.Data = make(map[string][]byte, len(stored.StringData))
	for k, v := range stored.StringData {
		stored.Data[k] = []byte(v)
	}
	stored.StringData = nil
	_, err = client.CoreV1().Secrets("apps-dev").Update(ctx, stored, metav1.UpdateOptions{})
	require.NoError(t, err)

	outcome, err = a.Apply(ctx, res)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)

	// A rotated value is still a real diff.
	rotated := desired.DeepCopy()
	rotated.StringData["POSTGRES_PASSWORD"] = "rotated"
	outcome, err = a.Apply(ctx, &overlay.Resource{Kind: "Secret", Name: "wiki-credentials", Namespace: "apps-dev", Object: rotated})
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfigured, outcome)
}
