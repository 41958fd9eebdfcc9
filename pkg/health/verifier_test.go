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

package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/drydock-sh/drydock/pkg/environment"
	"github.com/drydock-sh/drydock/pkg/stack"
)

func readyPod(name, ns, service string, restarts int32) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: ns,
			Labels:    map[string]string{partOfLabel: service},
		},
		Status: corev1.PodStatus{
			Phase: corev1.PodRunning,
			Conditions: []corev1.PodCondition{
				{Type: corev1.PodReady, Status: corev1.ConditionTrue},
			},
			ContainerStatuses: []corev1.ContainerStatus{
				{Name: name, RestartCount: restarts},
			},
		},
	}
}

func serviceEndpoints(name, ns string, addresses int) *corev1.Endpoints {
	eps := &corev1.Endpoints{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: ns}}
	subset := corev1.EndpointSubset{}
	for range addresses {
		subset.Addresses = append(subset.Addresses, corev1.EndpointAddress{IP: "10.1.0.1"})
	}
	if addresses > 0 {
		eps.Subsets = []corev1.EndpointSubset{subset}
	}
	return eps
}

func serviceIngress(name, ns, host string) *networkingv1.Ingress {
	return &networkingv1.Ingress{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: ns},
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{{Host: host}},
		},
	}
}

func docsFixture(t *testing.T) (*stack.ServiceDescriptor, *environment.Environment) {
	t.Helper()
	env, err := environment.NewRegistry().Resolve(environment.Dev)
	require.NoError(t, err)
	svc, err := stack.NewCatalog().Lookup("docs")
	require.NoError(t, err)
	return svc, env
}

func TestVerifyHealthyService(t *testing.T) {
	t.Parallel()
	svc, env := docsFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := fake.NewClientset(
		readyPod("docs-1", env.Namespace, "docs", 0),
		serviceEndpoints("docs", env.Namespace, 2),
		serviceIngress("docs", env.Namespace, env.Hostname("docs")),
	)
	v := NewVerifier(client, WithProbeURL(srv.URL))

	rep, err := v.Verify(context.Background(), svc, env)
	require.NoError(t, err)
	assert.True(t, rep.Healthy())
	assert.Equal(t, 0, rep.ExitCode())
	assert.Empty(t, rep.Warnings())
}

func TestVerifyFailsWithoutPods(t *testing.T) {
	t.Parallel()
	svc, env := docsFixture(t)
	client := fake.NewClientset(serviceEndpoints("docs", env.Namespace, 1))
	v := NewVerifier(client, WithProbeURL("http://127.0.0.1:0/unreachable"))

	rep, err := v.Verify(context.Background(), svc, env)
	require.NoError(t, err)
	assert.False(t, rep.Healthy())
	assert.Equal(t, 1, rep.ExitCode())

	var names []string
	for _, c := range rep.Failures() {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "pod-readiness")
	assert.Contains(t, names, "ingress")
}

func TestVerifyFailsOnEmptyEndpoints(t *testing.T) {
	t.Parallel()
	svc, env := docsFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := fake.NewClientset(
		readyPod("docs-1", env.Namespace, "docs", 0),
		serviceEndpoints("docs", env.Namespace, 0),
		serviceIngress("docs", env.Namespace, env.Hostname("docs")),
	)
	v := NewVerifier(client, WithProbeURL(srv.URL))

	rep, err := v.Verify(context.Background(), svc, env)
	require.NoError(t, err)
	require.Len(t, rep.Failures(), 1)
	assert.Equal(t, "endpoints", rep.Failures()[0].Name)
}

func TestVerifyWarnsOnRestartChurn(t *testing.T) {
	t.Parallel()
	svc, env := docsFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := fake.NewClientset(
		readyPod("docs-1", env.Namespace, "docs", 7),
		serviceEndpoints("docs", env.Namespace, 1),
		serviceIngress("docs", env.Namespace, env.Hostname("docs")),
	)
	v := NewVerifier(client, WithProbeURL(srv.URL))

	rep, err := v.Verify(context.Background(), svc, env)
	require.NoError(t, err)
	assert.True(t, rep.Healthy())
	assert.Equal(t, 3, rep.ExitCode())
	require.NotEmpty(t, rep.Warnings())
	assert.Equal(t, "restart-churn", rep.Warnings()[0].Name)
}

func TestVerifyFailsOnBadHTTPStatus(t *testing.T) {
	t.Parallel()
	svc, env := docsFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := fake.NewClientset(
		readyPod("docs-1", env.Namespace, "docs", 0),
		serviceEndpoints("docs", env.Namespace, 1),
		serviceIngress("docs", env.Namespace, env.Hostname("docs")),
	)
	v := NewVerifier(client, WithProbeURL(srv.URL))

	rep, err := v.Verify(context.Background(), svc, env)
	require.NoError(t, err)
	require.Len(t, rep.Failures(), 1)
	assert.Equal(t, "http-reachability", rep.Failures()[0].Name)
}

func TestVerifyChecksIngressHost(t *testing.T) {
	t.Parallel()
	svc, env := docsFixture(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := fake.NewClientset(
		readyPod("docs-1", env.Namespace, "docs", 0),
		serviceEndpoints("docs", env.Namespace, 1),
		serviceIngress("docs", env.Namespace, "wrong.example.com"),
	)
	v := NewVerifier(client, WithProbeURL(srv.URL))

	rep, err := v.Verify(context.Background(), svc, env)
	require.NoError(t, err)
	require.Len(t, rep.Failures(), 1)
	assert.Equal(t, "ingress", rep.Failures()[0].Name)
	assert.Contains(t, rep.Failures()[0].Detail, env.Hostname("docs"))
}

func TestSuspiciousTokenMatching(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "panic:", firstSuspiciousToken("goroutine 1\npanic: boom"))
	assert.Equal(t, "error", firstSuspiciousToken("level=ERROR msg=bad"))
	assert.Empty(t, firstSuspiciousToken("all quiet"))
}

func TestReportString(t *testing.T) {
	t.Parallel()
	rep := &Report{Service: "docs", Environment: "dev"}
	rep.add("pod-readiness", ClassFailure, true, "1 pods ready")
	rep.add("restart-churn", ClassWarning, false, "container docs restarted 7 times")

	out := rep.String()
	assert.Contains(t, out, "docs @ dev")
	assert.Contains(t, out, "[ok] Pod Readiness")
	assert.Contains(t, out, "[warning] Restart Churn")
}
