package overlay

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	networkingv1 "k8s.io/api/networking/v1"

	"github.com/drydock-sh/drydock/pkg/environment"
	apperrors "github.com/drydock-sh/drydock/pkg/errors"
	"github.com/drydock-sh/drydock/pkg/stack"
)

func testEnv() *environment.Environment {
	reg := environment.NewRegistry()
	env, err := reg.Resolve(environment.Staging)
	if err != nil {
		panic(err)
	}
	return env
}

func testService(t *testing.T, name string) *stack.ServiceDescriptor {
	t.Helper()
	svc, err := stack.NewCatalog().Lookup(name)
	require.NoError(t, err)
	return svc
}

func TestCompose_Wiki(t *testing.T) {
	set, err := Compose(testService(t, "wiki"), testEnv())
	require.NoError(t, err)

	assert.Equal(t, "wiki", set.Service)
	assert.Equal(t, "apps-staging", set.Namespace)

	// datastore resources come before app resources
	assert.True(t, set.Contains("StatefulSet", "wiki-db"))
	assert.True(t, set.Contains("Deployment", "wiki"))
	assert.True(t, set.Contains("Ingress", "wiki"))
	assert.True(t, set.Contains("ServiceMonitor", "wiki"))

	var sawDatastore, sawApp bool
	for _, r := range set.Resources {
		if r.Layer == LayerDatastore {
			sawDatastore = true
			assert.False(t, sawApp, "datastore layer must precede app layer")
		}
		if r.Layer == LayerApp {
			sawApp = true
		}
	}
	assert.True(t, sawDatastore)
	assert.True(t, sawApp)
}

func TestCompose_Deterministic(t *testing.T) {
	svc := testService(t, "wiki")
	env := testEnv()

	a, err := Compose(svc, env)
	require.NoError(t, err)
	b, err := Compose(svc, env)
	require.NoError(t, err)

	assert.True(t, bytes.Equal(a.Bytes(), b.Bytes()), "composing twice must yield byte-identical sets")
}

func TestCompose_ImageSubstitution(t *testing.T) {
	set, err := Compose(testService(t, "wiki"), testEnv())
	require.NoError(t, err)

	var dep *appsv1.Deployment
	for i := range set.Resources {
		if d, ok := set.Resources[i].Object.(*appsv1.Deployment); ok {
			dep = d
		}
	}
	require.NotNil(t, dep)
	assert.Equal(t, "registry.staging.example.com/apps/wiki:rc-2.5.0",
		dep.Spec.Template.Spec.Containers[0].Image)
	assert.Equal(t, "apps-staging", dep.Namespace)
}

func TestCompose_IngressHostAndIssuer(t *testing.T) {
	set, err := Compose(testService(t, "wiki"), testEnv())
	require.NoError(t, err)

	var ing *networkingv1.Ingress
	for i := range set.Resources {
		if o, ok := set.Resources[i].Object.(*networkingv1.Ingress); ok {
			ing = o
		}
	}
	require.NotNil(t, ing)
	assert.Equal(t, "wiki.staging.example.com", ing.Spec.Rules[0].Host)
	assert.Equal(t, "letsencrypt-staging", ing.Annotations["cert-manager.io/cluster-issuer"])
}

func TestCompose_NoDatastoreSkipsStoragePatch(t *testing.T) {
	// A service without a datastore renders no storage-class placeholder;
	// its absence must not be treated as an error.
	set, err := Compose(testService(t, "docs"), testEnv())
	require.NoError(t, err)

	assert.False(t, set.Contains("StatefulSet", "docs-db"))
	assert.NotContains(t, string(set.Bytes()), "storageClassName")
}

func TestCompose_FailsClosedOnUnresolvedPlaceholder(t *testing.T) {
	// An environment tuple missing its storage class leaves ${STORAGE_CLASS}
	// unresolved for a datastore-owning service; compose must fail rather
	// than emit a partially resolved resource.
	env := &environment.Environment{
		ID:         "broken",
		Namespace:  "apps-broken",
		Registry:   "registry.example.com",
		HostSuffix: ".broken.example.com",
		TagPrefix:  "v",
		TLSIssuer:  "selfsigned",
		// StorageClass intentionally empty
	}

	set, err := Compose(testService(t, "wiki"), env)
	require.Error(t, err)
	assert.Nil(t, set)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnresolvedPlaceholder))
	assert.Contains(t, err.Error(), "STORAGE_CLASS")
}

func TestCompose_OptionalMonitorDecodesUnstructured(t *testing.T) {
	set, err := Compose(testService(t, "wiki"), testEnv())
	require.NoError(t, err)

	var found bool
	for _, r := range set.Resources {
		if r.Kind == "ServiceMonitor" {
			found = true
			assert.True(t, r.Optional)
			assert.Equal(t, LayerInfra, r.Layer)
		}
	}
	assert.True(t, found)
}

func TestScanUnresolved(t *testing.T) {
	doc := "image: ${IMAGE}\nhost: ${HOST}\nagain: ${IMAGE}\n"
	assert.Equal(t, []string{"IMAGE", "HOST"}, scanUnresolved(doc))
	assert.Empty(t, scanUnresolved("image: nginx:latest\n"))
}

func TestSubstituteTokens_LeavesUnknown(t *testing.T) {
	doc := substituteTokens("a: ${A}\nb: ${B}\n", map[string]string{"A": "1"})
	assert.Equal(t, "a: 1\nb: ${B}\n", doc)
}
