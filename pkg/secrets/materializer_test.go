package secrets

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"

	"github.com/drydock-sh/drydock/pkg/environment"
	apperrors "github.com/drydock-sh/drydock/pkg/errors"
	"github.com/drydock-sh/drydock/pkg/overlay"
	"github.com/drydock-sh/drydock/pkg/stack"
)

func testFixtures(t *testing.T) (*Materializer, *stack.ServiceDescriptor, *environment.Environment, *environment.Environment) {
	t.Helper()
	store := NewStore(t.TempDir())
	mz := NewMaterializer(store)

	svc, err := stack.NewCatalog().Lookup("wiki")
	require.NoError(t, err)

	reg := environment.NewRegistry()
	dev, err := reg.Resolve(environment.Dev)
	require.NoError(t, err)
	prod, err := reg.Resolve(environment.Prod)
	require.NoError(t, err)

	return mz, svc, dev, prod
}

func TestEnsure_ReuseIsIdempotent(t *testing.T) {
	mz, svc, dev, _ := testFixtures(t)

	first, err := mz.Ensure(svc, dev, ReuseIfPresent, SourceRandom)
	require.NoError(t, err)

	path := mz.store.Path(dev.ID, svc.Name)
	before, err := os.Stat(path)
	require.NoError(t, err)

	second, err := mz.Ensure(svc, dev, ReuseIfPresent, SourceRandom)
	require.NoError(t, err)

	after, err := os.Stat(path)
	require.NoError(t, err)

	assert.Equal(t, first.Values, second.Values, "reuse must not rotate credentials")
	assert.Equal(t, before.ModTime(), after.ModTime(), "second call must not mutate the store")
}

func TestEnsure_ForceRegenerateRotates(t *testing.T) {
	mz, svc, dev, _ := testFixtures(t)

	first, err := mz.Ensure(svc, dev, ReuseIfPresent, SourceRandom)
	require.NoError(t, err)

	second, err := mz.Ensure(svc, dev, ForceRegenerate, SourceRandom)
	require.NoError(t, err)

	assert.NotEqual(t,
		first.Values["POSTGRES_PASSWORD"].Reveal(),
		second.Values["POSTGRES_PASSWORD"].Reveal())
}

func TestEnsure_ProdForbidsDefaults(t *testing.T) {
	mz, svc, _, prod := testFixtures(t)

	_, err := mz.Ensure(svc, prod, ReuseIfPresent, SourceDefaults)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeSecretPolicyViolation))
	assert.False(t, mz.store.Exists(prod.ID, svc.Name), "no material may be written on policy violation")
}

func TestEnsure_DevAllowsDefaults(t *testing.T) {
	mz, svc, dev, _ := testFixtures(t)

	mat, err := mz.Ensure(svc, dev, ReuseIfPresent, SourceDefaults)
	require.NoError(t, err)
	assert.False(t, mat.Random)
	assert.Equal(t, "wiki", mat.Values["POSTGRES_USER"].Reveal())
}

func TestRegister_ExactlyOnce(t *testing.T) {
	mz, svc, dev, _ := testFixtures(t)

	mat, err := mz.Ensure(svc, dev, ReuseIfPresent, SourceRandom)
	require.NoError(t, err)

	set, err := overlay.Compose(svc, dev)
	require.NoError(t, err)

	ref1 := mz.Register(set, mat)
	countAfterFirst := len(set.Resources)

	ref2 := mz.Register(set, mat)
	assert.Equal(t, ref1, ref2)
	assert.Equal(t, countAfterFirst, len(set.Resources), "re-registering must not duplicate the secret")

	secrets := set.ByLayer(overlay.LayerSecret)
	require.Len(t, secrets, 1)
	assert.Equal(t, "wiki-credentials", secrets[0].Name)
}

func TestRegister_RenderedBytesAreRedacted(t *testing.T) {
	mz, svc, dev, _ := testFixtures(t)

	mat, err := mz.Ensure(svc, dev, ReuseIfPresent, SourceRandom)
	require.NoError(t, err)

	set, err := overlay.Compose(svc, dev)
	require.NoError(t, err)
	mz.Register(set, mat)

	rendered := string(set.Bytes())
	for _, v := range mat.Values {
		assert.NotContains(t, rendered, v.Reveal(), "rendered output must never contain plaintext")
	}

	// the decoded object handed to the cluster does carry the plaintext
	var secret *corev1.Secret
	for _, r := range set.ByLayer(overlay.LayerSecret) {
		secret = r.Object.(*corev1.Secret)
	}
	require.NotNil(t, secret)
	assert.Equal(t, mat.Values["POSTGRES_PASSWORD"].Reveal(), secret.StringData["POSTGRES_PASSWORD"])
}

func TestValue_Redaction(t *testing.T) {
	v := Value("super-secret")
	assert.Equal(t, "[redacted]", v.String())
	assert.Equal(t, "[redacted]", fmt.Sprintf("%v", v))
	assert.Equal(t, "[redacted]", fmt.Sprintf("%s", v))
	assert.Equal(t, "super-secret", v.Reveal())
}

func TestStore_RoundTrip(t *testing.T) {
	mz, svc, dev, _ := testFixtures(t)

	mat, err := mz.Ensure(svc, dev, ReuseIfPresent, SourceRandom)
	require.NoError(t, err)

	loaded, err := mz.store.Load(dev.ID, svc.Name)
	require.NoError(t, err)
	assert.Equal(t, mat.Values, loaded.Values)
	assert.ElementsMatch(t, []string{"POSTGRES_DB", "POSTGRES_PASSWORD", "POSTGRES_USER", "SESSION_SECRET"}, loaded.Keys())

	info, err := os.Stat(mz.store.Path(dev.ID, svc.Name))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
