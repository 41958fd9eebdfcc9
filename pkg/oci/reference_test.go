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

package oci

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/drydock-sh/drydock/pkg/errors"
)

func TestParseOutputTargetLocalPath(t *testing.T) {
	t.Parallel()
	ref, err := ParseOutputTarget("./out/bundles")
	require.NoError(t, err)
	assert.False(t, ref.IsOCI)
	assert.Equal(t, "./out/bundles", ref.LocalPath)
	assert.Equal(t, "./out/bundles", ref.String())
	assert.Empty(t, ref.ImageReference())
}

func TestParseOutputTargetOCI(t *testing.T) {
	t.Parallel()
	ref, err := ParseOutputTarget("oci://ghcr.io/drydock-sh/bundles:v1.2.3")
	require.NoError(t, err)
	assert.True(t, ref.IsOCI)
	assert.Equal(t, "ghcr.io", ref.Registry)
	assert.Equal(t, "drydock-sh/bundles", ref.Repository)
	assert.Equal(t, "v1.2.3", ref.Tag)
	assert.Equal(t, "ghcr.io/drydock-sh/bundles:v1.2.3", ref.ImageReference())
}

func TestParseOutputTargetOCIWithoutTag(t *testing.T) {
	t.Parallel()
	ref, err := ParseOutputTarget("oci://localhost:5000/bundles")
	require.NoError(t, err)
	assert.True(t, ref.IsOCI)
	assert.Empty(t, ref.Tag)

	tagged := ref.WithTag("latest")
	assert.Equal(t, "localhost:5000/bundles:latest", tagged.ImageReference())
	assert.Empty(t, ref.Tag, "WithTag must not mutate the receiver")
}

func TestParseOutputTargetInvalidOCI(t *testing.T) {
	t.Parallel()
	_, err := ParseOutputTarget("oci://not a reference")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidRequest))
}

func TestPushRequiresOCIReference(t *testing.T) {
	t.Parallel()
	_, err := Push(t.Context(), PushOptions{
		SourceDir: t.TempDir(),
		Reference: &Reference{LocalPath: "./out"},
	})
	assert.Error(t, err)

	_, err = Push(t.Context(), PushOptions{
		SourceDir: t.TempDir(),
		Reference: &Reference{IsOCI: true, Registry: "ghcr.io", Repository: "drydock-sh/bundles"},
	})
	assert.Error(t, err)
}
