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

package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKubeconfig = `apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://cluster.example.com:6443
  name: test
contexts:
- context:
    cluster: test
    user: test
  name: test
current-context: test
users:
- name: test
  user:
    token: placeholder
`

func writeKubeconfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(testKubeconfig), 0o600))
	return path
}

func TestRestConfigExplicitPath(t *testing.T) {
	cfg, err := restConfig(writeKubeconfig(t))
	require.NoError(t, err)
	assert.Equal(t, "https://cluster.example.com:6443", cfg.Host)
}

func TestRestConfigFromEnv(t *testing.T) {
	t.Setenv("KUBECONFIG", writeKubeconfig(t))
	cfg, err := restConfig("")
	require.NoError(t, err)
	assert.Equal(t, "https://cluster.example.com:6443", cfg.Host)
}

func TestRestConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid"), 0o600))
	_, err := restConfig(path)
	assert.Error(t, err)
}

func TestBuildReturnsClients(t *testing.T) {
	typed, dyn, err := Build(writeKubeconfig(t))
	require.NoError(t, err)
	assert.NotNil(t, typed)
	assert.NotNil(t, dyn)
}
