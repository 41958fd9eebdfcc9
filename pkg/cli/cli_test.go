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

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/drydock-sh/drydock/pkg/rollout"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := Root()
	var out bytes.Buffer
	root.Writer = &out
	err := root.Run(context.Background(), append([]string{"drydock"}, args...))
	return out.String(), err
}

func TestResolveServices(t *testing.T) {
	t.Parallel()

	svcs, err := resolveServices("wiki")
	require.NoError(t, err)
	require.Len(t, svcs, 1)
	assert.Equal(t, "wiki", svcs[0].Name)

	all, err := resolveServices("all")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = resolveServices("")
	assert.Error(t, err)

	_, err = resolveServices("wikki")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wiki")
}

func TestMaxExitSeverity(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, maxExit(0, 0))
	assert.Equal(t, 3, maxExit(0, 3))
	assert.Equal(t, 3, maxExit(3, 0))
	assert.Equal(t, 1, maxExit(3, 1))
	assert.Equal(t, 1, maxExit(1, 3))
}

func TestReportRecordsExitCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		statuses []rollout.Status
		wantCode int
	}{
		{"all succeeded", []rollout.Status{rollout.StatusSucceeded, rollout.StatusSucceeded}, 0},
		{"one degraded", []rollout.Status{rollout.StatusSucceeded, rollout.StatusPartiallyDegraded}, 3},
		{"failure wins", []rollout.Status{rollout.StatusPartiallyDegraded, rollout.StatusFailed}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var records []*rollout.Record
			for _, s := range tt.statuses {
				records = append(records, &rollout.Record{Service: "wiki", Environment: "dev", Status: s})
			}
			var out bytes.Buffer
			err := reportRecords(&cli.Command{Writer: &out}, records, nil)
			if tt.wantCode == 0 {
				assert.NoError(t, err)
				return
			}
			var coder cli.ExitCoder
			require.ErrorAs(t, err, &coder)
			assert.Equal(t, tt.wantCode, coder.ExitCode())
		})
	}
}

func TestGenerateSecretsReportsPathsNotValues(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, "generate-secrets", "wiki", "--env", "dev", "--secrets-dir", dir, "--random")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, "dev", "wiki.yaml"))
	assert.Contains(t, out, "SESSION_SECRET")
	assert.Contains(t, out, "POSTGRES_PASSWORD")

	data, err := os.ReadFile(filepath.Join(dir, "dev", "wiki.yaml"))
	require.NoError(t, err)
	// The store file holds the plaintext; none of it may leak into output.
	assert.NotContains(t, out, "[redacted]")
	for _, line := range bytes.Split(data, []byte("\n")) {
		kv := bytes.SplitN(line, []byte(": "), 2)
		if len(kv) == 2 && bytes.Contains(kv[0], []byte("SESSION_SECRET")) {
			assert.NotContains(t, out, string(bytes.TrimSpace(kv[1])))
		}
	}
}

func TestGenerateSecretsDefaultsRejectedInProd(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, "generate-secrets", "wiki", "--env", "prod", "--secrets-dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_POLICY_VIOLATION")

	_, statErr := os.Stat(filepath.Join(dir, "prod", "wiki.yaml"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenderWritesRedactedManifests(t *testing.T) {
	outDir := t.TempDir()
	secretsDir := t.TempDir()

	out, err := runCLI(t, "render", "wiki", "--env", "staging",
		"--output", outDir, "--secrets-dir", secretsDir)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")

	dir := filepath.Join(outDir, "staging", "wiki")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	var all []byte
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		all = append(all, data...)
	}
	assert.Contains(t, string(all), "registry.staging.example.com/apps/wiki:rc-2.5.0")
	assert.Contains(t, string(all), "[redacted]")
}

func TestRenderRejectsUnknownEnvironment(t *testing.T) {
	_, err := runCLI(t, "render", "wiki", "--env", "stging", "--output", t.TempDir(),
		"--secrets-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging")
}
