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

// Package installer provisions cluster add-ons (ingress controller,
// certificate issuance, optional monitoring) during bring-up.
package installer

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"

	"github.com/drydock-sh/drydock/pkg/defaults"
	apperrors "github.com/drydock-sh/drydock/pkg/errors"
)

// Chart describes one add-on release.
type Chart struct {
	// Release is the helm release name.
	Release string

	// Ref is the chart reference (repo/chart).
	Ref string

	// RepoName and RepoURL register the chart repository.
	RepoName string
	RepoURL  string

	// Namespace is created if missing.
	Namespace string

	// Optional add-ons degrade bring-up instead of failing it.
	Optional bool

	// Values are --set overrides, applied in sorted key order.
	Values map[string]string
}

// ChartInstaller installs one chart release idempotently.
type ChartInstaller interface {
	Install(ctx context.Context, chart Chart) error
}

// Charts returns the cluster add-ons in install order. Monitoring is
// optional: environments without a metrics stack still come up, and rollouts
// there degrade rather than fail.
func Charts(withMonitoring bool) []Chart {
	charts := []Chart{
		{
			Release:   "ingress-nginx",
			Ref:       "ingress-nginx/ingress-nginx",
			RepoName:  "ingress-nginx",
			RepoURL:   "https://kubernetes.github.io/ingress-nginx",
			Namespace: "ingress-nginx",
		},
		{
			Release:   "cert-manager",
			Ref:       "jetstack/cert-manager",
			RepoName:  "jetstack",
			RepoURL:   "https://charts.jetstack.io",
			Namespace: "cert-manager",
			Values:    map[string]string{"crds.enabled": "true"},
		},
	}
	if withMonitoring {
		charts = append(charts, Chart{
			Release:   "monitoring",
			Ref:       "prometheus-community/kube-prometheus-stack",
			RepoName:  "prometheus-community",
			RepoURL:   "https://prometheus-community.github.io/helm-charts",
			Namespace: "monitoring",
			Optional:  true,
		})
	}
	return charts
}

// HelmInstaller shells out to the helm CLI.
type HelmInstaller struct {
	bin string
}

// NewHelmInstaller locates the helm binary.
func NewHelmInstaller() (*HelmInstaller, error) {
	bin, err := exec.LookPath("helm")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodePrerequisiteMissing,
			"helm binary not found on PATH", err)
	}
	return &HelmInstaller{bin: bin}, nil
}

// Install implements ChartInstaller via `helm upgrade --install`, which is
// idempotent across repeated bring-ups.
func (h *HelmInstaller) Install(ctx context.Context, chart Chart) error {
	ctx, cancel := context.WithTimeout(ctx, defaults.ChartInstallTimeout)
	defer cancel()

	if chart.RepoName != "" {
		if out, err := exec.CommandContext(ctx, h.bin,
			"repo", "add", "--force-update", chart.RepoName, chart.RepoURL).CombinedOutput(); err != nil {
			return fmt.Errorf("failed to add repo %s: %w: %s", chart.RepoName, err, string(out))
		}
	}

	args := []string{
		"upgrade", "--install", chart.Release, chart.Ref,
		"--namespace", chart.Namespace, "--create-namespace", "--wait",
	}
	for _, k := range sortedKeys(chart.Values) {
		args = append(args, "--set", fmt.Sprintf("%s=%s", k, chart.Values[k]))
	}
	if out, err := exec.CommandContext(ctx, h.bin, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("failed to install %s: %w: %s", chart.Release, err, string(out))
	}
	return nil
}

// InstallAll installs the charts in order and returns the releases that were
// skipped because an optional install failed. Required failures abort.
func InstallAll(ctx context.Context, inst ChartInstaller, charts []Chart) ([]string, error) {
	var skipped []string
	for _, chart := range charts {
		slog.Info("installing add-on", "release", chart.Release, "optional", chart.Optional)
		err := inst.Install(ctx, chart)
		if err == nil {
			continue
		}
		if chart.Optional {
			slog.Warn("skipping optional add-on", "release", chart.Release, "error", err)
			skipped = append(skipped, chart.Release)
			continue
		}
		return skipped, fmt.Errorf("failed to install required add-on %s: %w", chart.Release, err)
	}
	return skipped, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
