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

package defaults

import "time"

// Rollout timeouts for cluster mutation and readiness operations.
const (
	// ApplyTimeout is the per-resource timeout for declarative applies.
	ApplyTimeout = 30 * time.Second

	// ReadinessTimeout is the default bounded wait for applied workloads to
	// report ready. Exceeding it fails the unit without reverting anything.
	ReadinessTimeout = 5 * time.Minute

	// ReadinessPollInterval is the polling interval during readiness waits.
	ReadinessPollInterval = 2 * time.Second

	// DeleteTimeout is the per-resource timeout for teardown operations.
	DeleteTimeout = 30 * time.Second
)

// Health verification timeouts and thresholds.
const (
	// HealthHTTPTimeout bounds each HTTP reachability probe.
	HealthHTTPTimeout = 10 * time.Second

	// HealthCheckTimeout bounds each cluster-side health check.
	HealthCheckTimeout = 15 * time.Second

	// RestartWarnThreshold is the container restart count above which the
	// pod readiness check records a warning.
	RestartWarnThreshold = 3

	// LogScanTailLines is how many recent log lines are scanned per container.
	LogScanTailLines = 100

	// ProbeRatePerSecond limits outbound health probes and log fetches.
	ProbeRatePerSecond = 5
)

// Build and install timeouts for external collaborators.
const (
	// ImageBuildTimeout bounds a single container image build and push.
	ImageBuildTimeout = 15 * time.Minute

	// ChartInstallTimeout bounds a single third-party chart install.
	ChartInstallTimeout = 10 * time.Minute
)
