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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rolloutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drydock_rollouts_total",
			Help: "Total number of deployment unit rollouts by terminal status",
		},
		[]string{"status"},
	)

	rolloutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drydock_rollout_duration_seconds",
			Help:    "Duration of deployment unit rollouts in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	resourcesApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drydock_resources_applied_total",
			Help: "Total number of resource operations by outcome",
		},
		[]string{"outcome"},
	)
)
