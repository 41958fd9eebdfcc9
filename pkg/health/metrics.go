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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	verificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drydock_verifications_total",
		Help: "Total service verifications by result.",
	}, []string{"result"})

	checksFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "drydock_health_checks_failed_total",
		Help: "Failed health checks by check name and class.",
	}, []string{"check", "class"})
)

// recordMetrics publishes counters for one finished report.
func recordMetrics(rep *Report) {
	result := "healthy"
	if !rep.Healthy() {
		result = "unhealthy"
	} else if len(rep.Warnings()) > 0 {
		result = "degraded"
	}
	verificationsTotal.WithLabelValues(result).Inc()
	for _, c := range rep.Checks {
		if !c.OK {
			checksFailed.WithLabelValues(c.Name, string(c.Class)).Inc()
		}
	}
}
