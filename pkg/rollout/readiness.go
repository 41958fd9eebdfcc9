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
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/util/wait"

	apperrors "github.com/drydock-sh/drydock/pkg/errors"
	"github.com/drydock-sh/drydock/pkg/overlay"
)

// awaitReady polls the workload until its ready replica count meets the
// desired count or the bounded timeout expires. Expiry is a fatal rollout
// error; applied resources are left in place for inspection.
func (e *Executor) awaitReady(ctx context.Context, res *overlay.Resource) error {
	wctx, cancel := context.WithTimeout(ctx, e.readinessTimeout)
	defer cancel()

	err := wait.PollUntilContextTimeout(wctx, e.poll, e.readinessTimeout, true,
		func(ctx context.Context) (bool, error) {
			return e.applier.WorkloadReady(ctx, res)
		})
	if err == nil {
		return nil
	}
	if wait.Interrupted(err) {
		return apperrors.NewWithContext(apperrors.ErrCodeReadinessTimeout,
			fmt.Sprintf("workload %s did not become ready within %v", res.ID(), e.readinessTimeout),
			map[string]any{"resource": res.ID(), "timeout": e.readinessTimeout.String()})
	}
	return fmt.Errorf("failed readiness wait for %s: %w", res.ID(), err)
}
