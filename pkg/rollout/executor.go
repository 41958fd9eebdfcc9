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
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/drydock-sh/drydock/pkg/defaults"
	apperrors "github.com/drydock-sh/drydock/pkg/errors"
	"github.com/drydock-sh/drydock/pkg/overlay"
)

// Unit is one independently deployable service/environment pair with its
// fully composed resource set.
type Unit struct {
	Service     string
	Environment string
	Set         *overlay.ResourceSet
}

// Executor drives units through the rollout phases. Failed rollouts leave
// already-applied resources in place; there is no automatic rollback.
type Executor struct {
	applier          Applier
	readinessTimeout time.Duration
	applyTimeout     time.Duration
	poll             time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithReadinessTimeout overrides the bounded workload readiness wait.
func WithReadinessTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.readinessTimeout = d
		}
	}
}

// WithApplyTimeout overrides the per-resource apply timeout.
func WithApplyTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.applyTimeout = d
		}
	}
}

// NewExecutor creates an executor over the given applier.
func NewExecutor(applier Applier, opts ...ExecutorOption) *Executor {
	e := &Executor{
		applier:          applier,
		readinessTimeout: defaults.ReadinessTimeout,
		applyTimeout:     defaults.ApplyTimeout,
		poll:             defaults.ReadinessPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run applies one unit through the full phase sequence: namespace check,
// infrastructure, secrets, workloads (datastore before app, each readiness
// gated), then final readiness verification. The returned record carries the
// terminal status even when err is non-nil.
func (e *Executor) Run(ctx context.Context, unit *Unit) (*Record, error) {
	rec := newRecord(unit.Service, unit.Environment)
	log := slog.With("service", unit.Service, "environment", unit.Environment, "rollout", rec.ID)
	log.Info("starting rollout", "namespace", unit.Set.Namespace, "resources", len(unit.Set.Resources))

	nctx, cancel := context.WithTimeout(ctx, e.applyTimeout)
	ok, err := e.applier.NamespaceExists(nctx, unit.Set.Namespace)
	cancel()
	if err != nil {
		return rec.finalize(StatusFailed, err), err
	}
	if !ok {
		err = apperrors.NewWithContext(apperrors.ErrCodePrerequisiteMissing,
			fmt.Sprintf("namespace %s does not exist", unit.Set.Namespace),
			map[string]any{"namespace": unit.Set.Namespace})
		return rec.finalize(StatusFailed, err), err
	}

	for _, layer := range []overlay.Layer{
		overlay.LayerInfra,
		overlay.LayerSecret,
		overlay.LayerDatastore,
		overlay.LayerApp,
	} {
		if err := e.applyLayer(ctx, log, rec, unit.Set.ByLayer(layer)); err != nil {
			return rec.finalize(StatusFailed, err), err
		}
	}

	status := StatusSucceeded
	if len(rec.Skipped()) > 0 {
		status = StatusPartiallyDegraded
	}
	rec.finalize(status, nil)
	log.Info("rollout complete", "status", string(status), "duration", rec.Duration)
	return rec, nil
}

// applyLayer applies every resource in one layer and then readiness-gates
// the layer's workloads. Datastore workloads therefore reach ready before
// any app workload is applied.
func (e *Executor) applyLayer(ctx context.Context, log *slog.Logger, rec *Record, resources []*overlay.Resource) error {
	var waitFor []*overlay.Resource
	for _, res := range resources {
		outcome, err := e.applyOne(ctx, res)
		if err != nil {
			if res.Optional && apperrors.IsCode(err, apperrors.ErrCodeOptionalUnavailable) {
				rec.add(res.ID(), res.Kind, EntrySkippedOptional, err.Error())
				rec.warn(fmt.Sprintf("optional %s skipped: %s", res.ID(), err.Error()))
				resourcesApplied.WithLabelValues(string(EntrySkippedOptional)).Inc()
				log.Warn("skipping optional resource", "resource", res.ID(), "reason", err.Error())
				continue
			}
			rec.add(res.ID(), res.Kind, EntryFailed, err.Error())
			resourcesApplied.WithLabelValues(string(EntryFailed)).Inc()
			return fmt.Errorf("failed to apply %s: %w", res.ID(), err)
		}
		entryOutcome := EntryApplied
		if outcome == OutcomeUnchanged {
			entryOutcome = EntryUnchanged
		}
		rec.add(res.ID(), res.Kind, entryOutcome, string(outcome))
		resourcesApplied.WithLabelValues(string(entryOutcome)).Inc()
		log.Debug("applied resource", "resource", res.ID(), "outcome", string(outcome))
		if isWorkload(res) {
			waitFor = append(waitFor, res)
		}
	}
	for _, res := range waitFor {
		if err := e.awaitReady(ctx, res); err != nil {
			rec.add(res.ID(), res.Kind, EntryFailed, err.Error())
			return err
		}
		log.Debug("workload ready", "resource", res.ID())
	}
	return nil
}

func (e *Executor) applyOne(ctx context.Context, res *overlay.Resource) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, e.applyTimeout)
	defer cancel()
	return e.applier.Apply(ctx, res)
}

// RunAll rolls out independent units concurrently. A fatal error aborts its
// own unit only: every unit runs on the caller's context, not a shared
// derived one, so siblings always reach their own terminal state. Records
// are returned for every unit, including failed ones; the returned error is
// the first unit failure.
func (e *Executor) RunAll(ctx context.Context, units []*Unit) ([]*Record, error) {
	records := make([]*Record, len(units))
	var mu sync.Mutex

	var g errgroup.Group
	for i, unit := range units {
		g.Go(func() error {
			rec, err := e.Run(ctx, unit)
			mu.Lock()
			records[i] = rec
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()
	return records, err
}

// Delete tears a unit down in reverse layer order, tolerating resources that
// are already absent.
func (e *Executor) Delete(ctx context.Context, unit *Unit) (*Record, error) {
	rec := newRecord(unit.Service, unit.Environment)
	log := slog.With("service", unit.Service, "environment", unit.Environment, "rollout", rec.ID)
	log.Info("starting teardown", "namespace", unit.Set.Namespace)

	for _, layer := range []overlay.Layer{
		overlay.LayerApp,
		overlay.LayerDatastore,
		overlay.LayerSecret,
		overlay.LayerInfra,
	} {
		for _, res := range unit.Set.ByLayer(layer) {
			dctx, cancel := context.WithTimeout(ctx, defaults.DeleteTimeout)
			err := e.applier.Delete(dctx, res)
			cancel()
			if err != nil {
				rec.add(res.ID(), res.Kind, EntryFailed, err.Error())
				resourcesApplied.WithLabelValues(string(EntryFailed)).Inc()
				return rec.finalize(StatusFailed, err), fmt.Errorf("failed to delete %s: %w", res.ID(), err)
			}
			rec.add(res.ID(), res.Kind, EntryDeleted, "")
			resourcesApplied.WithLabelValues(string(EntryDeleted)).Inc()
		}
	}
	rec.finalize(StatusSucceeded, nil)
	log.Info("teardown complete", "duration", rec.Duration)
	return rec, nil
}

func isWorkload(res *overlay.Resource) bool {
	switch res.Kind {
	case "Deployment", "StatefulSet":
		return !res.Optional
	default:
		return false
	}
}
