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
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the terminal state of a deployment unit.
type Status string

const (
	// StatusSucceeded means every resource applied and reported ready.
	StatusSucceeded Status = "Succeeded"

	// StatusFailed means a required resource failed to apply or the
	// readiness wait expired. Already-applied resources are left in place.
	StatusFailed Status = "Failed"

	// StatusPartiallyDegraded means required resources succeeded but one or
	// more optional capability resources were skipped.
	StatusPartiallyDegraded Status = "PartiallyDegraded"
)

// EntryOutcome classifies the per-resource apply result.
type EntryOutcome string

const (
	// EntryApplied means the resource was created or updated.
	EntryApplied EntryOutcome = "applied"

	// EntryUnchanged means the live resource already matched; no mutation.
	EntryUnchanged EntryOutcome = "unchanged"

	// EntrySkippedOptional means an optional capability resource was skipped
	// because its controller or API group is not installed.
	EntrySkippedOptional EntryOutcome = "skipped-optional"

	// EntryFailed means a required resource failed fatally.
	EntryFailed EntryOutcome = "failed"

	// EntryDeleted means the resource was removed during teardown.
	EntryDeleted EntryOutcome = "deleted"
)

// Entry is the outcome of one resource operation.
type Entry struct {
	Resource string       `json:"resource" yaml:"resource"`
	Kind     string       `json:"kind" yaml:"kind"`
	Outcome  EntryOutcome `json:"outcome" yaml:"outcome"`
	Detail   string       `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Record is the outcome of applying one deployment unit. It is created at
// rollout start, finalized at verification, and surfaced to the caller as a
// report and exit status. It has no persistent identity beyond the run.
type Record struct {
	ID          string        `json:"id" yaml:"id"`
	Service     string        `json:"service" yaml:"service"`
	Environment string        `json:"environment" yaml:"environment"`
	Status      Status        `json:"status" yaml:"status"`
	Entries     []Entry       `json:"entries" yaml:"entries"`
	Warnings    []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Started     time.Time     `json:"started" yaml:"started"`
	Completed   time.Time     `json:"completed" yaml:"completed"`
	Duration    time.Duration `json:"duration" yaml:"duration"`

	// Err is the fatal error for Failed records, nil otherwise.
	Err error `json:"-" yaml:"-"`
}

func newRecord(service, env string) *Record {
	return &Record{
		ID:          uuid.NewString(),
		Service:     service,
		Environment: env,
		Started:     time.Now().UTC(),
	}
}

func (r *Record) add(resource, kind string, outcome EntryOutcome, detail string) {
	r.Entries = append(r.Entries, Entry{Resource: resource, Kind: kind, Outcome: outcome, Detail: detail})
}

func (r *Record) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r *Record) finalize(status Status, err error) *Record {
	r.Status = status
	r.Err = err
	r.Completed = time.Now().UTC()
	r.Duration = r.Completed.Sub(r.Started)
	rolloutsTotal.WithLabelValues(string(status)).Inc()
	rolloutDuration.Observe(r.Duration.Seconds())
	return r
}

// Skipped returns the entries for resources skipped as optional.
func (r *Record) Skipped() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Outcome == EntrySkippedOptional {
			out = append(out, e)
		}
	}
	return out
}

// Summary returns a one-line human-readable result.
func (r *Record) Summary() string {
	return fmt.Sprintf("%s@%s: %s (%d resources, %d warnings, %v)",
		r.Service, r.Environment, r.Status,
		len(r.Entries), len(r.Warnings), r.Duration.Round(time.Millisecond))
}

// ExitCode maps the terminal status to a process exit code: 0 for success,
// 1 for failure, 3 for success with skipped optional capabilities (distinct
// so CI can tell degraded rollouts apart).
func (r *Record) ExitCode() int {
	switch r.Status {
	case StatusSucceeded:
		return 0
	case StatusPartiallyDegraded:
		return 3
	default:
		return 1
	}
}
