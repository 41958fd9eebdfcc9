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
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Class splits findings into hard failures and advisory warnings. Failures
// mean the service is not serving; warnings flag conditions worth a look
// (restart churn, suspicious log lines) that do not fail verification.
type Class string

const (
	ClassFailure Class = "failure"
	ClassWarning Class = "warning"
)

// Check is one verification finding.
type Check struct {
	Name   string `json:"name" yaml:"name"`
	Class  Class  `json:"class" yaml:"class"`
	OK     bool   `json:"ok" yaml:"ok"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Report aggregates the checks for one service in one environment.
type Report struct {
	Service     string    `json:"service" yaml:"service"`
	Environment string    `json:"environment" yaml:"environment"`
	Checks      []Check   `json:"checks" yaml:"checks"`
	Verified    time.Time `json:"verified" yaml:"verified"`
}

func (r *Report) add(name string, class Class, ok bool, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, Class: class, OK: ok, Detail: detail})
}

// Failures returns the failed hard checks.
func (r *Report) Failures() []Check {
	return r.filter(ClassFailure)
}

// Warnings returns the failed advisory checks.
func (r *Report) Warnings() []Check {
	return r.filter(ClassWarning)
}

func (r *Report) filter(class Class) []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.OK && c.Class == class {
			out = append(out, c)
		}
	}
	return out
}

// Healthy reports whether no hard check failed. Warnings do not count.
func (r *Report) Healthy() bool {
	return len(r.Failures()) == 0
}

// ExitCode maps the report to a process exit code: 0 healthy, 3 healthy
// with warnings, 1 otherwise.
func (r *Report) ExitCode() int {
	if !r.Healthy() {
		return 1
	}
	if len(r.Warnings()) > 0 {
		return 3
	}
	return 0
}

// String renders a human-readable summary, one line per check.
func (r *Report) String() string {
	titler := cases.Title(language.English)
	var b strings.Builder
	fmt.Fprintf(&b, "%s @ %s\n", r.Service, r.Environment)
	for _, c := range r.Checks {
		mark := "ok"
		if !c.OK {
			mark = string(c.Class)
		}
		fmt.Fprintf(&b, "  [%s] %s", mark, titler.String(strings.ReplaceAll(c.Name, "-", " ")))
		if c.Detail != "" {
			fmt.Fprintf(&b, ": %s", c.Detail)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
