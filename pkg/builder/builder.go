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

// Package builder produces and publishes container images for app
// components ahead of a rollout. Datastore components run upstream images
// and are never built.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"

	"github.com/distribution/reference"
	"golang.org/x/sync/errgroup"

	"github.com/drydock-sh/drydock/pkg/defaults"
	"github.com/drydock-sh/drydock/pkg/environment"
	apperrors "github.com/drydock-sh/drydock/pkg/errors"
	"github.com/drydock-sh/drydock/pkg/stack"
	"github.com/drydock-sh/drydock/pkg/version"
)

// Builder builds and publishes one image from a build context directory.
type Builder interface {
	Build(ctx context.Context, contextDir, image string) error
	Push(ctx context.Context, image string) error
}

// DockerBuilder shells out to the docker CLI.
type DockerBuilder struct {
	bin string
}

// NewDockerBuilder locates the docker binary. A missing binary is a
// prerequisite error so callers can report it before any work starts.
func NewDockerBuilder() (*DockerBuilder, error) {
	bin, err := exec.LookPath("docker")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodePrerequisiteMissing,
			"docker binary not found on PATH", err)
	}
	return &DockerBuilder{bin: bin}, nil
}

// Build implements Builder.
func (d *DockerBuilder) Build(ctx context.Context, contextDir, image string) error {
	cmd := exec.CommandContext(ctx, d.bin, "build", "--tag", image, contextDir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to build %s: %w: %s", image, err, string(out))
	}
	return nil
}

// Push implements Builder.
func (d *DockerBuilder) Push(ctx context.Context, image string) error {
	cmd := exec.CommandContext(ctx, d.bin, "push", image)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to push %s: %w: %s", image, err, string(out))
	}
	return nil
}

// BuildAll builds and pushes every app component image for the service,
// targeting the environment registry. Components build concurrently; the
// first failure cancels the rest. The published references are returned
// sorted for deterministic reporting.
func BuildAll(ctx context.Context, b Builder, svc *stack.ServiceDescriptor, env *environment.Environment, srcRoot string) ([]string, error) {
	var (
		mu     sync.Mutex
		images []string
	)
	g, ctx := errgroup.WithContext(ctx)

	for i := range svc.Components {
		comp := &svc.Components[i]
		if comp.Kind != stack.KindApp {
			continue
		}
		if _, err := version.Parse(comp.Version); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid version for component %s", comp.Name), err)
		}
		image := env.ImageRef(comp.Repository, comp.Version)
		if _, err := reference.ParseNormalizedNamed(image); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid image reference %s", image), err)
		}
		contextDir := filepath.Join(srcRoot, comp.Name)

		g.Go(func() error {
			bctx, cancel := context.WithTimeout(ctx, defaults.ImageBuildTimeout)
			defer cancel()
			slog.Info("building image", "component", comp.Name, "image", image)
			if err := b.Build(bctx, contextDir, image); err != nil {
				return err
			}
			if err := b.Push(bctx, image); err != nil {
				return err
			}
			mu.Lock()
			images = append(images, image)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(images)
	return images, nil
}
