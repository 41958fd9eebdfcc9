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

package oci

import (
	"fmt"
	"strings"

	"github.com/distribution/reference"

	apperrors "github.com/drydock-sh/drydock/pkg/errors"
)

// URIScheme marks an output target as an OCI registry reference
// (e.g. "oci://ghcr.io/org/bundles:v1").
const URIScheme = "oci://"

// Reference is a parsed render output target: either an OCI registry
// reference or a local directory path.
type Reference struct {
	// IsOCI indicates an OCI registry reference rather than a local path.
	IsOCI bool

	// Registry is the registry host. Only set when IsOCI is true.
	Registry string

	// Repository is the image repository path. Only set when IsOCI is true.
	Repository string

	// Tag is the image tag. Empty means none was specified; the caller
	// applies a default.
	Tag string

	// LocalPath is the directory path for non-OCI output.
	LocalPath string
}

// ParseOutputTarget parses an output target string. Targets with the oci://
// scheme are validated as image references; anything else is a local
// directory.
func ParseOutputTarget(target string) (*Reference, error) {
	if !strings.HasPrefix(target, URIScheme) {
		return &Reference{LocalPath: target}, nil
	}

	ref, err := reference.ParseNormalizedNamed(strings.TrimPrefix(target, URIScheme))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidRequest, "invalid OCI reference", err)
	}

	out := &Reference{
		IsOCI:      true,
		Registry:   reference.Domain(ref),
		Repository: reference.Path(ref),
	}
	if tagged, ok := ref.(reference.Tagged); ok {
		out.Tag = tagged.Tag()
	}
	return out, nil
}

// String returns the full target string in its original form.
func (r *Reference) String() string {
	if !r.IsOCI {
		return r.LocalPath
	}
	if r.Tag == "" {
		return fmt.Sprintf("%s%s/%s", URIScheme, r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s%s/%s:%s", URIScheme, r.Registry, r.Repository, r.Tag)
}

// ImageReference returns the Docker-style reference without the scheme, or
// an empty string for local paths.
func (r *Reference) ImageReference() string {
	if !r.IsOCI {
		return ""
	}
	if r.Tag == "" {
		return fmt.Sprintf("%s/%s", r.Registry, r.Repository)
	}
	return fmt.Sprintf("%s/%s:%s", r.Registry, r.Repository, r.Tag)
}

// WithTag returns a copy with the tag set. Local path references are
// returned unchanged.
func (r *Reference) WithTag(tag string) *Reference {
	if !r.IsOCI {
		return r
	}
	return &Reference{IsOCI: true, Registry: r.Registry, Repository: r.Repository, Tag: tag}
}
