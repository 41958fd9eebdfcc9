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

// Package cli implements the drydock command-line interface.
//
// # Commands
//
// deploy - Apply a service (or the full stack) to an environment:
//
//	drydock deploy wiki --env staging
//
// Resources apply in dependency order with bounded readiness waits.
// Redeploys are idempotent and never rotate credentials.
//
// delete - Remove a deployed service, reverse order, absence tolerated:
//
//	drydock delete wiki --env staging
//
// generate-secrets - Materialize credential material up front:
//
//	drydock generate-secrets all --env prod
//
// verify - Check a deployed service from the outside:
//
//	drydock verify wiki --env prod
//
// render - Write composed manifests to a directory or OCI registry:
//
//	drydock render all --env staging --output oci://ghcr.io/drydock-sh/bundles:v1
//
// bring-up - Provision add-ons, the environment namespace, and images:
//
//	drydock bring-up --env dev --with-monitoring
//
// # Exit codes
//
// 0 on success, 1 on failure, 3 on success with skipped optional
// capabilities or advisory warnings.
package cli
