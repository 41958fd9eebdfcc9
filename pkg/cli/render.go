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

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/drydock-sh/drydock/pkg/oci"
)

func renderCmd() *cli.Command {
	return &cli.Command{
		Name:                  "render",
		EnableShellCompletion: true,
		Usage:                 "Render composed resources without applying them",
		ArgsUsage:             "<service|all>",
		Description: `Compose the service's resources for the target environment and write the
rendered manifests to a local directory or push them as an OCI artifact
(oci://registry/repository:tag). Rendering is deterministic: the same inputs
always produce the same bytes. Secret values appear redacted; rendered
output is safe to commit or publish.

# Examples

  drydock render wiki --env prod --output ./manifests
  drydock render all --env staging --output oci://ghcr.io/drydock-sh/bundles:v1`,
		Flags: []cli.Flag{
			envFlag,
			environmentsFileFlag,
			secretsDirFlag,
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "Output directory or oci:// reference",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "plain-http",
				Usage: "Use HTTP for the OCI registry connection",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			env, err := resolveEnvironment(cmd, cfg)
			if err != nil {
				return err
			}
			services, err := resolveServices(cmd.Args().First())
			if err != nil {
				return err
			}
			target, err := oci.ParseOutputTarget(cmd.String("output"))
			if err != nil {
				return err
			}

			units, err := composeUnits(services, env, cfg, true)
			if err != nil {
				return err
			}

			if !target.IsOCI {
				for _, unit := range units {
					dir := filepath.Join(target.LocalPath, env.ID, unit.Service)
					files, err := unit.Set.WriteDir(dir)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.Root().Writer, "%s: wrote %d manifests to %s\n", unit.Service, len(files), dir)
				}
				return nil
			}

			if target.Tag == "" {
				target = target.WithTag(version)
			}
			stage, err := os.MkdirTemp("", "drydock-render-*")
			if err != nil {
				return err
			}
			defer os.RemoveAll(stage)
			for _, unit := range units {
				if _, err := unit.Set.WriteDir(filepath.Join(stage, env.ID, unit.Service)); err != nil {
					return err
				}
			}

			result, err := oci.Push(ctx, oci.PushOptions{
				SourceDir: stage,
				Reference: target,
				PlainHTTP: cmd.Bool("plain-http"),
				Annotations: map[string]string{
					"org.opencontainers.image.version": version,
					"org.opencontainers.image.title":   fmt.Sprintf("drydock bundle (%s)", env.ID),
				},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.Writer, "pushed %s (%s)\n", result.Reference, result.Digest)
			return nil
		},
	}
}
