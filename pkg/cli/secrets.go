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
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/drydock-sh/drydock/pkg/secrets"
)

func secretsCmd() *cli.Command {
	return &cli.Command{
		Name:                  "generate-secrets",
		EnableShellCompletion: true,
		Usage:                 "Generate credential material for a service in an environment",
		ArgsUsage:             "<service|all>",
		Description: `Generate the credential material a deployment will mount: a session secret
plus datastore credentials for services that own one. Existing material is
reused unless --rotate is given; rotation is always explicit.

Without --random, values are deterministic convenience defaults for local
work. Environments that forbid default credentials (prod) reject that with a
policy violation and write nothing.

Secret values are never printed. The command reports only the store paths
and key names.`,
		Flags: []cli.Flag{
			envFlag,
			environmentsFileFlag,
			secretsDirFlag,
			&cli.BoolFlag{
				Name:  "rotate",
				Usage: "Discard stored material and generate new values",
			},
			&cli.BoolFlag{
				Name:  "random",
				Usage: "Draw values from a cryptographically strong random source",
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

			mode := secrets.ReuseIfPresent
			if cmd.Bool("rotate") {
				mode = secrets.ForceRegenerate
			}
			source := secrets.SourceDefaults
			if cmd.Bool("random") {
				source = secrets.SourceRandom
			}

			store := secrets.NewStore(cfg.SecretsDir)
			mat := secrets.NewMaterializer(store)
			for _, svc := range services {
				material, err := mat.Ensure(svc, env, mode, source)
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				fmt.Fprintf(cmd.Root().Writer, "%s: %s (keys: %s)\n",
					svc.Name,
					store.Path(env.ID, svc.Name),
					strings.Join(material.Keys(), ", "))
			}
			return nil
		},
	}
}
