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

	"github.com/urfave/cli/v3"

	"github.com/drydock-sh/drydock/pkg/builder"
	"github.com/drydock-sh/drydock/pkg/installer"
	"github.com/drydock-sh/drydock/pkg/rollout"
)

func bringUpCmd() *cli.Command {
	return &cli.Command{
		Name:                  "bring-up",
		EnableShellCompletion: true,
		Usage:                 "Provision an environment end to end",
		Description: `Prepare an environment and deploy the full stack into it. In order:
install the cluster add-ons (ingress controller, cert-manager, optionally a
monitoring stack), create the environment namespace, build and push the app
images, then roll out every service.

Bring-up is the only operation that creates namespaces. A failed optional
add-on degrades the environment instead of failing it: rollouts there skip
the corresponding optional resources.`,
		Flags: []cli.Flag{
			envFlag,
			kubeconfigFlag,
			environmentsFileFlag,
			secretsDirFlag,
			&cli.BoolFlag{
				Name:  "with-monitoring",
				Usage: "Also install the optional monitoring stack",
			},
			&cli.BoolFlag{
				Name:  "skip-cluster",
				Usage: "Skip cluster add-on installation",
			},
			&cli.BoolFlag{
				Name:  "skip-build",
				Usage: "Skip building and pushing app images",
			},
			&cli.StringFlag{
				Name:  "src",
				Usage: "Root directory holding each component's build context",
				Value: ".",
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
			services, err := resolveServices("all")
			if err != nil {
				return err
			}

			if !cmd.Bool("skip-cluster") {
				helm, err := installer.NewHelmInstaller()
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				skipped, err := installer.InstallAll(ctx, helm, installer.Charts(cmd.Bool("with-monitoring")))
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				for _, release := range skipped {
					fmt.Fprintf(cmd.Writer, "skipped optional add-on: %s\n", release)
				}
			}

			client, dyn, err := newKubeClients(cfg.Kubeconfig)
			if err != nil {
				return err
			}
			applier := rollout.NewKubeApplier(client, dyn)
			if err := applier.EnsureNamespace(ctx, env.Namespace); err != nil {
				return fmt.Errorf("failed to ensure namespace %s: %w", env.Namespace, err)
			}
			fmt.Fprintf(cmd.Writer, "namespace %s ready\n", env.Namespace)

			if !cmd.Bool("skip-build") {
				docker, err := builder.NewDockerBuilder()
				if err != nil {
					return cli.Exit(err.Error(), 1)
				}
				for _, svc := range services {
					images, err := builder.BuildAll(ctx, docker, svc, env, cmd.String("src"))
					if err != nil {
						return err
					}
					for _, image := range images {
						fmt.Fprintf(cmd.Writer, "pushed %s\n", image)
					}
				}
			}

			units, err := composeUnits(services, env, cfg, true)
			if err != nil {
				return err
			}
			exec := rollout.NewExecutor(applier,
				rollout.WithReadinessTimeout(cfg.ReadinessTimeout),
				rollout.WithApplyTimeout(cfg.ApplyTimeout))
			records, runErr := exec.RunAll(ctx, units)
			return reportRecords(cmd, records, runErr)
		},
	}
}
