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

	"github.com/drydock-sh/drydock/pkg/config"
	"github.com/drydock-sh/drydock/pkg/environment"
	"github.com/drydock-sh/drydock/pkg/overlay"
	"github.com/drydock-sh/drydock/pkg/rollout"
	"github.com/drydock-sh/drydock/pkg/secrets"
	"github.com/drydock-sh/drydock/pkg/stack"
)

func deployCmd() *cli.Command {
	return &cli.Command{
		Name:                  "deploy",
		EnableShellCompletion: true,
		Usage:                 "Deploy a service (or the full stack) to an environment",
		ArgsUsage:             "<service|all>",
		Description: `Compose the service's resources for the target environment and apply them
in dependency order: infrastructure, secrets, datastore, then app. Datastore
workloads must reach readiness before app workloads are applied. Secret
material is generated on first use and reused on every subsequent deploy.

Exit codes: 0 success, 3 success with skipped optional capabilities,
1 failure. Failed rollouts leave applied resources in place; there is no
automatic rollback.

# Examples

  drydock deploy wiki --env staging
  drydock deploy all --env dev --timeout 10m`,
		Flags: []cli.Flag{
			envFlag,
			kubeconfigFlag,
			environmentsFileFlag,
			secretsDirFlag,
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-unit readiness wait (default 5m)",
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
			units, err := composeUnits(services, env, cfg, true)
			if err != nil {
				return err
			}

			client, dyn, err := newKubeClients(cfg.Kubeconfig)
			if err != nil {
				return err
			}
			exec := rollout.NewExecutor(rollout.NewKubeApplier(client, dyn),
				rollout.WithReadinessTimeout(cfg.ReadinessTimeout),
				rollout.WithApplyTimeout(cfg.ApplyTimeout))

			records, runErr := exec.RunAll(ctx, units)
			return reportRecords(cmd, records, runErr)
		},
	}
}

func deleteCmd() *cli.Command {
	return &cli.Command{
		Name:                  "delete",
		EnableShellCompletion: true,
		Usage:                 "Remove a deployed service from an environment",
		ArgsUsage:             "<service|all>",
		Description: `Delete the service's resources in reverse dependency order: app,
datastore, secret, then infrastructure. Resources that are already absent
are ignored, so delete is safe to re-run. Stored secret material is kept so
a later deploy reuses the same credentials.`,
		Flags: []cli.Flag{
			envFlag,
			kubeconfigFlag,
			environmentsFileFlag,
			secretsDirFlag,
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
			units, err := composeUnits(services, env, cfg, true)
			if err != nil {
				return err
			}

			client, dyn, err := newKubeClients(cfg.Kubeconfig)
			if err != nil {
				return err
			}
			exec := rollout.NewExecutor(rollout.NewKubeApplier(client, dyn))

			var records []*rollout.Record
			for _, unit := range units {
				rec, derr := exec.Delete(ctx, unit)
				records = append(records, rec)
				if derr != nil {
					return reportRecords(cmd, records, derr)
				}
			}
			return reportRecords(cmd, records, nil)
		},
	}
}

// composeUnits builds one deployment unit per service. When withSecrets is
// set, credential material is ensured (reusing stored values) and the
// resulting Secret resource registered in each set.
func composeUnits(services []*stack.ServiceDescriptor, env *environment.Environment, cfg *config.Config, withSecrets bool) ([]*rollout.Unit, error) {
	mat := secrets.NewMaterializer(secrets.NewStore(cfg.SecretsDir))

	units := make([]*rollout.Unit, 0, len(services))
	for _, svc := range services {
		set, err := overlay.Compose(svc, env)
		if err != nil {
			return nil, err
		}
		if withSecrets {
			material, err := mat.Ensure(svc, env, secrets.ReuseIfPresent, secrets.SourceRandom)
			if err != nil {
				return nil, err
			}
			mat.Register(set, material)
		}
		units = append(units, &rollout.Unit{Service: svc.Name, Environment: env.ID, Set: set})
	}
	return units, nil
}

// reportRecords prints one summary line per unit and maps the worst outcome
// to the process exit code.
func reportRecords(cmd *cli.Command, records []*rollout.Record, runErr error) error {
	worst := 0
	var firstErr error
	for _, rec := range records {
		if rec == nil {
			continue
		}
		fmt.Fprintln(cmd.Writer, rec.Summary())
		for _, skip := range rec.Skipped() {
			fmt.Fprintf(cmd.Writer, "  skipped optional %s: %s\n", skip.Resource, skip.Detail)
		}
		worst = maxExit(worst, rec.ExitCode())
		if rec.Err != nil && firstErr == nil {
			firstErr = rec.Err
		}
	}
	if runErr != nil && firstErr == nil {
		firstErr = runErr
	}
	switch worst {
	case 0:
		return nil
	case 1:
		msg := "rollout failed"
		if firstErr != nil {
			msg = firstErr.Error()
		}
		return cli.Exit(msg, 1)
	default:
		return cli.Exit("completed with skipped optional capabilities", worst)
	}
}

// maxExit orders exit codes by severity: 1 (failure) outranks 3 (degraded)
// which outranks 0.
func maxExit(a, b int) int {
	rank := func(c int) int {
		switch c {
		case 1:
			return 2
		case 3:
			return 1
		default:
			return 0
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
