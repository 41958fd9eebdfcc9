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
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/drydock-sh/drydock/pkg/health"
	"github.com/drydock-sh/drydock/pkg/serializer"
)

func verifyCmd() *cli.Command {
	return &cli.Command{
		Name:                  "verify",
		EnableShellCompletion: true,
		Usage:                 "Verify a deployed service is actually serving",
		ArgsUsage:             "<service|all>",
		Description: `Check the deployed service from the outside: pod readiness, service
endpoints, ingress hostname binding, HTTP reachability, and a scan of recent
container logs. Failures mean the service is not serving; warnings (restart
churn, suspicious log lines) are advisory and map to exit code 3.`,
		Flags: []cli.Flag{
			envFlag,
			kubeconfigFlag,
			environmentsFileFlag,
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"t"},
				Usage:   fmt.Sprintf("Report format (supported values: %s)", serializer.SupportedFormats()),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Report file path (default: stdout)",
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
			client, _, err := newKubeClients(cfg.Kubeconfig)
			if err != nil {
				return err
			}

			verifier := health.NewVerifier(client)
			worst := 0
			var reports []*health.Report
			for _, svc := range services {
				rep, err := verifier.Verify(ctx, svc, env)
				if err != nil {
					return err
				}
				reports = append(reports, rep)
				worst = maxExit(worst, rep.ExitCode())
			}

			if format := cmd.String("format"); format != "" {
				outFormat := serializer.Format(format)
				if outFormat.IsUnknown() {
					return fmt.Errorf("unknown report format: %q", format)
				}
				w := serializer.NewFileWriterOrStdout(outFormat, cmd.String("output"))
				defer func() {
					if err := w.Close(); err != nil {
						slog.Warn("failed to close report writer", "error", err)
					}
				}()
				if err := w.Serialize(reports); err != nil {
					return err
				}
			} else {
				for _, rep := range reports {
					fmt.Fprint(cmd.Writer, rep.String())
				}
			}
			switch worst {
			case 0:
				return nil
			case 1:
				return cli.Exit("verification failed", 1)
			default:
				return cli.Exit("verification passed with warnings", worst)
			}
		},
	}
}
