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
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/drydock-sh/drydock/pkg/logging"
)

const name = "drydock"

// overridden during build with ldflags
var (
	version = "dev"
	commit  = "unknown"
)

var (
	envFlag = &cli.StringFlag{
		Name:     "env",
		Aliases:  []string{"e"},
		Usage:    "Target environment code (dev, staging, prod, or one defined in --environments-file)",
		Sources:  cli.EnvVars("DRYDOCK_ENV"),
		Required: true,
	}

	kubeconfigFlag = &cli.StringFlag{
		Name:    "kubeconfig",
		Usage:   "Path to the kubeconfig file (default: standard discovery)",
		Sources: cli.EnvVars("KUBECONFIG"),
	}

	environmentsFileFlag = &cli.StringFlag{
		Name:    "environments-file",
		Usage:   "YAML file with additional environment definitions",
		Sources: cli.EnvVars("DRYDOCK_ENVIRONMENTS"),
	}

	secretsDirFlag = &cli.StringFlag{
		Name:    "secrets-dir",
		Usage:   "Directory holding generated secret material (default: ~/.drydock/secrets)",
		Sources: cli.EnvVars("DRYDOCK_SECRETS_DIR"),
	}
)

// Root assembles the top-level command.
func Root() *cli.Command {
	return &cli.Command{
		Name:    name,
		Usage:   "Deploy services across isolated Kubernetes environments",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		// Return ExitCoder errors from Run instead of exiting inside the
		// library; Execute handles them via cli.HandleExitCoder.
		ExitErrHandler: func(ctx context.Context, cmd *cli.Command, err error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars(logging.LevelEnvVar),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			deployCmd(),
			deleteCmd(),
			secretsCmd(),
			verifyCmd(),
			renderCmd(),
			bringUpCmd(),
		},
	}
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command context so
// in-flight rollouts stop between resources and report Failed.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := Root().Run(ctx, os.Args); err != nil {
		if _, ok := err.(cli.ExitCoder); ok {
			cli.HandleExitCoder(err)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
