/*
Copyright 2026 The Nixpacks Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/app"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/planner"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/providers"
)

// For testing
var (
	environ  = os.Environ
	registry = providers.Default
)

func appPath(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

// loadApp opens the application and collects its environment: NIXPACKS_
// variables of the process, then env files, then --env.
func loadApp(args []string) (*app.App, *app.Environment, error) {
	a, err := app.New(appPath(args))
	if err != nil {
		return nil, nil, err
	}

	env := app.NewEnvironment()
	env.AddProcessVariables(environ())
	if err := env.LoadEnvFiles(opts.EnvFiles...); err != nil {
		return nil, nil, err
	}
	if err := env.AddEnvs(opts.Envs); err != nil {
		return nil, nil, errors.Wrap(err, "parsing --env")
	}
	return a, env, nil
}

func resolvePlan(ctx context.Context, a *app.App, env *app.Environment) (*plan.BuildPlan, error) {
	if opts.PlanFile != "" {
		return planner.LoadPlan(opts.PlanFile)
	}
	return planner.New(registry()).GeneratePlan(ctx, a, env, opts)
}
