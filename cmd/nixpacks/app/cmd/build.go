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
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/build"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/color"
)

// For testing
var runBuild = build.Build

// NewCmdBuild describes the command to build an image for an application.
func NewCmdBuild(out io.Writer) *cobra.Command {
	return NewCmd(out, "build [path]").
		WithDescription("Build a container image for an application").
		WithLongDescription(`Generates the plan of the application, writes the Dockerfile and nix
expressions next to a copy of the source and runs docker build on it.
With --out the build files are written and no image is built.`).
		WithExample("  nixpacks build . --name my-app\n  nixpacks build . --out ./context\n  nixpacks build . --incremental-cache --cache-key my-app").
		WithFlags(func(f *pflag.FlagSet) {
			AddPlanFlags(f)
			AddBuildFlags(f)
		}).
		MaximumArgs(1, doBuild)
}

func doBuild(ctx context.Context, out io.Writer, args []string) error {
	a, env, err := loadApp(args)
	if err != nil {
		return err
	}
	bp, err := resolvePlan(ctx, a, env)
	if err != nil {
		return err
	}

	result, err := runBuild(ctx, out, a, bp, opts)
	if err != nil {
		return err
	}
	if result.Image == "" {
		color.Fprintf(out, color.Green, "Build files written to %s\n", result.OutDir)
		return nil
	}
	color.Fprintf(out, color.Green, "Successfully built %s\n", result.Image)
	return nil
}
