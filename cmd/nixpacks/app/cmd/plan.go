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

	"github.com/nixpacks-go/nixpacks/cmd/nixpacks/app/flags"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
)

var planFormat = flags.NewFormatFlag(plan.JSON)

// NewCmdPlan describes the command to print the resolved plan of an application.
func NewCmdPlan(out io.Writer) *cobra.Command {
	return NewCmd(out, "plan [path]").
		WithDescription("Print the build plan of an application").
		WithExample("  nixpacks plan . --format toml\n  nixpacks plan ./api --pkgs ffmpeg --start-cmd 'node server.js'").
		WithFlags(func(f *pflag.FlagSet) {
			AddPlanFlags(f)
			f.VarP(planFormat, "format", "f", planFormat.Usage())
		}).
		MaximumArgs(1, doPlan)
}

func doPlan(ctx context.Context, out io.Writer, args []string) error {
	a, env, err := loadApp(args)
	if err != nil {
		return err
	}
	bp, err := resolvePlan(ctx, a, env)
	if err != nil {
		return err
	}
	data, err := plan.Encode(bp, planFormat.Format())
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
