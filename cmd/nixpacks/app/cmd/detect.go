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
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/planner"
)

// DetectOutput is the context of the detect output template.
type DetectOutput struct {
	Path      string
	Providers []string
}

const defaultDetectTemplate = "{{range .Providers}}{{.}}\n{{end}}"

var detectFormat = flags.NewTemplateFlag(defaultDetectTemplate, DetectOutput{})

// NewCmdDetect describes the command to print the providers building an application.
func NewCmdDetect(out io.Writer) *cobra.Command {
	return NewCmd(out, "detect [path]").
		WithDescription("Print the providers that build an application").
		WithFlags(func(f *pflag.FlagSet) {
			f.StringVarP(&opts.ConfigFile, "config", "c", "", "Plan file that may list providers, relative to the application")
			f.VarP(detectFormat, "output", "o", detectFormat.Usage())
		}).
		MaximumArgs(1, doDetect)
}

func doDetect(ctx context.Context, out io.Writer, args []string) error {
	a, env, err := loadApp(args)
	if err != nil {
		return err
	}
	fileConfig, err := planner.ReadFileConfig(a, env, opts.ConfigFile)
	if err != nil {
		return err
	}
	names, err := planner.New(registry()).DetectProviders(ctx, a, env, fileConfig)
	if err != nil {
		return err
	}
	return detectFormat.Template().Execute(out, DetectOutput{Path: a.Source, Providers: names})
}
