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
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nixpacks-go/nixpacks/cmd/nixpacks/app/flags"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/config"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/server"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/version"
)

var (
	opts = config.NixpacksOptions{}
	v    string
)

func NewNixpacksCommand(out, errOut io.Writer) *cobra.Command {
	opts = config.NixpacksOptions{}
	serveOpts = server.Options{}
	planFormat = flags.NewFormatFlag(plan.JSON)
	detectFormat = flags.NewTemplateFlag(defaultDetectTemplate, DetectOutput{})
	versionFlag = flags.NewTemplateFlag(defaultVersionTemplate, version.Info{})

	rootCmd := &cobra.Command{
		Use:   "nixpacks",
		Short: "Turns application source into a build plan and a container image.",
		Long: `Nixpacks detects the language of an application, resolves a build plan
from providers, config files, environment variables and flags, and renders
it into a Dockerfile with nix expressions for the system packages.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := log.SetupLogs(errOut, v); err != nil {
			return errors.Wrap(err, "parsing log level")
		}
		log.Entry(cmd.Context()).Debugf("nixpacks %+v", version.Get())
		return nil
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.AddCommand(NewCmdPlan(out))
	rootCmd.AddCommand(NewCmdDetect(out))
	rootCmd.AddCommand(NewCmdBuild(out))
	rootCmd.AddCommand(NewCmdServe(out))
	rootCmd.AddCommand(NewCmdCache(out))
	rootCmd.AddCommand(NewCmdVersion(out))

	rootCmd.PersistentFlags().StringVarP(&v, "verbosity", "v", constants.DefaultLogLevel.String(), "Log level (debug, info, warn, error, fatal, panic)")
	return rootCmd
}
