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
	"github.com/spf13/pflag"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
)

// AddPlanFlags registers the flags that change the generated plan.
func AddPlanFlags(f *pflag.FlagSet) {
	f.StringVarP(&opts.InstallCmd, "install-cmd", "i", "", "Replace the commands of the install phase")
	f.StringVarP(&opts.BuildCmd, "build-cmd", "b", "", "Replace the commands of the build phase")
	f.StringVarP(&opts.StartCmd, "start-cmd", "s", "", "Replace the start command")
	f.StringSliceVarP(&opts.Pkgs, "pkgs", "p", nil, "Add nix packages to the setup phase")
	f.StringSliceVar(&opts.AptPkgs, "apt", nil, "Add apt packages to the setup phase")
	f.StringSliceVar(&opts.Libs, "libs", nil, "Add nix libraries to the setup phase")
	f.StringArrayVarP(&opts.Envs, "env", "e", nil, "Set environment variables, KEY=VALUE or KEY to copy it from the current environment")
	f.StringArrayVar(&opts.EnvFiles, "env-file", nil, "Read environment variables from a dotenv file")
	f.StringVarP(&opts.ConfigFile, "config", "c", "", "Plan file merged over the provider plans, relative to the application")
}

// AddBuildFlags registers the flags of the build command.
func AddBuildFlags(f *pflag.FlagSet) {
	f.StringVar(&opts.PlanFile, "plan", "", "Build a previously generated plan instead of generating one")
	f.StringVar(&opts.Name, "name", "", "Name of the image, generated when empty")
	f.StringArrayVarP(&opts.Tags, "tag", "t", nil, "Additional image tags")
	f.StringArrayVarP(&opts.Labels, "label", "l", nil, "Image labels, KEY=VALUE")
	f.StringSliceVar(&opts.Platforms, "platform", nil, "Target platforms, for example linux/amd64")
	f.StringVarP(&opts.OutDir, "out", "o", "", "Write the build context to this directory and stop")
	f.BoolVar(&opts.NoCache, "no-cache", false, "Build without cache mounts and without the docker layer cache")
	AddCacheFlags(f)
	f.BoolVar(&opts.IncrementalCache, "incremental-cache", false, "Carry cache directories across builds as archives instead of cache mounts")
	f.StringVar(&opts.CacheImage, "incremental-cache-image", "", "Restore archives from this image before the build and export them to it afterwards")
	f.IntVar(&opts.CachePort, "cache-port", constants.DefaultCachePort, "Port of the endpoint receiving cache archives")
	f.StringVar(&opts.NixpkgsArchive, "nixpkgs-archive", "", "Default nixpkgs revision of phases that do not pin one")
}

// AddCacheFlags registers the flags locating the staged cache archives.
func AddCacheFlags(f *pflag.FlagSet) {
	f.StringVar(&opts.CacheKey, "cache-key", "", "Key namespacing cache mounts and staged archives")
	f.StringVar(&opts.CacheDir, "cache-dir", "", "Directory staging cache archives, ~/.nixpacks/cache/<cache key> by default")
}
