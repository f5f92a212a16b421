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

package planner

import (
	"testing"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/config"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
	"github.com/nixpacks-go/nixpacks/testutil"
)

func TestFromEnvironment(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		e := env(t,
			"NIXPACKS_PKGS=ffmpeg, git",
			"NIXPACKS_LIBS=zlib",
			"NIXPACKS_NIXPKGS_ARCHIVE=abc",
			"NIXPACKS_BUILD_CMD=make",
			"NIXPACKS_BUILD_CACHE_DIRS=.cache,/tmp/x",
			"NIXPACKS_INSTALL_CACHE_DIRS=vendor",
			"NIXPACKS_RUN_IMAGE=alpine",
			"PORT=8080",
		)

		bp := FromEnvironment(e)

		setup := bp.GetPhase(constants.SetupPhase)
		t.CheckDeepEqual(plan.Pkgs("...", "ffmpeg", "git"), setup.NixPkgs)
		t.CheckDeepEqual([]string{"...", "zlib"}, setup.NixLibs)
		t.CheckNil(setup.AptPkgs)
		t.CheckDeepEqual("abc", setup.NixpacksArchive)

		install := bp.GetPhase(constants.InstallPhase)
		t.CheckNil(install.Cmds)
		t.CheckDeepEqual([]string{"...", "vendor"}, install.CacheDirectories)

		build := bp.GetPhase(constants.BuildPhase)
		t.CheckDeepEqual([]string{"make"}, build.Cmds)
		t.CheckDeepEqual([]string{"...", ".cache", "/tmp/x"}, build.CacheDirectories)

		t.CheckDeepEqual("", bp.Start.Cmd)
		t.CheckDeepEqual("alpine", bp.Start.RunImage)
		t.CheckDeepEqual(map[string]string{"PORT": "8080"}, bp.Variables)
	})
	testutil.Run(t, "empty", func(t *testutil.T) {
		bp := FromEnvironment(env(t, "NIXPACKS_NO_CACHE=1"))

		t.CheckNil(bp.Phases)
		t.CheckNil(bp.Start)
		t.CheckNil(bp.Variables)
	})
}

func TestFromOptions(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		bp := FromOptions(config.NixpacksOptions{
			InstallCmd: " npm ci ",
			AptPkgs:    []string{"git", "curl wget"},
			StartCmd:   "node server.js",
		})

		t.CheckDeepEqual([]string{"...", "git", "curl", "wget"}, bp.GetPhase(constants.SetupPhase).AptPkgs)
		t.CheckDeepEqual([]string{"npm ci"}, bp.GetPhase(constants.InstallPhase).Cmds)
		t.CheckNil(bp.GetPhase(constants.BuildPhase))
		t.CheckDeepEqual("node server.js", bp.Start.Cmd)
	})
}

func TestOverridesMerge(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		provider := plan.NewBuildPlan([]*plan.Phase{
			plan.NewSetupPhase(plan.Pkgs("nodejs_18")),
			plan.NewInstallPhase("npm ci"),
		}, nil)
		provider.GetPhase(constants.InstallPhase).AddCacheDirectory("/root/.npm")

		merged := plan.Merge(provider, FromEnvironment(env(t, "NIXPACKS_INSTALL_CACHE_DIRS=vendor")))
		merged.RemoveAutos()

		install := merged.GetPhase(constants.InstallPhase)
		t.CheckDeepEqual([]string{"npm ci"}, install.Cmds)
		t.CheckDeepEqual([]string{"/root/.npm", "vendor"}, install.CacheDirectories)
		t.CheckDeepEqual([]string{constants.SetupPhase}, install.DependsOn)
	})
}

func TestLoadPlan(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		tmp := t.NewTempDir().Write("plan.json", `{"phases": {"setup": {"nixPackages": ["...", "go"]}}, "start": {"cmd": "./out"}}`)

		bp, err := LoadPlan(tmp.Path("plan.json"))

		t.CheckNoError(err)
		t.CheckDeepEqual(plan.Pkgs("go"), bp.GetPhase(constants.SetupPhase).NixPkgs)
		t.CheckDeepEqual("./out", bp.Start.Cmd)
	})
	testutil.Run(t, "missing", func(t *testutil.T) {
		tmp := t.NewTempDir()

		_, err := LoadPlan(tmp.Path("plan.toml"))

		t.CheckErrorContains("loading plan", err)
		t.CheckDeepEqual(nperrors.Config, nperrors.KindOf(err))
	})
	testutil.Run(t, "cycle", func(t *testutil.T) {
		tmp := t.NewTempDir().Write("plan.yaml", "phases:\n  a:\n    dependsOn: [b]\n  b:\n    dependsOn: [a]\n")

		_, err := LoadPlan(tmp.Path("plan.yaml"))

		t.CheckDeepEqual(nperrors.Graph, nperrors.KindOf(err))
	})
}
