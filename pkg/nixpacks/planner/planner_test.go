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
	"context"
	"testing"

	"github.com/spf13/afero"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/app"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/config"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/providers"
	"github.com/nixpacks-go/nixpacks/testutil"
)

const nodeApp = `{"scripts": {"start": "node server.js"}}`

func memApp(t *testutil.T, files map[string]string) *app.App {
	fs := afero.NewMemMapFs()
	t.CheckNoError(fs.MkdirAll("/src", 0o755))
	for name, content := range files {
		t.CheckNoError(afero.WriteFile(fs, "/src/"+name, []byte(content), 0o644))
	}
	return app.NewWithFs(fs, "/src")
}

func env(t *testutil.T, envs ...string) *app.Environment {
	e, err := app.FromEnvs(envs)
	t.CheckNoError(err)
	return e
}

func generate(t *testutil.T, files map[string]string, e *app.Environment, opts config.NixpacksOptions) (*plan.BuildPlan, error) {
	return New(providers.Default()).GeneratePlan(context.Background(), memApp(t, files), e, opts)
}

func TestGeneratePlanFromProvider(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		bp, err := generate(t, map[string]string{"package.json": nodeApp}, env(t), config.NixpacksOptions{})

		t.CheckNoError(err)
		t.CheckDeepEqual([]string{"node"}, bp.Providers)
		t.CheckDeepEqual([]plan.Pkg{plan.NewPkg("nodejs_18")}, bp.GetPhase(constants.SetupPhase).NixPkgs)
		t.CheckDeepEqual([]string{"npm i"}, bp.GetPhase(constants.InstallPhase).Cmds)
		t.CheckDeepEqual([]string{constants.SetupPhase}, bp.GetPhase(constants.InstallPhase).DependsOn)
		t.CheckDeepEqual("npm run start", bp.Start.Cmd)
		t.CheckDeepEqual("node", bp.Variables[constants.MetadataVariable])
		t.CheckDeepEqual("production", bp.Variables["NODE_ENV"])
	})
}

func TestGeneratePlanLayers(t *testing.T) {
	testutil.Run(t, "config file", func(t *testutil.T) {
		files := map[string]string{
			"package.json": nodeApp,
			"nixpacks.toml": `
[phases.setup]
nixPackages = ["...", "ffmpeg"]

[phases.build]
commands = ["npm run custom"]

[start]
cmd = "node custom.js"
`,
		}

		bp, err := generate(t, files, env(t), config.NixpacksOptions{})

		t.CheckNoError(err)
		t.CheckDeepEqual(plan.Pkgs("nodejs_18", "ffmpeg"), bp.GetPhase(constants.SetupPhase).NixPkgs)
		t.CheckDeepEqual([]string{"npm run custom"}, bp.GetPhase(constants.BuildPhase).Cmds)
		t.CheckDeepEqual([]string{constants.InstallPhase}, bp.GetPhase(constants.BuildPhase).DependsOn)
		t.CheckDeepEqual("node custom.js", bp.Start.Cmd)
	})
	testutil.Run(t, "environment over config file", func(t *testutil.T) {
		files := map[string]string{
			"package.json":  nodeApp,
			"nixpacks.json": `{"phases": {"install": {"commands": ["npm ci"]}}}`,
		}
		e := env(t, "NIXPACKS_INSTALL_CMD=yarn install", "NIXPACKS_APT_PKGS=git curl", "FOO=bar")

		bp, err := generate(t, files, e, config.NixpacksOptions{})

		t.CheckNoError(err)
		t.CheckDeepEqual([]string{"yarn install"}, bp.GetPhase(constants.InstallPhase).Cmds)
		t.CheckDeepEqual([]string{"git", "curl"}, bp.GetPhase(constants.SetupPhase).AptPkgs)
		t.CheckDeepEqual("bar", bp.Variables["FOO"])
		_, leaked := bp.Variables["NIXPACKS_INSTALL_CMD"]
		t.CheckFalse(leaked)
	})
	testutil.Run(t, "options over environment", func(t *testutil.T) {
		e := env(t, "NIXPACKS_START_CMD=node env.js", "NIXPACKS_PKGS=ffmpeg")
		opts := config.NixpacksOptions{StartCmd: "node cli.js", Pkgs: []string{"git,curl"}}

		bp, err := generate(t, map[string]string{"package.json": nodeApp}, e, opts)

		t.CheckNoError(err)
		t.CheckDeepEqual("node cli.js", bp.Start.Cmd)
		t.CheckDeepEqual(plan.Pkgs("nodejs_18", "ffmpeg", "git", "curl"), bp.GetPhase(constants.SetupPhase).NixPkgs)
	})
	testutil.Run(t, "explicit config file", func(t *testutil.T) {
		files := map[string]string{
			"package.json":     nodeApp,
			"nixpacks.toml":    `[start]` + "\n" + `cmd = "ignored"`,
			"deploy/plan.yaml": "start:\n  cmd: node deploy.js\n",
		}

		bp, err := generate(t, files, env(t), config.NixpacksOptions{ConfigFile: "deploy/plan.yaml"})

		t.CheckNoError(err)
		t.CheckDeepEqual("node deploy.js", bp.Start.Cmd)
	})
	testutil.Run(t, "config file from the environment", func(t *testutil.T) {
		files := map[string]string{
			"package.json":  nodeApp,
			"ci/build.json": `{"start": {"cmd": "node ci.js"}}`,
		}

		bp, err := generate(t, files, env(t, "NIXPACKS_CONFIG_FILE=ci/build.json"), config.NixpacksOptions{})

		t.CheckNoError(err)
		t.CheckDeepEqual("node ci.js", bp.Start.Cmd)
	})
}

func TestGeneratePlanProviders(t *testing.T) {
	testutil.Run(t, "config splices detected provider", func(t *testutil.T) {
		files := map[string]string{
			"package.json":     nodeApp,
			"requirements.txt": "flask",
			"nixpacks.json":    `{"providers": ["...", "python"]}`,
		}

		bp, err := generate(t, files, env(t), config.NixpacksOptions{})

		t.CheckNoError(err)
		t.CheckDeepEqual([]string{"node", "python"}, bp.Providers)
		t.CheckDeepEqual("node,python", bp.Variables[constants.MetadataVariable])
		t.CheckDeepEqual("1", bp.Variables["PYTHONUNBUFFERED"])
		t.CheckDeepEqual("production", bp.Variables["NODE_ENV"])
	})
	testutil.Run(t, "config replaces detected provider", func(t *testutil.T) {
		files := map[string]string{
			"package.json":  nodeApp,
			"index.html":    "",
			"nixpacks.json": `{"providers": ["staticfile"]}`,
		}

		bp, err := generate(t, files, env(t), config.NixpacksOptions{})

		t.CheckNoError(err)
		t.CheckDeepEqual([]string{"staticfile"}, bp.Providers)
		t.CheckNil(bp.GetPhase(constants.InstallPhase))
	})
	testutil.Run(t, "duplicates are dropped", func(t *testutil.T) {
		files := map[string]string{
			"package.json":  nodeApp,
			"nixpacks.json": `{"providers": ["...", "node"]}`,
		}

		bp, err := generate(t, files, env(t), config.NixpacksOptions{})

		t.CheckNoError(err)
		t.CheckDeepEqual([]string{"node"}, bp.Providers)
	})
	testutil.Run(t, "no provider but configured", func(t *testutil.T) {
		files := map[string]string{
			"nixpacks.toml": "[start]\ncmd = \"./run.sh\"\n",
		}

		bp, err := generate(t, files, env(t), config.NixpacksOptions{})

		t.CheckNoError(err)
		t.CheckEmpty(bp.Providers)
		t.CheckDeepEqual("./run.sh", bp.Start.Cmd)
		_, found := bp.Variables[constants.MetadataVariable]
		t.CheckFalse(found)
	})
}

func TestGeneratePlanErrors(t *testing.T) {
	tests := []struct {
		description string
		files       map[string]string
		opts        config.NixpacksOptions
		kind        nperrors.Kind
		message     string
	}{
		{
			description: "nothing to build",
			files:       map[string]string{"README.md": ""},
			kind:        nperrors.Config,
			message:     "unable to generate a build plan for /src",
		},
		{
			description: "unknown provider",
			files:       map[string]string{"nixpacks.json": `{"providers": ["cobol"]}`},
			kind:        nperrors.Config,
			message:     `unknown provider "cobol"`,
		},
		{
			description: "cycle",
			files: map[string]string{
				"package.json":  nodeApp,
				"nixpacks.json": `{"phases": {"a": {"dependsOn": ["b"]}, "b": {"dependsOn": ["a"]}}}`,
			},
			kind:    nperrors.Graph,
			message: "circular dependency",
		},
		{
			description: "invalid config",
			files: map[string]string{
				"package.json":  nodeApp,
				"nixpacks.json": `{"phases": "nope"}`,
			},
			kind:    nperrors.Config,
			message: "config file nixpacks.json",
		},
		{
			description: "missing config",
			files:       map[string]string{"package.json": nodeApp},
			opts:        config.NixpacksOptions{ConfigFile: "missing.toml"},
			kind:        nperrors.Config,
			message:     "reading config file missing.toml",
		},
		{
			description: "config without extension",
			files:       map[string]string{"package.json": nodeApp, "nixpacks": ""},
			opts:        config.NixpacksOptions{ConfigFile: "nixpacks"},
			kind:        nperrors.Config,
			message:     "without an extension",
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			_, err := generate(t, test.files, env(t), test.opts)

			t.CheckErrorContains(test.message, err)
			t.CheckDeepEqual(test.kind, nperrors.KindOf(err))
		})
	}
}
