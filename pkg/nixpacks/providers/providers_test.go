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

package providers

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/app"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
	"github.com/nixpacks-go/nixpacks/testutil"
)

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

func TestRegistryDetect(t *testing.T) {
	tests := []struct {
		description string
		files       map[string]string
		expected    string
	}{
		{description: "go", files: map[string]string{"go.mod": "module x"}, expected: "go"},
		{description: "node", files: map[string]string{"package.json": "{}"}, expected: "node"},
		{description: "python", files: map[string]string{"requirements.txt": ""}, expected: "python"},
		{description: "pyproject", files: map[string]string{"pyproject.toml": ""}, expected: "python"},
		{description: "static", files: map[string]string{"index.html": ""}, expected: "staticfile"},
		{description: "node before static", files: map[string]string{"package.json": "{}", "index.html": ""}, expected: "node"},
		{description: "nothing", files: map[string]string{"README.md": ""}, expected: ""},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			p, err := Default().Detect(memApp(t, test.files), env(t))

			t.CheckNoError(err)
			if test.expected == "" {
				t.CheckNil(p)
				return
			}
			t.CheckDeepEqual(test.expected, p.Name())
		})
	}
}

func TestRegistryResolve(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		resolved, err := Default().Resolve([]string{"python", "node"})

		t.CheckNoError(err)
		t.CheckDeepEqual(2, len(resolved))
		t.CheckDeepEqual("python", resolved[0].Name())
		t.CheckDeepEqual("node", resolved[1].Name())
	})
	testutil.Run(t, "unknown", func(t *testutil.T) {
		_, err := Default().Resolve([]string{"cobol"})

		t.CheckErrorContains(`unknown provider "cobol", expected one of go, node, python, staticfile`, err)
	})
}

func TestNodeProvider(t *testing.T) {
	testutil.Run(t, "npm with build script", func(t *testutil.T) {
		a := memApp(t, map[string]string{
			"package.json":      `{"scripts": {"build": "tsc", "start": "node dist/index.js"}, "engines": {"node": ">=20"}}`,
			"package-lock.json": "{}",
		})

		bp, err := (&NodeProvider{}).GetBuildPlan(a, env(t))

		t.CheckNoError(err)
		t.CheckDeepEqual(plan.Pkgs("nodejs_22"), bp.GetPhase(constants.SetupPhase).NixPkgs)
		install := bp.GetPhase(constants.InstallPhase)
		t.CheckDeepEqual([]string{"npm ci"}, install.Cmds)
		t.CheckDeepEqual([]string{"/root/.npm"}, install.CacheDirectories)
		t.CheckDeepEqual([]string{"/app/node_modules/.bin"}, install.Paths)
		t.CheckDeepEqual([]string{"npm run build"}, bp.GetPhase(constants.BuildPhase).Cmds)
		t.CheckDeepEqual("npm run start", bp.Start.Cmd)
		t.CheckDeepEqual("production", bp.Variables["NODE_ENV"])
	})
	testutil.Run(t, "yarn without build", func(t *testutil.T) {
		a := memApp(t, map[string]string{
			"package.json": `{"main": "server.js"}`,
			"yarn.lock":    "",
			"server.js":    "",
		})

		bp, err := (&NodeProvider{}).GetBuildPlan(a, env(t))

		t.CheckNoError(err)
		t.CheckDeepEqual(plan.Pkgs("nodejs_18", "yarn"), bp.GetPhase(constants.SetupPhase).NixPkgs)
		t.CheckDeepEqual([]string{"yarn install --frozen-lockfile"}, bp.GetPhase(constants.InstallPhase).Cmds)
		t.CheckNil(bp.GetPhase(constants.BuildPhase))
		t.CheckDeepEqual("node server.js", bp.Start.Cmd)
	})
	testutil.Run(t, "pnpm from packageManager", func(t *testutil.T) {
		a := memApp(t, map[string]string{"package.json": `{"packageManager": "pnpm@9.1.0"}`})

		bp, err := (&NodeProvider{}).GetBuildPlan(a, env(t))

		t.CheckNoError(err)
		t.CheckDeepEqual([]string{"pnpm i --frozen-lockfile"}, bp.GetPhase(constants.InstallPhase).Cmds)
		t.CheckNil(bp.Start)
	})
	testutil.Run(t, "version from the environment", func(t *testutil.T) {
		a := memApp(t, map[string]string{"package.json": `{"engines": {"node": "22"}}`, ".nvmrc": "16"})

		bp, err := (&NodeProvider{}).GetBuildPlan(a, env(t, "NIXPACKS_NODE_VERSION=20.11.1"))

		t.CheckNoError(err)
		t.CheckDeepEqual(plan.Pkgs("nodejs_20"), bp.GetPhase(constants.SetupPhase).NixPkgs)
	})
	testutil.Run(t, "version from nvmrc", func(t *testutil.T) {
		a := memApp(t, map[string]string{"package.json": `{}`, ".nvmrc": "v16\n"})

		bp, err := (&NodeProvider{}).GetBuildPlan(a, env(t))

		t.CheckNoError(err)
		t.CheckDeepEqual(plan.Pkgs("nodejs_16"), bp.GetPhase(constants.SetupPhase).NixPkgs)
	})
	testutil.Run(t, "unsupported version falls back", func(t *testutil.T) {
		a := memApp(t, map[string]string{"package.json": `{"engines": {"node": "8"}}`})

		bp, err := (&NodeProvider{}).GetBuildPlan(a, env(t))

		t.CheckNoError(err)
		t.CheckDeepEqual(plan.Pkgs("nodejs_18"), bp.GetPhase(constants.SetupPhase).NixPkgs)
	})
	testutil.Run(t, "malformed package.json", func(t *testutil.T) {
		a := memApp(t, map[string]string{"package.json": `{`})

		_, err := (&NodeProvider{}).GetBuildPlan(a, env(t))

		t.CheckErrorContains("package.json", err)
	})
}

func TestGoProvider(t *testing.T) {
	testutil.Run(t, "module", func(t *testutil.T) {
		a := memApp(t, map[string]string{
			"go.mod":  "module example.com/app\n\ngo 1.22.3\n",
			"go.sum":  "",
			"main.go": "package main",
		})

		bp, err := (&GoProvider{}).GetBuildPlan(a, env(t))

		t.CheckNoError(err)
		t.CheckDeepEqual(plan.Pkgs("go_1_22"), bp.GetPhase(constants.SetupPhase).NixPkgs)
		install := bp.GetPhase(constants.InstallPhase)
		t.CheckDeepEqual([]string{"go mod download"}, install.Cmds)
		t.CheckDeepEqual([]string{"go.mod", "go.sum"}, install.OnlyIncludeFiles)
		t.CheckDeepEqual([]string{"go build -o out ."}, bp.GetPhase(constants.BuildPhase).Cmds)
		t.CheckDeepEqual(&plan.StartPhase{Cmd: "./out", RunImage: "ubuntu:jammy", OnlyIncludeFiles: []string{"out"}}, bp.Start)
		t.CheckDeepEqual(map[string]string{"CGO_ENABLED": "0"}, bp.Variables)
	})
	testutil.Run(t, "cmd layout with cgo", func(t *testutil.T) {
		a := memApp(t, map[string]string{
			"go.mod":             "module example.com/app\n\ngo 1.19\n",
			"cmd/server/main.go": "package main",
		})

		bp, err := (&GoProvider{}).GetBuildPlan(a, env(t, "CGO_ENABLED=1"))

		t.CheckNoError(err)
		t.CheckDeepEqual(plan.Pkgs("go"), bp.GetPhase(constants.SetupPhase).NixPkgs)
		t.CheckDeepEqual([]string{"go build -o out ./cmd/server"}, bp.GetPhase(constants.BuildPhase).Cmds)
		t.CheckDeepEqual(&plan.StartPhase{Cmd: "./out"}, bp.Start)
		t.CheckNil(bp.Variables)
	})
	testutil.Run(t, "no module", func(t *testutil.T) {
		a := memApp(t, map[string]string{"main.go": "package main"})

		bp, err := (&GoProvider{}).GetBuildPlan(a, env(t))

		t.CheckNoError(err)
		t.CheckNil(bp.GetPhase(constants.InstallPhase))
		t.CheckDeepEqual([]string{"install"}, bp.GetPhase(constants.BuildPhase).DependsOn)
	})
}

func TestGoDirective(t *testing.T) {
	t.Parallel()
	testutil.CheckDeepEqual(t, "1.21", goDirective("module x\n\ngo 1.21\n"))
	testutil.CheckDeepEqual(t, "1.22", goDirective("module x\ngo 1.22.0\ntoolchain go1.22.5\n"))
	testutil.CheckDeepEqual(t, "", goDirective("module x\n"))
	testutil.CheckDeepEqual(t, "1.23", goDirective("// service\nmodule x\n\nrequire (\n\texample.com/y v1.0.0\n)\n\ngo 1.23 // pinned\n"))
	testutil.CheckDeepEqual(t, "", goDirective("module x\ngo banana\n"))
}

func TestPythonProvider(t *testing.T) {
	testutil.Run(t, "requirements", func(t *testutil.T) {
		a := memApp(t, map[string]string{
			"requirements.txt": "flask",
			"app.py":           "",
			".python-version":  "3.11.4\n",
		})

		bp, err := (&PythonProvider{}).GetBuildPlan(a, env(t))

		t.CheckNoError(err)
		setup := bp.GetPhase(constants.SetupPhase)
		t.CheckDeepEqual(plan.Pkgs("python311", "gcc"), setup.NixPkgs)
		t.CheckDeepEqual([]string{"zlib", "stdenv.cc.cc.lib"}, setup.NixLibs)
		install := bp.GetPhase(constants.InstallPhase)
		t.CheckDeepEqual([]string{"python -m venv --copies /opt/venv && . /opt/venv/bin/activate && pip install -r requirements.txt"}, install.Cmds)
		t.CheckDeepEqual([]string{"/opt/venv/bin"}, install.Paths)
		t.CheckDeepEqual("python app.py", bp.Start.Cmd)
		t.CheckDeepEqual("1", bp.Variables["PYTHONUNBUFFERED"])
	})
	testutil.Run(t, "pyproject script", func(t *testutil.T) {
		a := memApp(t, map[string]string{
			"pyproject.toml": "[project]\nname = \"api\"\n\n[project.scripts]\napi = \"api.main:run\"\n",
		})

		bp, err := (&PythonProvider{}).GetBuildPlan(a, env(t))

		t.CheckNoError(err)
		t.CheckDeepEqual(plan.Pkgs("python3", "gcc"), bp.GetPhase(constants.SetupPhase).NixPkgs)
		t.CheckContains("pip install .", bp.GetPhase(constants.InstallPhase).Cmds[0])
		t.CheckDeepEqual("api", bp.Start.Cmd)
	})
	testutil.Run(t, "django", func(t *testutil.T) {
		a := memApp(t, map[string]string{"requirements.txt": "django", "manage.py": "", "main.py": ""})

		bp, err := (&PythonProvider{}).GetBuildPlan(a, env(t))

		t.CheckNoError(err)
		t.CheckContains("manage.py migrate", bp.Start.Cmd)
	})
	testutil.Run(t, "unsupported version", func(t *testutil.T) {
		a := memApp(t, map[string]string{"requirements.txt": ""})

		_, err := (&PythonProvider{}).GetBuildPlan(a, env(t, "NIXPACKS_PYTHON_VERSION=2.7"))

		t.CheckErrorContains("python version 2.7 is not supported", err)
	})
}

func TestStaticfileProvider(t *testing.T) {
	testutil.Run(t, "root from Staticfile", func(t *testutil.T) {
		a := memApp(t, map[string]string{"Staticfile": "root: dist\n", "dist/index.html": ""})

		bp, err := (&StaticfileProvider{}).GetBuildPlan(a, env(t))

		t.CheckNoError(err)
		t.CheckDeepEqual(plan.Pkgs("nginx", "gettext"), bp.GetPhase(constants.SetupPhase).NixPkgs)
		t.CheckContains("root /app/dist;", bp.StaticAssets["nginx.template.conf"])
		t.CheckContains("nginx -c /etc/nginx.conf", bp.Start.Cmd)
		t.CheckContains("/assets/nginx.template.conf", bp.Start.Cmd)
	})
	testutil.Run(t, "root from the environment", func(t *testutil.T) {
		a := memApp(t, map[string]string{"index.html": ""})

		bp, err := (&StaticfileProvider{}).GetBuildPlan(a, env(t, "NIXPACKS_STATICFILE_ROOT=public"))

		t.CheckNoError(err)
		t.CheckContains("root /app/public;", bp.StaticAssets["nginx.template.conf"])
	})
	testutil.Run(t, "default root", func(t *testutil.T) {
		a := memApp(t, map[string]string{"index.html": ""})

		bp, err := (&StaticfileProvider{}).GetBuildPlan(a, env(t))

		t.CheckNoError(err)
		t.CheckContains("root /app;", bp.StaticAssets["nginx.template.conf"])
	})
}

func TestMajorVersion(t *testing.T) {
	supported := []uint64{22, 20, 18, 16}
	tests := []struct {
		constraint string
		expected   uint64
		shouldErr  bool
	}{
		{constraint: "", expected: 18},
		{constraint: "*", expected: 18},
		{constraint: "20", expected: 20},
		{constraint: "v16.20.2", expected: 16},
		{constraint: "18.x", expected: 18},
		{constraint: "^20.5", expected: 20},
		{constraint: "~16.1", expected: 16},
		{constraint: ">=18", expected: 22},
		{constraint: ">=16 <21", expected: 20},
		{constraint: "<18.5", expected: 18},
		{constraint: "16 || 18", expected: 18},
		{constraint: "12", shouldErr: true},
		{constraint: ">=30", shouldErr: true},
	}
	for _, test := range tests {
		testutil.Run(t, test.constraint, func(t *testutil.T) {
			major, err := majorVersion(test.constraint, supported, 18)

			t.CheckErrorAndDeepEqual(test.shouldErr, err, test.expected, major)
		})
	}
}
