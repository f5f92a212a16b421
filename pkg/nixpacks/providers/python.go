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
	"fmt"
	"strings"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/app"
	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
)

const venv = "/opt/venv"

// pythonPkgs maps major.minor to a nix package.
var pythonPkgs = map[string]string{
	"3.9":  "python39",
	"3.10": "python310",
	"3.11": "python311",
	"3.12": "python312",
}

type pyproject struct {
	Project struct {
		Name    string            `toml:"name"`
		Scripts map[string]string `toml:"scripts"`
	} `toml:"project"`
}

// PythonProvider builds applications with requirements.txt, pyproject.toml or setup.py.
type PythonProvider struct{}

func (*PythonProvider) Name() string { return "python" }

func (*PythonProvider) Detect(a *app.App, _ *app.Environment) (bool, error) {
	return a.IncludesFile("requirements.txt") || a.IncludesFile("pyproject.toml") || a.IncludesFile("setup.py"), nil
}

func (*PythonProvider) GetBuildPlan(a *app.App, env *app.Environment) (*plan.BuildPlan, error) {
	version, err := pythonVersion(a, env)
	if err != nil {
		return nil, err
	}
	setup := plan.NewSetupPhase(plan.Pkgs(version, "gcc"))
	setup.AddNixLibs("zlib", "stdenv.cc.cc.lib")

	createVenv := fmt.Sprintf("python -m venv --copies %[1]s && . %[1]s/bin/activate", venv)
	var installCmd string
	var project pyproject
	switch {
	case a.IncludesFile("requirements.txt"):
		installCmd = createVenv + " && pip install -r requirements.txt"
	case a.IncludesFile("pyproject.toml"):
		if err := a.ReadTOML("pyproject.toml", &project); err != nil {
			return nil, err
		}
		installCmd = createVenv + " && pip install --upgrade build setuptools && pip install ."
	default:
		installCmd = createVenv + " && pip install ."
	}
	install := plan.NewInstallPhase(installCmd)
	install.AddCacheDirectory("/root/.cache/pip")
	install.AddPath(venv + "/bin")

	bp := plan.NewBuildPlan([]*plan.Phase{setup, install}, pythonStart(a, project))
	bp.AddVariables(map[string]string{
		"PYTHONUNBUFFERED":              "1",
		"PYTHONDONTWRITEBYTECODE":       "1",
		"PIP_DISABLE_PIP_VERSION_CHECK": "1",
	})
	return bp, nil
}

// pythonVersion reads NIXPACKS_PYTHON_VERSION or .python-version.
func pythonVersion(a *app.App, env *app.Environment) (string, error) {
	version, _ := env.ConfigVariable("PYTHON_VERSION")
	if version == "" && a.IncludesFile(".python-version") {
		content, err := a.ReadFile(".python-version")
		if err != nil {
			return "", err
		}
		version = strings.TrimSpace(content)
	}
	if version == "" {
		return "python3", nil
	}

	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return "", nperrors.Configf("python version %q needs a minor version", version)
	}
	pkg, found := pythonPkgs[parts[0]+"."+parts[1]]
	if !found {
		return "", nperrors.Configf("python version %s is not supported", version)
	}
	return pkg, nil
}

func pythonStart(a *app.App, project pyproject) *plan.StartPhase {
	if a.IncludesFile("manage.py") {
		return plan.NewStartPhase("python manage.py migrate && python manage.py runserver 0.0.0.0:${PORT:-8000}")
	}
	for _, main := range []string{"main.py", "app.py", "server.py"} {
		if a.IncludesFile(main) {
			return plan.NewStartPhase("python " + main)
		}
	}
	if project.Project.Name != "" {
		if _, found := project.Project.Scripts[project.Project.Name]; found {
			return plan.NewStartPhase(project.Project.Name)
		}
	}
	return nil
}
