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
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/app"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
)

const goBinary = "out"

// goPkgs maps the go directive of go.mod to a nix package.
var goPkgs = map[string]string{
	"1.20": "go_1_20",
	"1.21": "go_1_21",
	"1.22": "go_1_22",
	"1.23": "go_1_23",
}

// GoProvider builds Go modules.
type GoProvider struct{}

func (*GoProvider) Name() string { return "go" }

func (*GoProvider) Detect(a *app.App, _ *app.Environment) (bool, error) {
	return a.IncludesFile("go.mod") || a.IncludesFile("main.go"), nil
}

func (*GoProvider) GetBuildPlan(a *app.App, env *app.Environment) (*plan.BuildPlan, error) {
	goPkg := "go"
	if a.IncludesFile("go.mod") {
		gomod, err := a.ReadFile("go.mod")
		if err != nil {
			return nil, err
		}
		if pkg, found := goPkgs[goDirective(gomod)]; found {
			goPkg = pkg
		}
	}
	setup := plan.NewSetupPhase(plan.Pkgs(goPkg))

	phases := []*plan.Phase{setup}
	if a.IncludesFile("go.mod") {
		install := plan.NewInstallPhase("go mod download")
		install.AddFileDependency("go.mod")
		if a.IncludesFile("go.sum") {
			install.AddFileDependency("go.sum")
		}
		install.AddCacheDirectory("/root/go/pkg/mod")
		phases = append(phases, install)
	}

	buildCmd := "go build -o " + goBinary
	if a.IncludesFile("main.go") || !a.IncludesDirectory("cmd") {
		buildCmd += " ."
	} else if cmds, _ := a.FindFiles("cmd/*/main.go"); len(cmds) > 0 {
		buildCmd += " ./" + strings.TrimSuffix(cmds[0], "/main.go")
	}
	build := plan.NewBuildPhase(buildCmd)
	build.AddCacheDirectory("/root/.cache/go-build")
	phases = append(phases, build)

	start := plan.NewStartPhase("./" + goBinary)
	bp := plan.NewBuildPlan(phases, start)

	if cgo, _ := env.Get("CGO_ENABLED"); cgo != "1" {
		start.RunIn("ubuntu:jammy")
		start.AddFileDependency(goBinary)
		bp.AddVariables(map[string]string{"CGO_ENABLED": "0"})
	}
	return bp, nil
}

// goDirective returns the language version of go.mod, major.minor only.
func goDirective(gomod string) string {
	f, err := modfile.ParseLax("go.mod", []byte(gomod), nil)
	if err != nil || f.Go == nil {
		return ""
	}
	parts := strings.SplitN(f.Go.Version, ".", 3)
	if len(parts) < 2 {
		return f.Go.Version
	}
	return parts[0] + "." + parts[1]
}
