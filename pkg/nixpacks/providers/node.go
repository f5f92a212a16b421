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
	"context"
	"fmt"
	"strings"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/app"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
)

const defaultNodeMajor = 18

var supportedNodeMajors = []uint64{22, 20, 18, 16}

type packageJSON struct {
	Name           string            `json:"name"`
	Main           string            `json:"main"`
	Scripts        map[string]string `json:"scripts"`
	Engines        map[string]string `json:"engines"`
	PackageManager string            `json:"packageManager"`
}

type packageManager struct {
	name       string
	nixPkg     string
	installCmd string
	cacheDir   string
}

var (
	npm   = packageManager{name: "npm", installCmd: "npm i", cacheDir: "/root/.npm"}
	npmCI = packageManager{name: "npm", installCmd: "npm ci", cacheDir: "/root/.npm"}
	yarn  = packageManager{name: "yarn", nixPkg: "yarn", installCmd: "yarn install --frozen-lockfile", cacheDir: "/usr/local/share/.cache/yarn/v6"}
	pnpm  = packageManager{name: "pnpm", nixPkg: "pnpm", installCmd: "pnpm i --frozen-lockfile", cacheDir: "/root/.local/share/pnpm/store/v3"}
	bun   = packageManager{name: "bun", nixPkg: "bun", installCmd: "bun i --no-save", cacheDir: "/root/.bun/install/cache"}
)

// NodeProvider builds applications with a package.json.
type NodeProvider struct{}

func (*NodeProvider) Name() string { return "node" }

func (*NodeProvider) Detect(a *app.App, _ *app.Environment) (bool, error) {
	return a.IncludesFile("package.json"), nil
}

func (*NodeProvider) GetBuildPlan(a *app.App, env *app.Environment) (*plan.BuildPlan, error) {
	var pkg packageJSON
	if err := a.ReadJSON("package.json", &pkg); err != nil {
		return nil, err
	}
	pm := detectPackageManager(a, pkg)

	setup := plan.NewSetupPhase(plan.Pkgs(fmt.Sprintf("nodejs_%d", nodeMajor(a, env, pkg))))
	if pm.nixPkg != "" {
		setup.AddNixPkgs(plan.NewPkg(pm.nixPkg))
	}

	install := plan.NewInstallPhase(pm.installCmd)
	install.AddCacheDirectory(pm.cacheDir)
	install.AddPath("/app/node_modules/.bin")

	phases := []*plan.Phase{setup, install}
	if _, found := pkg.Scripts["build"]; found {
		build := plan.NewBuildPhase(pm.name + " run build")
		build.AddCacheDirectory("node_modules/.cache")
		phases = append(phases, build)
	}

	bp := plan.NewBuildPlan(phases, nodeStart(a, pkg, pm))
	bp.AddVariables(map[string]string{
		"NODE_ENV":              "production",
		"NPM_CONFIG_PRODUCTION": "false",
		"CI":                    "true",
	})
	return bp, nil
}

func detectPackageManager(a *app.App, pkg packageJSON) packageManager {
	switch {
	case strings.HasPrefix(pkg.PackageManager, "pnpm@"), a.IncludesFile("pnpm-lock.yaml"):
		return pnpm
	case strings.HasPrefix(pkg.PackageManager, "yarn@"), a.IncludesFile("yarn.lock"):
		return yarn
	case strings.HasPrefix(pkg.PackageManager, "bun@"), a.IncludesFile("bun.lockb"):
		return bun
	case a.IncludesFile("package-lock.json"):
		return npmCI
	default:
		return npm
	}
}

// nodeMajor reads the wanted version from NIXPACKS_NODE_VERSION, engines.node or .nvmrc.
func nodeMajor(a *app.App, env *app.Environment, pkg packageJSON) uint64 {
	constraint, found := env.ConfigVariable("NODE_VERSION")
	if !found {
		constraint = pkg.Engines["node"]
	}
	if constraint == "" && a.IncludesFile(".nvmrc") {
		nvmrc, err := a.ReadFile(".nvmrc")
		if err == nil {
			constraint = strings.TrimSpace(nvmrc)
		}
	}

	major, err := majorVersion(constraint, supportedNodeMajors, defaultNodeMajor)
	if err != nil {
		log.Entry(context.TODO()).Warnf("using node %d: %v", defaultNodeMajor, err)
		return defaultNodeMajor
	}
	return major
}

func nodeStart(a *app.App, pkg packageJSON, pm packageManager) *plan.StartPhase {
	switch {
	case pkg.Scripts["start"] != "":
		return plan.NewStartPhase(pm.name + " run start")
	case pkg.Main != "" && a.IncludesFile(pkg.Main):
		return plan.NewStartPhase("node " + pkg.Main)
	case a.IncludesFile("index.js"):
		return plan.NewStartPhase("node index.js")
	}
	return nil
}
