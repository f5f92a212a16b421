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
	"strings"
	"unicode"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/app"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/config"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
)

const auto = "..."

// overrides are the plan settings that can be given outside of a config file.
type overrides struct {
	pkgs    []string
	aptPkgs []string
	libs    []string
	archive string

	installCmd       string
	installCacheDirs []string
	buildCmd         string
	buildCacheDirs   []string

	startCmd string
	runImage string

	variables map[string]string
}

// FromEnvironment returns the plan configured by NIXPACKS_ variables. Every
// other variable becomes a plan variable.
func FromEnvironment(env *app.Environment) *plan.BuildPlan {
	get := func(name string) string {
		v, _ := env.ConfigVariable(name)
		return strings.TrimSpace(v)
	}

	o := overrides{
		pkgs:             splitList(get("PKGS")),
		aptPkgs:          splitList(get("APT_PKGS")),
		libs:             splitList(get("LIBS")),
		archive:          get("NIXPKGS_ARCHIVE"),
		installCmd:       get("INSTALL_CMD"),
		installCacheDirs: splitList(get("INSTALL_CACHE_DIRS")),
		buildCmd:         get("BUILD_CMD"),
		buildCacheDirs:   splitList(get("BUILD_CACHE_DIRS")),
		startCmd:         get("START_CMD"),
		runImage:         get("RUN_IMAGE"),
	}
	for _, name := range env.Names() {
		if strings.HasPrefix(name, constants.EnvPrefix) {
			continue
		}
		if o.variables == nil {
			o.variables = map[string]string{}
		}
		o.variables[name], _ = env.Get(name)
	}
	return o.plan()
}

// FromOptions returns the plan configured on the command line.
func FromOptions(opts config.NixpacksOptions) *plan.BuildPlan {
	o := overrides{
		pkgs:       splitAll(opts.Pkgs),
		aptPkgs:    splitAll(opts.AptPkgs),
		libs:       splitAll(opts.Libs),
		installCmd: strings.TrimSpace(opts.InstallCmd),
		buildCmd:   strings.TrimSpace(opts.BuildCmd),
		startCmd:   strings.TrimSpace(opts.StartCmd),
	}
	return o.plan()
}

func (o overrides) plan() *plan.BuildPlan {
	bp := &plan.BuildPlan{Variables: o.variables}

	setup := plan.NewPhase(constants.SetupPhase)
	if len(o.pkgs) > 0 {
		setup.AddNixPkgs(plan.Pkgs(withAuto(o.pkgs)...)...)
	}
	if len(o.aptPkgs) > 0 {
		setup.AddAptPkgs(withAuto(o.aptPkgs)...)
	}
	if len(o.libs) > 0 {
		setup.AddNixLibs(withAuto(o.libs)...)
	}
	setup.SetNixpkgsArchive(o.archive)
	if setup.NixPkgs != nil || setup.AptPkgs != nil || setup.NixLibs != nil || setup.NixpacksArchive != "" {
		bp.AddPhase(setup)
	}

	if phase := commandPhase(constants.InstallPhase, o.installCmd, o.installCacheDirs); phase != nil {
		bp.AddPhase(phase)
	}
	if phase := commandPhase(constants.BuildPhase, o.buildCmd, o.buildCacheDirs); phase != nil {
		bp.AddPhase(phase)
	}

	if o.startCmd != "" || o.runImage != "" {
		start := plan.NewStartPhase(o.startCmd)
		start.RunIn(o.runImage)
		bp.SetStart(start)
	}
	return bp
}

// commandPhase replaces the commands of a phase and adds cache directories to it.
func commandPhase(name, cmd string, cacheDirs []string) *plan.Phase {
	if cmd == "" && len(cacheDirs) == 0 {
		return nil
	}
	phase := plan.NewPhase(name)
	if cmd != "" {
		phase.AddCmd(cmd)
	}
	for _, dir := range withAuto(cacheDirs) {
		phase.AddCacheDirectory(dir)
	}
	return phase
}

func withAuto(list []string) []string {
	if len(list) == 0 {
		return nil
	}
	return append([]string{auto}, list...)
}

// splitList splits on commas and whitespace.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

func splitAll(values []string) []string {
	var all []string
	for _, v := range values {
		all = append(all, splitList(v)...)
	}
	return all
}
