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

package plan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
)

// Pkg is a nix package, optionally built from an overlay or with overridden attributes.
type Pkg struct {
	Name      string
	Overlay   string
	Overrides map[string]string
}

// NewPkg returns a plain package.
func NewPkg(name string) Pkg {
	return Pkg{Name: name}
}

// Pkgs turns names into plain packages.
func Pkgs(names ...string) []Pkg {
	pkgs := make([]Pkg, 0, len(names))
	for _, name := range names {
		pkgs = append(pkgs, NewPkg(name))
	}
	return pkgs
}

// SetOverride returns a copy of p with the attribute overridden.
func (p Pkg) SetOverride(name, value string) Pkg {
	overrides := make(map[string]string, len(p.Overrides)+1)
	for k, v := range p.Overrides {
		overrides[k] = v
	}
	overrides[name] = value
	p.Overrides = overrides
	return p
}

// FromOverlay returns a copy of p that is taken from the overlay at url.
func (p Pkg) FromOverlay(url string) Pkg {
	p.Overlay = url
	return p
}

// IsAuto reports whether p is a placeholder.
func (p Pkg) IsAuto() bool {
	return IsAuto(p.Name) && p.Overlay == "" && len(p.Overrides) == 0
}

func (p Pkg) String() string {
	if len(p.Overrides) == 0 {
		return p.Name
	}
	keys := make([]string, 0, len(p.Overrides))
	for k := range p.Overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var overrides []string
	for _, k := range keys {
		overrides = append(overrides, fmt.Sprintf("%s=%s", k, p.Overrides[k]))
	}
	return fmt.Sprintf("%s(%s)", p.Name, strings.Join(overrides, ","))
}

func (p Pkg) clone() Pkg {
	if p.Overrides != nil {
		overrides := make(map[string]string, len(p.Overrides))
		for k, v := range p.Overrides {
			overrides[k] = v
		}
		p.Overrides = overrides
	}
	return p
}

// Phase is a named unit of build work.
//
// For every list field nil means "not set" while an empty, non-nil slice means
// "explicitly empty". The distinction matters when plans are merged.
type Phase struct {
	Name string

	DependsOn        []string
	NixPkgs          []Pkg
	NixLibs          []string
	NixOverlays      []string
	NixpacksArchive  string
	AptPkgs          []string
	Cmds             []string
	OnlyIncludeFiles []string
	CacheDirectories []string
	Paths            []string
}

func NewPhase(name string) *Phase {
	return &Phase{Name: name}
}

// NewSetupPhase returns the phase installing system packages.
func NewSetupPhase(pkgs []Pkg) *Phase {
	p := NewPhase(constants.SetupPhase)
	p.NixPkgs = pkgs
	return p
}

// NewInstallPhase returns a phase installing dependencies with cmd, running after setup.
func NewInstallPhase(cmd string) *Phase {
	p := NewPhase(constants.InstallPhase)
	p.DependsOnPhase(constants.SetupPhase)
	p.AddCmd(cmd)
	return p
}

// NewBuildPhase returns a phase building the application with cmd, running after install.
func NewBuildPhase(cmd string) *Phase {
	p := NewPhase(constants.BuildPhase)
	p.DependsOnPhase(constants.InstallPhase)
	p.AddCmd(cmd)
	return p
}

func (p *Phase) DependsOnPhase(name string) {
	p.DependsOn = append(initialized(p.DependsOn), name)
}

func (p *Phase) AddCmd(cmd string) {
	p.Cmds = append(initialized(p.Cmds), cmd)
}

func (p *Phase) AddCmds(cmds ...string) {
	p.Cmds = append(initialized(p.Cmds), cmds...)
}

func (p *Phase) AddNixPkgs(pkgs ...Pkg) {
	if p.NixPkgs == nil {
		p.NixPkgs = []Pkg{}
	}
	p.NixPkgs = append(p.NixPkgs, pkgs...)
}

func (p *Phase) AddNixLibs(libs ...string) {
	p.NixLibs = append(initialized(p.NixLibs), libs...)
}

func (p *Phase) AddNixOverlays(overlays ...string) {
	p.NixOverlays = append(initialized(p.NixOverlays), overlays...)
}

func (p *Phase) AddAptPkgs(pkgs ...string) {
	p.AptPkgs = append(initialized(p.AptPkgs), pkgs...)
}

func (p *Phase) AddFileDependency(file string) {
	p.OnlyIncludeFiles = append(initialized(p.OnlyIncludeFiles), file)
}

func (p *Phase) AddCacheDirectory(dir string) {
	p.CacheDirectories = append(initialized(p.CacheDirectories), dir)
}

func (p *Phase) AddPath(path string) {
	p.Paths = append(initialized(p.Paths), path)
}

func (p *Phase) SetNixpkgsArchive(archive string) {
	p.NixpacksArchive = archive
}

// UsesNix reports whether the phase needs a nix environment.
func (p *Phase) UsesNix() bool {
	return len(p.NixPkgs) > 0 || len(p.NixLibs) > 0
}

// Clone returns a deep copy of p.
func (p *Phase) Clone() *Phase {
	if p == nil {
		return nil
	}
	c := *p
	c.DependsOn = cloneStrings(p.DependsOn)
	if p.NixPkgs != nil {
		c.NixPkgs = make([]Pkg, 0, len(p.NixPkgs))
		for _, pkg := range p.NixPkgs {
			c.NixPkgs = append(c.NixPkgs, pkg.clone())
		}
	}
	c.NixLibs = cloneStrings(p.NixLibs)
	c.NixOverlays = cloneStrings(p.NixOverlays)
	c.AptPkgs = cloneStrings(p.AptPkgs)
	c.Cmds = cloneStrings(p.Cmds)
	c.OnlyIncludeFiles = cloneStrings(p.OnlyIncludeFiles)
	c.CacheDirectories = cloneStrings(p.CacheDirectories)
	c.Paths = cloneStrings(p.Paths)
	return &c
}

// StartPhase describes how the built application is launched.
type StartPhase struct {
	Cmd string
	// RunImage, when set, moves the final stage to a smaller image that only
	// receives OnlyIncludeFiles from the build stage.
	RunImage         string
	OnlyIncludeFiles []string
}

func NewStartPhase(cmd string) *StartPhase {
	return &StartPhase{Cmd: cmd}
}

// RunIn makes the application run in image instead of the build image.
func (s *StartPhase) RunIn(image string) {
	s.RunImage = image
}

func (s *StartPhase) AddFileDependency(file string) {
	s.OnlyIncludeFiles = append(initialized(s.OnlyIncludeFiles), file)
}

func (s *StartPhase) Clone() *StartPhase {
	if s == nil {
		return nil
	}
	c := *s
	c.OnlyIncludeFiles = cloneStrings(s.OnlyIncludeFiles)
	return &c
}

func initialized(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
