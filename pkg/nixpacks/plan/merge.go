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
	"context"
	"fmt"
	"strings"

	"github.com/imdario/mergo"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
)

// IsAuto reports whether s is a placeholder token.
func IsAuto(s string) bool {
	for _, p := range constants.Placeholders {
		if s == p {
			return true
		}
	}
	return false
}

func isAutoPkg(p Pkg) bool { return p.IsAuto() }

// FillAuto splices primary into secondary at every placeholder of secondary.
// The placeholder itself is kept, RemoveAutos strips it.
// A nil secondary means "not set" and yields a copy of primary.
func FillAuto[T any](primary, secondary []T, isAuto func(T) bool) []T {
	if secondary == nil {
		if primary == nil {
			return nil
		}
		return append(make([]T, 0, len(primary)), primary...)
	}

	filled := make([]T, 0, len(secondary))
	for _, e := range secondary {
		filled = append(filled, e)
		if isAuto(e) {
			filled = append(filled, primary...)
		}
	}
	return filled
}

// RemoveAutos drops every placeholder from list. nil stays nil.
func RemoveAutos[T any](list []T, isAuto func(T) bool) []T {
	if list == nil {
		return nil
	}
	kept := make([]T, 0, len(list))
	for _, e := range list {
		if !isAuto(e) {
			kept = append(kept, e)
		}
	}
	return kept
}

func fillStrings(primary, secondary []string) []string {
	return FillAuto(primary, secondary, IsAuto)
}

func removeAutoStrings(list []string) []string {
	return RemoveAutos(list, IsAuto)
}

// MergePhase combines two phases. b is the more specific one: its scalars win
// and its lists may splice a's lists in with placeholders.
func MergePhase(a, b *Phase) *Phase {
	switch {
	case a == nil:
		return b.Clone()
	case b == nil:
		return a.Clone()
	}

	merged := &Phase{
		Name:             pick(a.Name, b.Name),
		DependsOn:        fillStrings(a.DependsOn, b.DependsOn),
		NixPkgs:          FillAuto(a.NixPkgs, b.NixPkgs, isAutoPkg),
		NixLibs:          fillStrings(a.NixLibs, b.NixLibs),
		NixOverlays:      fillStrings(a.NixOverlays, b.NixOverlays),
		NixpacksArchive:  pick(a.NixpacksArchive, b.NixpacksArchive),
		AptPkgs:          fillStrings(a.AptPkgs, b.AptPkgs),
		Cmds:             fillStrings(a.Cmds, b.Cmds),
		OnlyIncludeFiles: fillStrings(a.OnlyIncludeFiles, b.OnlyIncludeFiles),
		CacheDirectories: fillStrings(a.CacheDirectories, b.CacheDirectories),
		Paths:            fillStrings(a.Paths, b.Paths),
	}
	// FillAuto shares Pkg values, give the result its own override maps.
	return merged.Clone()
}

// MergeStartPhase combines two start phases, b being the more specific one.
func MergeStartPhase(a, b *StartPhase) *StartPhase {
	switch {
	case a == nil:
		return b.Clone()
	case b == nil:
		return a.Clone()
	}

	return &StartPhase{
		Cmd:              pick(a.Cmd, b.Cmd),
		RunImage:         pick(a.RunImage, b.RunImage),
		OnlyIncludeFiles: fillStrings(a.OnlyIncludeFiles, b.OnlyIncludeFiles),
	}
}

// Merge combines two plans without modifying them. b is the more specific plan.
// Phases only present in b are created with the default dependencies of their name first.
func Merge(a, b *BuildPlan) *BuildPlan {
	switch {
	case a == nil:
		return b.Clone()
	case b == nil:
		return a.Clone()
	}

	merged := &BuildPlan{
		Providers:    fillStrings(a.Providers, b.Providers),
		BuildImage:   pick(a.BuildImage, b.BuildImage),
		Variables:    mergeMaps(a.Variables, b.Variables),
		StaticAssets: mergeMaps(a.StaticAssets, b.StaticAssets),
		Start:        MergeStartPhase(a.Start, b.Start),
	}

	if a.Phases != nil || b.Phases != nil {
		merged.Phases = make(map[string]*Phase, len(a.Phases)+len(b.Phases))
	}
	for name, phase := range a.Phases {
		merged.Phases[name] = phase.Clone()
	}
	for name, phase := range b.Phases {
		existing, found := merged.Phases[name]
		if !found {
			existing = defaultPhase(name)
		}
		merged.Phases[name] = MergePhase(existing, phase)
	}

	merged.ResolvePhaseNames()
	return merged
}

// defaultPhase returns an empty phase carrying the default edges of well-known names.
func defaultPhase(name string) *Phase {
	p := NewPhase(name)
	switch name {
	case constants.InstallPhase:
		p.DependsOnPhase(constants.SetupPhase)
	case constants.BuildPhase:
		p.DependsOnPhase(constants.InstallPhase)
	}
	return p
}

// Layer is one named source of plan configuration.
type Layer struct {
	Name string
	Plan *BuildPlan
}

// MergeLayers folds layers from the least to the most specific. Nil plans are skipped.
func MergeLayers(ctx context.Context, layers ...Layer) *BuildPlan {
	var merged *BuildPlan
	for _, layer := range layers {
		if layer.Plan == nil {
			continue
		}
		log.Entry(ctx).Debugf("applying %s plan layer", layer.Name)
		if merged == nil {
			merged = layer.Plan.Clone()
			merged.ResolvePhaseNames()
			continue
		}
		merged = Merge(merged, layer.Plan)
	}
	if merged == nil {
		return &BuildPlan{}
	}
	return merged
}

// RemoveAutos strips placeholders from every list of the plan.
func (p *BuildPlan) RemoveAutos() {
	p.Providers = removeAutoStrings(p.Providers)
	for _, phase := range p.Phases {
		phase.RemoveAutos()
	}
	if p.Start != nil {
		p.Start.OnlyIncludeFiles = removeAutoStrings(p.Start.OnlyIncludeFiles)
	}
}

// RemoveAutos strips placeholders from every list of the phase.
func (p *Phase) RemoveAutos() {
	p.DependsOn = removeAutoStrings(p.DependsOn)
	p.NixPkgs = RemoveAutos(p.NixPkgs, isAutoPkg)
	p.NixLibs = removeAutoStrings(p.NixLibs)
	p.NixOverlays = removeAutoStrings(p.NixOverlays)
	p.AptPkgs = removeAutoStrings(p.AptPkgs)
	p.Cmds = removeAutoStrings(p.Cmds)
	p.OnlyIncludeFiles = removeAutoStrings(p.OnlyIncludeFiles)
	p.CacheDirectories = removeAutoStrings(p.CacheDirectories)
	p.Paths = removeAutoStrings(p.Paths)
}

// CheckPlaceholders returns a Config error naming the first list that still holds a placeholder.
func (p *BuildPlan) CheckPlaceholders() error {
	if containsAuto(p.Providers) {
		return nperrors.Configf("unresolved placeholder in providers")
	}
	for _, phase := range p.PhaseList() {
		for field, list := range phase.stringLists() {
			if containsAuto(list) {
				return nperrors.Configf("unresolved placeholder in %s of phase %q", field, phase.Name)
			}
		}
		for _, pkg := range phase.NixPkgs {
			if pkg.IsAuto() {
				return nperrors.Configf("unresolved placeholder in nixPackages of phase %q", phase.Name)
			}
		}
	}
	if p.Start != nil && containsAuto(p.Start.OnlyIncludeFiles) {
		return nperrors.Configf("unresolved placeholder in onlyIncludeFiles of the start phase")
	}
	return nil
}

func (p *Phase) stringLists() map[string][]string {
	return map[string][]string{
		"dependsOn":        p.DependsOn,
		"nixLibraries":     p.NixLibs,
		"nixOverlays":      p.NixOverlays,
		"aptPackages":      p.AptPkgs,
		"commands":         p.Cmds,
		"onlyIncludeFiles": p.OnlyIncludeFiles,
		"cacheDirectories": p.CacheDirectories,
		"paths":            p.Paths,
	}
}

func containsAuto(list []string) bool {
	for _, e := range list {
		if IsAuto(e) {
			return true
		}
	}
	return false
}

// mergeMaps overlays b onto a copy of a.
func mergeMaps(a, b map[string]string) map[string]string {
	if a == nil && b == nil {
		return nil
	}
	merged := cloneMap(a)
	if merged == nil {
		merged = map[string]string{}
	}
	if err := mergo.Merge(&merged, b, mergo.WithOverride); err != nil {
		// both sides have the same type, mergo cannot fail here
		panic(fmt.Sprintf("merging maps: %v", err))
	}
	return merged
}

func pick(a, b string) string {
	if strings.TrimSpace(b) != "" {
		return b
	}
	return a
}
