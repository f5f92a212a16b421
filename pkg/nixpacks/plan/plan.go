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
	"errors"
	"sort"

	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/graph"
)

// BuildPlan is everything needed to render the build files of an application.
type BuildPlan struct {
	Providers    []string
	BuildImage   string
	Variables    map[string]string
	StaticAssets map[string]string
	Phases       map[string]*Phase
	Start        *StartPhase
}

// NewBuildPlan returns a plan holding the given phases.
func NewBuildPlan(phases []*Phase, start *StartPhase) *BuildPlan {
	p := &BuildPlan{Start: start}
	for _, phase := range phases {
		p.AddPhase(phase)
	}
	return p
}

// AddPhase stores phase under its name, replacing any phase with the same name.
func (p *BuildPlan) AddPhase(phase *Phase) {
	if p.Phases == nil {
		p.Phases = map[string]*Phase{}
	}
	p.Phases[phase.Name] = phase
}

// GetPhase returns the phase called name, or nil.
func (p *BuildPlan) GetPhase(name string) *Phase {
	return p.Phases[name]
}

func (p *BuildPlan) SetStart(start *StartPhase) {
	p.Start = start
}

func (p *BuildPlan) AddVariables(vars map[string]string) {
	if p.Variables == nil {
		p.Variables = map[string]string{}
	}
	for k, v := range vars {
		p.Variables[k] = v
	}
}

func (p *BuildPlan) AddStaticAssets(assets map[string]string) {
	if p.StaticAssets == nil {
		p.StaticAssets = map[string]string{}
	}
	for k, v := range assets {
		p.StaticAssets[k] = v
	}
}

// PhaseNames returns the names of all phases in lexical order.
func (p *BuildPlan) PhaseNames() []string {
	names := make([]string, 0, len(p.Phases))
	for name := range p.Phases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PhaseList returns the phases in lexical order of their names.
func (p *BuildPlan) PhaseList() []*Phase {
	phases := make([]*Phase, 0, len(p.Phases))
	for _, name := range p.PhaseNames() {
		phases = append(phases, p.Phases[name])
	}
	return phases
}

// ResolvePhaseNames makes the name stored on every phase match its key.
func (p *BuildPlan) ResolvePhaseNames() {
	for name, phase := range p.Phases {
		if phase == nil {
			phase = NewPhase(name)
			p.Phases[name] = phase
		}
		phase.Name = name
	}
}

// SortedPhases returns the phases so that each one comes after its dependencies.
func (p *BuildPlan) SortedPhases() ([]*Phase, error) {
	sorted, err := graph.TopologicalSort(p.PhaseList(),
		func(phase *Phase) string { return phase.Name },
		func(phase *Phase) []string { return phase.DependsOn })
	if err == nil {
		return sorted, nil
	}

	var cycleErr *graph.CycleError
	if errors.As(err, &cycleErr) {
		return nil, nperrors.New(nperrors.Graph, "sorting phases", "", err)
	}
	return nil, nperrors.New(nperrors.Config, "sorting phases", "", err)
}

// Clone returns a deep copy of p.
func (p *BuildPlan) Clone() *BuildPlan {
	if p == nil {
		return nil
	}
	c := &BuildPlan{
		Providers:    cloneStrings(p.Providers),
		BuildImage:   p.BuildImage,
		Variables:    cloneMap(p.Variables),
		StaticAssets: cloneMap(p.StaticAssets),
		Start:        p.Start.Clone(),
	}
	if p.Phases != nil {
		c.Phases = make(map[string]*Phase, len(p.Phases))
		for name, phase := range p.Phases {
			c.Phases[name] = phase.Clone()
		}
	}
	return c
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
