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

// Package planner turns an application into a resolved build plan.
package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/app"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/config"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/providers"
)

// Planner generates build plans using a set of providers.
type Planner struct {
	registry *providers.Registry
}

func New(registry *providers.Registry) *Planner {
	return &Planner{registry: registry}
}

// DetectProviders returns the names of the providers building the application.
// A config file listing providers splices the detected one in at its placeholder.
func (p *Planner) DetectProviders(ctx context.Context, a *app.App, env *app.Environment, fileConfig *plan.BuildPlan) ([]string, error) {
	var detected []string
	provider, err := p.registry.Detect(a, env)
	if err != nil {
		return nil, nperrors.New(nperrors.Config, "detecting providers", a.Source, err)
	}
	if provider != nil {
		log.Entry(ctx).Debugf("detected provider %s", provider.Name())
		detected = []string{provider.Name()}
	}

	if fileConfig == nil || fileConfig.Providers == nil {
		return detected, nil
	}
	names := plan.RemoveAutos(plan.FillAuto(detected, fileConfig.Providers, plan.IsAuto), plan.IsAuto)
	return dedup(names), nil
}

// GeneratePlan resolves the plan of the application. Layers are merged from the
// least to the most specific: providers, config file, environment, options.
func (p *Planner) GeneratePlan(ctx context.Context, a *app.App, env *app.Environment, opts config.NixpacksOptions) (*plan.BuildPlan, error) {
	ctx = log.WithTask(ctx, log.Plan, log.SubtaskIDNone)

	fileConfig, err := ReadFileConfig(a, env, opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	names, err := p.DetectProviders(ctx, a, env, fileConfig)
	if err != nil {
		return nil, err
	}
	log.Entry(ctx).Infof("planning with %s", describe(names))
	resolved, err := p.registry.Resolve(names)
	if err != nil {
		return nil, nperrors.New(nperrors.Config, "resolving providers", "", err)
	}

	var layers []plan.Layer
	for _, provider := range resolved {
		bp, err := provider.GetBuildPlan(a, env)
		if err != nil {
			return nil, nperrors.New(nperrors.Config, "generating plan", provider.Name(), err)
		}
		layers = append(layers, plan.Layer{Name: "provider " + provider.Name(), Plan: bp})
	}
	if fileConfig != nil {
		fileConfig = fileConfig.Clone()
		fileConfig.Providers = nil
	}
	layers = append(layers,
		plan.Layer{Name: "config file", Plan: fileConfig},
		plan.Layer{Name: "environment", Plan: FromEnvironment(env)},
		plan.Layer{Name: "command line", Plan: FromOptions(opts)},
	)

	merged := plan.MergeLayers(ctx, layers...)
	merged.Providers = names
	if err := Resolve(merged); err != nil {
		return nil, err
	}
	if len(merged.Phases) == 0 && merged.Start == nil {
		return nil, nperrors.Configf("unable to generate a build plan for %s, no provider matched and nothing was configured", a.Source)
	}
	if len(names) > 0 {
		merged.AddVariables(map[string]string{constants.MetadataVariable: strings.Join(names, ",")})
	}
	return merged, nil
}

// Resolve strips placeholders and checks that the plan can be rendered.
func Resolve(p *plan.BuildPlan) error {
	p.RemoveAutos()
	if err := p.CheckPlaceholders(); err != nil {
		return err
	}
	if _, err := p.SortedPhases(); err != nil {
		return err
	}
	return nil
}

func dedup(names []string) []string {
	seen := map[string]bool{}
	unique := make([]string, 0, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		unique = append(unique, name)
	}
	return unique
}

func describe(names []string) string {
	if len(names) == 0 {
		return "no provider"
	}
	return fmt.Sprintf("providers %s", strings.Join(names, ", "))
}
