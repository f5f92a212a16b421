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

// Package providers detects the language of an application and proposes a build plan for it.
package providers

import (
	"fmt"
	"strings"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/app"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
)

// Provider knows how to build one kind of application.
type Provider interface {
	Name() string
	// Detect reports whether the provider can build the application.
	Detect(a *app.App, env *app.Environment) (bool, error)
	// GetBuildPlan proposes a plan. It only reads the application.
	GetBuildPlan(a *app.App, env *app.Environment) (*plan.BuildPlan, error)
}

// Registry is an ordered set of providers. Detection picks the first match.
type Registry struct {
	providers []Provider
}

func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// Default returns the built-in providers. Generic providers come last.
func Default() *Registry {
	return NewRegistry(
		&GoProvider{},
		&NodeProvider{},
		&PythonProvider{},
		&StaticfileProvider{},
	)
}

// Names returns the provider names in detection order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return names
}

// Get returns the provider called name.
func (r *Registry) Get(name string) (Provider, bool) {
	for _, p := range r.providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Resolve returns the providers called names, in the given order.
func (r *Registry) Resolve(names []string) ([]Provider, error) {
	resolved := make([]Provider, 0, len(names))
	for _, name := range names {
		p, found := r.Get(name)
		if !found {
			return nil, fmt.Errorf("unknown provider %q, expected one of %s", name, strings.Join(r.Names(), ", "))
		}
		resolved = append(resolved, p)
	}
	return resolved, nil
}

// Detect returns the first provider that can build the application, or nil.
func (r *Registry) Detect(a *app.App, env *app.Environment) (Provider, error) {
	for _, p := range r.providers {
		matched, err := p.Detect(a, env)
		if err != nil {
			return nil, fmt.Errorf("detecting %s: %w", p.Name(), err)
		}
		if matched {
			return p, nil
		}
	}
	return nil, nil
}
