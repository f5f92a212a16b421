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

package app

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/imdario/mergo"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
)

// Environment holds the variables visible to providers and to the build.
// Later sources override earlier ones.
type Environment struct {
	vars map[string]string
}

func NewEnvironment() *Environment {
	return &Environment{vars: map[string]string{}}
}

// FromEnvs builds an environment from KEY=VALUE pairs. A KEY alone takes its
// value from the current process and is skipped if the process does not set it.
func FromEnvs(envs []string) (*Environment, error) {
	e := NewEnvironment()
	if err := e.AddEnvs(envs); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Environment) Get(name string) (string, bool) {
	v, found := e.vars[name]
	return v, found
}

func (e *Environment) Set(name, value string) {
	e.vars[name] = value
}

// Variables returns a copy of every variable.
func (e *Environment) Variables() map[string]string {
	vars := make(map[string]string, len(e.vars))
	for k, v := range e.vars {
		vars[k] = v
	}
	return vars
}

// Names returns the variable names in lexical order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConfigVariable returns the value of NIXPACKS_<name>.
func (e *Environment) ConfigVariable(name string) (string, bool) {
	return e.Get(constants.EnvPrefix + name)
}

// IsConfigVariableTruthy reports whether NIXPACKS_<name> is "1" or "true".
func (e *Environment) IsConfigVariableTruthy(name string) bool {
	v, _ := e.ConfigVariable(name)
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "1" || v == "true"
}

// AddProcessVariables copies the NIXPACKS_ variables of environ, which has the form of os.Environ.
func (e *Environment) AddProcessVariables(environ []string) {
	for _, kv := range environ {
		name, value, found := strings.Cut(kv, "=")
		if found && strings.HasPrefix(name, constants.EnvPrefix) {
			e.vars[name] = value
		}
	}
}

// LoadEnvFiles reads dotenv files in order.
func (e *Environment) LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		expanded, err := homedir.Expand(p)
		if err != nil {
			return err
		}
		vars, err := godotenv.Read(expanded)
		if err != nil {
			return fmt.Errorf("reading env file %s: %w", p, err)
		}
		if err := mergo.Merge(&e.vars, vars, mergo.WithOverride); err != nil {
			return err
		}
	}
	return nil
}

// AddEnvs adds KEY=VALUE pairs, see FromEnvs.
func (e *Environment) AddEnvs(envs []string) error {
	for _, env := range envs {
		name, value, found := strings.Cut(env, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("invalid environment variable %q", env)
		}
		if !found {
			v, set := os.LookupEnv(name)
			if !set {
				continue
			}
			value = v
		}
		e.vars[name] = value
	}
	return nil
}
