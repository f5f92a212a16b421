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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/app"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
)

// ReadFileConfig reads the plan configured in a file. An explicit path, or
// NIXPACKS_CONFIG_FILE, is relative to the application unless it is absolute.
// Otherwise the first of the well known config files present in the application
// root is used. It returns nil when there is no config file.
func ReadFileConfig(a *app.App, env *app.Environment, path string) (*plan.BuildPlan, error) {
	if path == "" {
		path, _ = env.ConfigVariable("CONFIG_FILE")
	}
	if path == "" {
		for _, name := range constants.ConfigFiles {
			if a.IncludesFile(name) {
				path = name
				break
			}
		}
	}
	if path == "" {
		return nil, nil
	}

	format, err := plan.FormatFromPath(path)
	if err != nil {
		return nil, nperrors.New(nperrors.Config, "reading config file", path, err)
	}
	data, err := readConfig(a, path)
	if err != nil {
		return nil, nperrors.New(nperrors.Config, "reading config file", path, err)
	}
	bp, err := plan.Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return bp, nil
}

func readConfig(a *app.App, path string) ([]byte, error) {
	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "~") {
		content, err := a.ReadFile(path)
		return []byte(content), err
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(expanded)
}

// LoadPlan reads a complete plan from path and checks that it can be rendered.
func LoadPlan(path string) (*plan.BuildPlan, error) {
	format, err := plan.FormatFromPath(path)
	if err != nil {
		return nil, nperrors.New(nperrors.Config, "loading plan", path, err)
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, nperrors.New(nperrors.Config, "loading plan", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, nperrors.New(nperrors.Config, "loading plan", path, err)
	}
	bp, err := plan.Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	if err := Resolve(bp); err != nil {
		return nil, err
	}
	return bp, nil
}
