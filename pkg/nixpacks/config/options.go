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

package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
)

// NixpacksOptions are options that are set by command line arguments not included
// in the config file itself
type NixpacksOptions struct {
	// ConfigFile is a plan file to merge over the provider plans.
	ConfigFile string
	// PlanFile is a complete plan used instead of generating one.
	PlanFile string

	InstallCmd string
	BuildCmd   string
	StartCmd   string
	Pkgs       []string
	AptPkgs    []string
	Libs       []string
	Envs       []string
	EnvFiles   []string

	Name      string
	Tags      []string
	Labels    []string
	Platforms []string
	OutDir    string
	NoCache   bool
	CacheKey  string

	IncrementalCache bool
	CacheDir         string
	CacheImage       string
	CachePort        int
	NixpkgsArchive   string
}

// ResolveCacheDir returns the directory staging incremental cache archives,
// ~/.nixpacks/cache/<cache key> unless CacheDir is set.
func (opts *NixpacksOptions) ResolveCacheDir() (string, error) {
	if opts.CacheDir != "" {
		dir, err := homedir.Expand(opts.CacheDir)
		if err != nil {
			return "", fmt.Errorf("expanding %s: %w", opts.CacheDir, err)
		}
		return filepath.Abs(dir)
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("retrieving home directory: %w", err)
	}
	key := opts.CacheKey
	if key == "" {
		key = "default"
	}
	return filepath.Join(home, constants.DefaultNixpacksDir, constants.DefaultCacheDir, filepath.Base(key)), nil
}

// NixpkgsArchiveOrDefault returns the nixpkgs revision used by phases that do not pin one.
func (opts *NixpacksOptions) NixpkgsArchiveOrDefault() string {
	if opts.NixpkgsArchive != "" {
		return opts.NixpkgsArchive
	}
	return constants.DefaultNixpkgsArchive
}

// ImageLabels returns the labels applied to the built image, custom labels last.
func (opts *NixpacksOptions) ImageLabels(providers []string) []string {
	labels := map[string]string{}
	if len(providers) > 0 {
		labels["com.nixpacks.providers"] = strings.Join(providers, ",")
	}
	if opts.CacheKey != "" {
		labels["com.nixpacks.cache-key"] = opts.CacheKey
	}
	for _, cl := range opts.Labels {
		l := strings.SplitN(cl, "=", 2)
		if len(l) == 1 {
			labels[l[0]] = ""
			continue
		}
		labels[l[0]] = l[1]
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	flat := make([]string, 0, len(keys))
	for _, k := range keys {
		flat = append(flat, k+"="+labels[k])
	}
	return flat
}
