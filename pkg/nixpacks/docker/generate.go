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

package docker

import (
	"path"
	"sort"
	"strings"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/cache"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/nix"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
)

// BuildFiles are the files generated for a plan, keyed by their path
// relative to the build context.
type BuildFiles struct {
	Dockerfile string
	// NixFiles maps .nixpacks/<phase>.nix to its expression.
	NixFiles map[string]string
	// Assets maps .nixpacks/assets/<name> to its content.
	Assets map[string]string
	// Archives are the staged cache archives the Dockerfile copies in.
	Archives []string
}

// DockerfilePath is where the Dockerfile is written in the build context.
var DockerfilePath = path.Join(constants.BuildFilesDir, constants.DefaultDockerfile)

// Paths returns every generated file path in lexical order.
func (f *BuildFiles) Paths() []string {
	paths := []string{DockerfilePath}
	for p := range f.NixFiles {
		paths = append(paths, p)
	}
	for p := range f.Assets {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Content returns the content of the generated file at p.
func (f *BuildFiles) Content(p string) (string, bool) {
	if p == DockerfilePath {
		return f.Dockerfile, true
	}
	if c, found := f.NixFiles[p]; found {
		return c, true
	}
	c, found := f.Assets[p]
	return c, found
}

// Generate renders every build file of p. The Dockerfile is validated before it is returned.
func Generate(p *plan.BuildPlan, opts Options) (*BuildFiles, error) {
	dockerfile, err := GenerateDockerfile(p, opts)
	if err != nil {
		return nil, err
	}
	if err := ValidateDockerfile(dockerfile); err != nil {
		return nil, nperrors.New(nperrors.Generation, "validating", DockerfilePath, err)
	}

	files := &BuildFiles{
		Dockerfile: dockerfile,
		NixFiles:   map[string]string{},
		Assets:     map[string]string{},
	}
	for _, phase := range p.PhaseList() {
		if !phase.UsesNix() {
			continue
		}
		expr, err := nix.Generate(phase, opts.nixOptions())
		if err != nil {
			return nil, nperrors.New(nperrors.Generation, "generating build file for phase", phase.Name, err)
		}
		files.NixFiles[path.Join(constants.BuildFilesDir, nix.FileName(phase))] = expr
	}
	for name, content := range p.StaticAssets {
		if !validAssetName(name) {
			return nil, nperrors.Configf("invalid static asset name %q", name)
		}
		files.Assets[path.Join(constants.BuildFilesDir, "assets", name)] = content
	}
	if opts.IncrementalCache {
		files.Archives = stagedArchives(p, opts.IncrementalArchives)
	}
	return files, nil
}

func stagedArchives(p *plan.BuildPlan, available cache.Archives) []string {
	seen := map[string]bool{}
	var names []string
	for _, phase := range p.PhaseList() {
		for _, dir := range phase.CacheDirectories {
			name := cache.ArchiveName(dir)
			if available.Has(name) && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// validAssetName accepts relative paths that stay inside the assets directory.
func validAssetName(name string) bool {
	if name == "" || path.IsAbs(name) || strings.Contains(name, `\`) {
		return false
	}
	clean := path.Clean(name)
	return clean == name && clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}
