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
	"fmt"
	"path"
	"sort"
	"strings"

	shell "github.com/kballard/go-shellquote"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/cache"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/cachekey"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/nix"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/util"
)

// Options control how a plan is rendered.
type Options struct {
	// CacheKey namespaces the cache mounts of phase commands.
	CacheKey string
	// NoCache disables cache mounts.
	NoCache bool
	// IncrementalCache ships cache directories in and out of the build
	// instead of mounting them.
	IncrementalCache bool
	// IncrementalArchives are the archives staged in the build context.
	IncrementalArchives cache.Archives
	// DefaultArchive is the nixpkgs revision used by phases that do not pin one.
	DefaultArchive string
}

func (o Options) nixOptions() nix.Options {
	return nix.Options{DefaultArchive: o.DefaultArchive}
}

// fragment is a group of instructions. An empty fragment is left out.
type fragment []string

// GenerateDockerfile renders plan. The plan must be merged and free of placeholders.
// Rendering does not modify plan and always yields the same text for the same input.
func GenerateDockerfile(p *plan.BuildPlan, opts Options) (string, error) {
	if err := p.CheckPlaceholders(); err != nil {
		return "", err
	}
	phases, err := p.SortedPhases()
	if err != nil {
		return "", err
	}

	sections := []fragment{
		header(p),
		assets(p),
	}
	for _, phase := range phases {
		sections = append(sections, phaseSection(phase, opts))
		if phase.Name == constants.SetupPhase {
			sections = append(sections, variables(p))
		}
	}
	if p.GetPhase(constants.SetupPhase) == nil {
		sections = append(sections, variables(p))
	}
	sections = append(sections, start(p.Start))

	return joinSections(sections), nil
}

func joinSections(sections []fragment) string {
	var parts []string
	for _, s := range sections {
		if len(s) > 0 {
			parts = append(parts, strings.Join(s, "\n"))
		}
	}
	return strings.Join(parts, "\n\n") + "\n"
}

func header(p *plan.BuildPlan) fragment {
	image := p.BuildImage
	if image == "" {
		image = constants.DefaultBaseImage
	}
	return fragment{
		"FROM " + image,
		"",
		`ENTRYPOINT ["/bin/bash", "-l", "-c"]`,
		"WORKDIR " + constants.AppDir,
	}
}

func assets(p *plan.BuildPlan) fragment {
	if len(p.StaticAssets) == 0 {
		return nil
	}
	return fragment{fmt.Sprintf("COPY %s %s", path.Join(constants.BuildFilesDir, "assets"), constants.AssetsDir)}
}

// variables promotes the plan variables to the environment of later phases and of the image.
func variables(p *plan.BuildPlan) fragment {
	if len(p.Variables) == 0 {
		return nil
	}
	names := make([]string, 0, len(p.Variables))
	for name := range p.Variables {
		names = append(names, name)
	}
	sort.Strings(names)

	envs := make([]string, 0, len(names))
	for _, name := range names {
		envs = append(envs, fmt.Sprintf("%s=$%s", name, name))
	}
	return fragment{
		"ARG " + strings.Join(names, " "),
		"ENV " + strings.Join(envs, " "),
	}
}

func phaseSection(phase *plan.Phase, opts Options) fragment {
	section := fragment{"# " + phase.Name}
	for _, f := range []fragment{
		searchPaths(phase),
		nixInstall(phase),
		aptInstall(phase),
		copyFiles(phase),
		copyIn(phase, opts),
		commands(phase, opts),
		copyOut(phase, opts),
	} {
		section = append(section, f...)
	}
	return section
}

func searchPaths(phase *plan.Phase) fragment {
	if len(phase.Paths) == 0 {
		return nil
	}
	joined := strings.Join(phase.Paths, ":")
	return fragment{fmt.Sprintf("ENV %[1]s=%[2]s:$%[1]s PATH=%[2]s:$PATH", constants.PathVariable, joined)}
}

func nixInstall(phase *plan.Phase) fragment {
	if !phase.UsesNix() {
		return nil
	}
	file := path.Join(constants.BuildFilesDir, nix.FileName(phase))
	return fragment{
		util.CopyInstruction("", file, file),
		fmt.Sprintf("RUN nix-env -if %s && nix-collect-garbage -d", shell.Join(file)),
	}
}

func aptInstall(phase *plan.Phase) fragment {
	if len(phase.AptPkgs) == 0 {
		return nil
	}
	return fragment{"RUN sudo apt-get update && sudo apt-get install -y --no-install-recommends " + shell.Join(phase.AptPkgs...)}
}

// copyFiles brings the source into the image. setup runs before the source
// matters and copies nothing unless it lists files.
func copyFiles(phase *plan.Phase) fragment {
	if phase.OnlyIncludeFiles == nil {
		if phase.Name == constants.SetupPhase {
			return nil
		}
		return fragment{"COPY . " + constants.AppDir + "."}
	}
	return copyList(phase.OnlyIncludeFiles, "")
}

func copyList(files []string, from string) fragment {
	var f fragment
	for _, file := range files {
		target := path.Join(constants.AppDir, file)
		src := file
		if from != "" {
			src = target
		}
		f = append(f, util.CopyInstruction(from, src, target))
	}
	return f
}

func copyIn(phase *plan.Phase, opts Options) fragment {
	if !opts.IncrementalCache {
		return nil
	}
	return cache.CopyInCommands(phase.CacheDirectories, opts.IncrementalArchives)
}

func copyOut(phase *plan.Phase, opts Options) fragment {
	if !opts.IncrementalCache {
		return nil
	}
	return cache.CopyOutCommands(phase.CacheDirectories)
}

func commands(phase *plan.Phase, opts Options) fragment {
	mounts := ""
	if !opts.NoCache && !opts.IncrementalCache {
		mounts = cachekey.BuildMount(opts.CacheKey, phase.CacheDirectories)
	}

	var f fragment
	for _, cmd := range phase.Cmds {
		run := "RUN "
		if mounts != "" {
			run += mounts + " "
		}
		f = append(f, run+shellCommand(cmd))
	}
	return f
}

// shellCommand keeps a multi-line script intact by handing it to the shell as
// a single argument. Single lines stay in shell form.
func shellCommand(cmd string) string {
	cmd = strings.TrimRight(cmd, "\n")
	if !strings.Contains(cmd, "\n") {
		return cmd
	}
	return execForm("/bin/sh", "-c", cmd)
}

func start(s *plan.StartPhase) fragment {
	if s == nil {
		return nil
	}

	f := fragment{"# start"}
	if s.RunImage != "" {
		f = append(f,
			"FROM "+s.RunImage,
			"WORKDIR "+constants.AppDir,
			"COPY --from=0 /etc/ssl/certs /etc/ssl/certs",
		)
		if s.OnlyIncludeFiles == nil {
			f = append(f, "COPY --from=0 "+constants.AppDir+" "+constants.AppDir)
		} else {
			f = append(f, copyList(s.OnlyIncludeFiles, "--from=0 ")...)
		}
	} else if s.OnlyIncludeFiles == nil {
		f = append(f, "COPY . "+constants.AppDir)
	} else {
		f = append(f, copyList(s.OnlyIncludeFiles, "")...)
	}

	if s.Cmd != "" {
		f = append(f, "CMD "+execForm(s.Cmd))
	}
	return f
}

// execForm renders args as a JSON array. CMD runs through the login shell of the entrypoint.
func execForm(args ...string) string {
	return util.JSONArray(args...)
}
