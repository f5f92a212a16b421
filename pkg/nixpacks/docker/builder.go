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
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/util"
)

// Builder runs `docker build` on a build context written by WriteBuildFiles.
type Builder struct {
	// Name is the image name. Tags are extra names for the same image.
	Name      string
	Tags      []string
	Labels    []string
	Platforms []string
	NoCache   bool
	Quiet     bool
	// BuildArgs are passed with --build-arg. The plan variables belong here.
	BuildArgs map[string]string
	// Secrets maps secret ids to the files holding them, passed with --secret.
	Secrets map[string]string
	// HostGateway lets the build reach services of the host through host.docker.internal.
	HostGateway bool
}

// Args returns the docker arguments building contextDir.
func (b *Builder) Args(contextDir string) []string {
	args := []string{"build", "-f", filepath.Join(contextDir, filepath.FromSlash(DockerfilePath))}
	for _, tag := range append([]string{b.Name}, b.Tags...) {
		if tag != "" {
			args = append(args, "-t", tag)
		}
	}
	for _, label := range b.Labels {
		args = append(args, "--label", label)
	}
	if len(b.Platforms) > 0 {
		args = append(args, "--platform", strings.Join(b.Platforms, ","))
	}
	if b.NoCache {
		args = append(args, "--no-cache")
	}
	if b.Quiet {
		args = append(args, "--quiet")
	}

	names := make([]string, 0, len(b.BuildArgs))
	for name := range b.BuildArgs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", name, b.BuildArgs[name]))
	}

	ids := make([]string, 0, len(b.Secrets))
	for id := range b.Secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		args = append(args, "--secret", fmt.Sprintf("id=%s,src=%s", id, b.Secrets[id]))
	}

	if b.HostGateway {
		args = append(args, "--add-host", constants.DockerHostGateway+":host-gateway")
	}
	return append(args, contextDir)
}

// Build runs the build, streaming its output to out.
func (b *Builder) Build(ctx context.Context, out io.Writer, contextDir string) error {
	cmd := exec.CommandContext(ctx, "docker", b.Args(contextDir)...)
	cmd.Env = append(os.Environ(), "DOCKER_BUILDKIT=1")
	cmd.Stdout = out
	cmd.Stderr = out

	log.Entry(ctx).Infof("building image %s", b.Name)
	if err := util.RunCmd(ctx, cmd); err != nil {
		return nperrors.ToolError("docker", err)
	}
	return nil
}
