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

package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/util"
)

// imageDir is where archives live inside a cache image.
const imageDir = "incremental-cache"

// For testing
var containerName = func() string {
	return "nixpacks-cache-" + uuid.NewString()
}

// ExportImage folds every archive staged in dir into a single layer image.
func ExportImage(ctx context.Context, dir, image string) error {
	archives, err := ScanArchives(afero.NewOsFs(), dir)
	if err != nil {
		return nperrors.New(nperrors.CacheTransfer, "exporting cache image", image, err)
	}
	if len(archives) == 0 {
		return nperrors.New(nperrors.CacheTransfer, "exporting cache image", image, fmt.Errorf("no archives in %s", dir))
	}

	// the layer is streamed, archives can be far larger than memory
	pr, pw := io.Pipe()
	tarErr := make(chan error, 1)
	go func() {
		err := util.CreateTar(pw, dir, archives.Names(), imageDir)
		pw.CloseWithError(err)
		tarErr <- err
	}()

	cmd := exec.CommandContext(ctx, "docker", "import", "-", image)
	cmd.Stdin = pr
	cmd.Stderr = os.Stderr
	err = util.RunCmd(ctx, cmd)
	// unblocks the writer when docker stopped reading early
	pr.Close()
	if werr := <-tarErr; werr != nil && err == nil && !errors.Is(werr, io.ErrClosedPipe) {
		return nperrors.New(nperrors.CacheTransfer, "exporting cache image", image, werr)
	}
	if err != nil {
		return nperrors.New(nperrors.CacheTransfer, "exporting cache image", image, nperrors.ToolError("docker", err))
	}
	log.Entry(ctx).Infof("exported %d cache archives to %s", len(archives), image)
	return nil
}

// RestoreImage copies the archives of a cache image into dir.
func RestoreImage(ctx context.Context, image, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nperrors.New(nperrors.CacheTransfer, "restoring cache image", image, err)
	}

	name := containerName()
	create := exec.CommandContext(ctx, "docker", "create", "--name", name, image, "restore")
	if _, err := util.RunCmdOut(ctx, create); err != nil {
		return nperrors.New(nperrors.CacheTransfer, "restoring cache image", image, nperrors.ToolError("docker", err))
	}
	defer func() {
		rm := exec.CommandContext(context.Background(), "docker", "rm", "-f", name)
		if _, err := util.RunCmdOut(ctx, rm); err != nil {
			log.Entry(ctx).Warnf("removing container %s: %v", name, err)
		}
	}()

	src := name + ":" + path.Join("/", imageDir) + "/."
	cp := exec.CommandContext(ctx, "docker", "cp", src, strings.TrimSuffix(dir, "/")+"/")
	if _, err := util.RunCmdOut(ctx, cp); err != nil {
		return nperrors.New(nperrors.CacheTransfer, "restoring cache image", image, nperrors.ToolError("docker", err))
	}
	return nil
}
