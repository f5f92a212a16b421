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
	"os"
	"path/filepath"

	"github.com/otiai10/copy"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
)

// WriteBuildFiles assembles the build context for files in dest: the application
// source from src without what .dockerignore excludes, the generated files and
// the staged incremental cache archives found in stagingDir.
// The context is assembled next to dest and only moved into place once complete.
func WriteBuildFiles(ctx context.Context, src string, files *BuildFiles, dest, stagingDir string) error {
	src, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	dest, err = filepath.Abs(dest)
	if err != nil {
		return err
	}

	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", parent, err)
	}
	tmp, err := os.MkdirTemp(parent, ".nixpacks-build-")
	if err != nil {
		return fmt.Errorf("creating build directory: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(tmp)
		}
	}()
	if err := os.Chmod(tmp, 0o755); err != nil {
		return err
	}

	if err := copySource(src, tmp, dest); err != nil {
		return fmt.Errorf("copying %s: %w", src, err)
	}
	for _, p := range files.Paths() {
		content, _ := files.Content(p)
		if err := writeFile(filepath.Join(tmp, filepath.FromSlash(p)), content); err != nil {
			return err
		}
	}
	for _, name := range files.Archives {
		from := filepath.Join(stagingDir, name)
		to := filepath.Join(tmp, filepath.FromSlash(constants.IncrementalCacheDir), name)
		if err := copy.Copy(from, to); err != nil {
			return fmt.Errorf("staging cache archive %s: %w", name, err)
		}
	}

	if err := replaceDir(tmp, dest); err != nil {
		return err
	}
	committed = true
	log.Entry(ctx).Debugf("wrote build files to %s", dest)
	return nil
}

func copySource(src, tmp, dest string) error {
	excludes, err := readDockerignore(src)
	if err != nil {
		return err
	}
	ignored, err := newDockerIgnorePredicate(src, excludes)
	if err != nil {
		return err
	}

	return copy.Copy(src, tmp, copy.Options{
		Skip: func(info os.FileInfo, path, _ string) (bool, error) {
			// the output may live inside the application
			if path == tmp || path == dest {
				return true, nil
			}
			return ignored(path, info.IsDir())
		},
	})
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// replaceDir moves tmp to dest, replacing what dest held before.
func replaceDir(tmp, dest string) error {
	if _, err := os.Lstat(dest); os.IsNotExist(err) {
		return os.Rename(tmp, dest)
	}

	old := tmp + "-old"
	if err := os.Rename(dest, old); err != nil {
		return fmt.Errorf("replacing %s: %w", dest, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Rename(old, dest)
		return fmt.Errorf("replacing %s: %w", dest, err)
	}
	return os.RemoveAll(old)
}
