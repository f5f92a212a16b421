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

package util

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
)

// CreateTar writes the files at paths, relative to root, into a tar stream.
// Entries are named prefix/<relative path> and written in lexical order.
func CreateTar(w io.Writer, root string, paths []string, prefix string) error {
	tw := tar.NewWriter(w)
	defer tw.Close()

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	if prefix != "" {
		if err := addDirToTar(tw, prefix); err != nil {
			return err
		}
	}
	for _, p := range sorted {
		if err := addFileToTar(root, filepath.Join(root, p), prefix, tw); err != nil {
			return err
		}
	}
	return nil
}

func addDirToTar(tw *tar.Writer, name string) error {
	return tw.WriteHeader(&tar.Header{
		Name:     path.Clean(name) + "/",
		Typeflag: tar.TypeDir,
		Mode:     0o755,
	})
}

func addFileToTar(root, src, prefix string, tw *tar.Writer) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return err
	}

	mode := fi.Mode()
	if mode&os.ModeSocket != 0 {
		return nil
	}

	var header *tar.Header
	if mode&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return err
		}
		if filepath.IsAbs(target) {
			log.Entry(context.TODO()).Warnf("Skipping %s. Only relative symlinks are supported.", src)
			return nil
		}
		header, err = tar.FileInfoHeader(fi, target)
		if err != nil {
			return err
		}
	} else {
		header, err = tar.FileInfoHeader(fi, "")
		if err != nil {
			return err
		}
	}

	rel, err := filepath.Rel(root, src)
	if err != nil {
		return err
	}
	header.Name = path.Join(prefix, filepath.ToSlash(rel))
	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	if mode.IsRegular() {
		f, err := os.Open(src)
		if err != nil {
			return err
		}
		defer f.Close()

		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("writing real file %q: %w", src, err)
		}
	}
	return nil
}
