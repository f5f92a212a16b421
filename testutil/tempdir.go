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

package testutil

import (
	"os"
	"path/filepath"
	"strings"
)

// TempDir offers a virtual filesystem in a temporary directory.
type TempDir struct {
	t    *T
	root string
}

// NewTempDir creates a temporary directory that is removed when the test ends.
func (t *T) NewTempDir() *TempDir {
	return &TempDir{
		t:    t,
		root: t.TempDir(),
	}
}

// TempDirAt wraps an existing directory, for example one created by the code under test.
func TempDirAt(t *T, root string) *TempDir {
	return &TempDir{t: t, root: root}
}

// Root returns the temp directory.
func (h *TempDir) Root() string {
	return h.root
}

// Path returns the path to a file in the temp directory.
func (h *TempDir) Path(file string) string {
	elem := []string{h.root}
	elem = append(elem, strings.Split(file, "/")...)
	return filepath.Join(elem...)
}

// Mkdir makes a sub-directory in the temp directory.
func (h *TempDir) Mkdir(dir string) *TempDir {
	h.failIfErr(os.MkdirAll(h.Path(dir), os.ModePerm))
	return h
}

// Write write content to a file in the temp directory.
func (h *TempDir) Write(file, content string) *TempDir {
	h.failIfErr(os.MkdirAll(filepath.Dir(h.Path(file)), os.ModePerm))
	h.failIfErr(os.WriteFile(h.Path(file), []byte(content), os.ModePerm))
	return h
}

// WriteFiles write a list of files (path->content) in the temp directory.
func (h *TempDir) WriteFiles(files map[string]string) *TempDir {
	for path, content := range files {
		h.Write(path, content)
	}
	return h
}

// Touch creates a list of empty files in the temp directory.
func (h *TempDir) Touch(files ...string) *TempDir {
	for _, file := range files {
		h.Write(file, "")
	}
	return h
}

// Exists returns true if the given path exists in the temp directory.
func (h *TempDir) Exists(file string) bool {
	_, err := os.Stat(h.Path(file))
	return err == nil
}

// Read reads a file in the temp directory.
func (h *TempDir) Read(file string) string {
	content, err := os.ReadFile(h.Path(file))
	h.failIfErr(err)
	return string(content)
}

func (h *TempDir) failIfErr(err error) {
	if err != nil {
		h.t.Fatal(err)
	}
}
