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

// Package app gives providers read access to the application source and its environment.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	yamlutil "github.com/nixpacks-go/nixpacks/pkg/nixpacks/yaml"
)

// skippedDirs are never searched by FindFiles.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
}

// App is the source tree of an application. Paths are relative to its root
// and use forward slashes.
type App struct {
	Source string
	fs     afero.Fs
}

// New returns the application rooted at the source directory on disk.
func New(source string) (*App, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, nperrors.New(nperrors.Config, "reading application", source, err)
	}
	if !info.IsDir() {
		return nil, nperrors.Configf("application %s is not a directory", source)
	}
	return &App{Source: abs, fs: afero.NewBasePathFs(afero.NewOsFs(), abs)}, nil
}

// NewWithFs returns the application rooted at the source directory of fs.
func NewWithFs(fs afero.Fs, source string) *App {
	return &App{Source: source, fs: afero.NewBasePathFs(fs, source)}
}

// path keeps name inside the application.
func (a *App) path(name string) string {
	return path.Clean("/" + filepath.ToSlash(name))
}

// IncludesFile reports whether the regular file name exists.
func (a *App) IncludesFile(name string) bool {
	info, err := a.fs.Stat(a.path(name))
	return err == nil && !info.IsDir()
}

// IncludesDirectory reports whether the directory name exists.
func (a *App) IncludesDirectory(name string) bool {
	info, err := a.fs.Stat(a.path(name))
	return err == nil && info.IsDir()
}

// ReadFile returns the content of name.
func (a *App) ReadFile(name string) (string, error) {
	b, err := afero.ReadFile(a.fs, a.path(name))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", name, err)
	}
	return string(b), nil
}

// ReadJSON decodes the JSON file name into v.
func (a *App) ReadJSON(name string, v interface{}) error {
	return a.decode(name, v, json.Unmarshal)
}

// ReadTOML decodes the TOML file name into v.
func (a *App) ReadTOML(name string, v interface{}) error {
	return a.decode(name, v, toml.Unmarshal)
}

// ReadYAML decodes the YAML file name into v.
func (a *App) ReadYAML(name string, v interface{}) error {
	return a.decode(name, v, yamlutil.Unmarshal)
}

func (a *App) decode(name string, v interface{}, unmarshal func([]byte, interface{}) error) error {
	b, err := afero.ReadFile(a.fs, a.path(name))
	if err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := unmarshal(b, v); err != nil {
		return nperrors.New(nperrors.Config, "parsing", name, err)
	}
	return nil
}

// FindFiles returns the files matching the doublestar pattern, in lexical order.
func (a *App) FindFiles(pattern string) ([]string, error) {
	var matches []string
	err := afero.Walk(a.fs, "/", func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil
			}
			return err
		}
		rel := strings.TrimPrefix(filepath.ToSlash(p), "/")
		if info.IsDir() {
			if skippedDirs[info.Name()] && rel != "" {
				return filepath.SkipDir
			}
			return nil
		}
		match, err := doublestar.Match(pattern, rel)
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if match {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// HasMatch reports whether at least one file matches pattern.
func (a *App) HasMatch(pattern string) bool {
	matches, err := a.FindFiles(pattern)
	return err == nil && len(matches) > 0
}
