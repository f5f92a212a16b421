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
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
)

// ignorePredicate reports whether a path of the application should stay out of the build context.
type ignorePredicate func(path string, isDir bool) (bool, error)

// readDockerignore returns the patterns of the .dockerignore file in root, if any.
func readDockerignore(root string) ([]string, error) {
	f, err := os.Open(filepath.Join(root, ".dockerignore"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	patterns, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading .dockerignore: %w", err)
	}
	return patterns, nil
}

// newDockerIgnorePredicate checks paths under workspace against excludes.
// An ignored directory is only skipped as a whole when no exclusion pattern could re-include one of its files.
func newDockerIgnorePredicate(workspace string, excludes []string) (ignorePredicate, error) {
	matcher, err := patternmatcher.New(excludes)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude patterns: %w", err)
	}

	return func(path string, isDir bool) (bool, error) {
		relPath, err := filepath.Rel(workspace, path)
		if err != nil {
			return false, err
		}
		if relPath == "." {
			return false, nil
		}

		ignored, err := matcher.MatchesOrParentMatches(filepath.ToSlash(relPath))
		if err != nil {
			return false, err
		}
		if ignored && isDir {
			return skipDir(relPath, matcher), nil
		}
		return ignored, nil
	}, nil
}

// exclusion handling closely follows docker's archive package
func skipDir(relPath string, matcher *patternmatcher.PatternMatcher) bool {
	// No exceptions (!...) in patterns so just skip dir
	if !matcher.Exclusions() {
		return true
	}

	dirSlash := filepath.ToSlash(relPath) + "/"
	for _, pat := range matcher.Patterns() {
		if !pat.Exclusion() {
			continue
		}
		if strings.HasPrefix(pat.String()+"/", dirSlash) {
			// found a match - so can't skip this dir
			return false
		}
	}
	return true
}
