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

package errors

import (
	"errors"
	"fmt"
	"os/exec"
	"regexp"
)

var (
	// ErrNoSuggestionFound error not found
	ErrNoSuggestionFound = fmt.Errorf("no suggestions found")
)

// re is a shortcut around regexp.MustCompile
func re(s string) *regexp.Regexp {
	return regexp.MustCompile(s)
}

type problem struct {
	regexp      *regexp.Regexp
	description string
	suggestion  string
}

var knownToolProblems = []problem{
	{
		regexp:      re(`(?i)cannot connect to the docker daemon|is the docker daemon running`),
		description: "Build failed. Could not connect to the Docker daemon",
		suggestion:  "Check if docker is running",
	},
	{
		regexp:      re(`(?i)permission denied.*docker\.sock`),
		description: "Build failed. Permission denied on the Docker socket",
		suggestion:  "Add your user to the docker group or run with sufficient privileges",
	},
	{
		regexp:      re(`(?i)buildx.*not found|--mount.*requires buildkit|the --mount option requires BuildKit`),
		description: "Build failed. Cache mounts require BuildKit",
		suggestion:  "Set DOCKER_BUILDKIT=1 or run with --no-cache",
	},
	{
		regexp:      re(`(?i)error: attribute '([^']+)' missing`),
		description: "Build failed. A nix package does not exist in the selected nixpkgs archive",
		suggestion:  "Check the package name or pin another archive with nixpacksArchive",
	},
}

// Suggest returns a description and remediation hint for a failure of an
// external tool, or ErrNoSuggestionFound.
func Suggest(err error) (string, error) {
	if err == nil {
		return "", ErrNoSuggestionFound
	}
	if errors.Is(err, exec.ErrNotFound) {
		return "Build failed. The docker executable was not found. Install Docker (https://docs.docker.com/get-docker/) or use --out to only write the build files", nil
	}
	for _, p := range knownToolProblems {
		if p.regexp.MatchString(err.Error()) {
			return fmt.Sprintf("%s. %s", p.description, p.suggestion), nil
		}
	}
	return "", ErrNoSuggestionFound
}

// ToolError wraps a failure of an external tool, attaching a remediation hint when one is known.
func ToolError(tool string, err error) error {
	if hint, sErr := Suggest(err); sErr == nil {
		return &Error{Kind: ExternalTool, Op: "running", Subject: tool, Err: fmt.Errorf("%s: %w", hint, err)}
	}
	return &Error{Kind: ExternalTool, Op: "running", Subject: tool, Err: err}
}
