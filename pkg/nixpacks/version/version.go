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

// Package version reports the version of the running binary.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/blang/semver"
)

// Set at link time with -ldflags "-X github.com/nixpacks-go/nixpacks/pkg/nixpacks/version.version=..."
var version, gitCommit, buildDate string

var platform = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)

type Info struct {
	Version   string
	GitCommit string
	BuildDate string
	GoVersion string
	Compiler  string
	Platform  string
}

// Get returns the version and buildtime information about the binary.
func Get() *Info {
	v := version
	if v == "" {
		v = "v0.0.0-dev"
	}
	return &Info{
		Version:   v,
		GitCommit: gitCommit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Platform:  platform,
	}
}

// Semver parses the version of the binary.
func (i *Info) Semver() (semver.Version, error) {
	return ParseVersion(i.Version)
}

// ParseVersion parses a version string, stripping a leading v.
func ParseVersion(s string) (semver.Version, error) {
	v, err := semver.Parse(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if err != nil {
		return semver.Version{}, fmt.Errorf("parsing semver: %w", err)
	}
	return v, nil
}
