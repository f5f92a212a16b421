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

// Package cache implements the incremental cache: directories that are shipped
// out of one build and back into the next one as tar archives.
package cache

import (
	"fmt"
	"path"
	"strings"

	shell "github.com/kballard/go-shellquote"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/cachekey"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/util"
)

const archiveExt = ".tar"

// AbsoluteDir returns dir as an absolute path inside the build container.
// `~` is the container home and relative paths live under the app directory.
func AbsoluteDir(dir string) string {
	expanded := cachekey.ExpandHome(dir)
	if !path.IsAbs(expanded) {
		expanded = path.Join(constants.AppDir, expanded)
	}
	return path.Clean(expanded)
}

// ArchiveName is the flat file name of the archive holding dir.
func ArchiveName(dir string) string {
	escaped := strings.NewReplacer("%", "%25", "/", "%2f").Replace(AbsoluteDir(dir))
	return escaped + archiveExt
}

// DirFromArchiveName reverses ArchiveName.
func DirFromArchiveName(name string) (string, error) {
	if !strings.HasSuffix(name, archiveExt) {
		return "", fmt.Errorf("%q is not a cache archive", name)
	}
	escaped := strings.TrimSuffix(name, archiveExt)
	return strings.NewReplacer("%2f", "/", "%25", "%").Replace(escaped), nil
}

// StripComponents is the number of leading path components tar has to drop
// to extract an archive of dir into dir itself.
func StripComponents(dir string) int {
	trimmed := strings.Trim(AbsoluteDir(dir), "/")
	if trimmed == "" {
		return 0
	}
	return len(strings.Split(trimmed, "/"))
}

// CopyOutCommands returns the instructions that archive every existing dir
// and upload it to the cache endpoint. Failures never fail the build.
// The endpoint and its token are read from build secrets.
func CopyOutCommands(dirs []string) []string {
	if len(dirs) == 0 {
		return nil
	}

	mounts := fmt.Sprintf("--mount=type=secret,id=%s --mount=type=secret,id=%s",
		constants.CacheUploadURLSecret, constants.CacheUploadTokenSecret)
	var cmds []string
	for _, dir := range dirs {
		abs := AbsoluteDir(dir)
		archive := path.Join("/tmp", ArchiveName(dir))
		cmds = append(cmds, fmt.Sprintf(
			`RUN %[1]s if [ -d %[2]s ]; then tar -cf %[3]s %[2]s && curl --retry 3 --retry-all-errors --silent --fail -F %[4]s -H "%[5]s: $(cat %[6]s)" "$(cat %[7]s)" || true; rm -f %[3]s; fi`,
			mounts,
			shell.Join(abs),
			shell.Join(archive),
			shell.Join("file=@"+archive),
			constants.CacheTokenHeader,
			path.Join(constants.SecretsDir, constants.CacheUploadTokenSecret),
			path.Join(constants.SecretsDir, constants.CacheUploadURLSecret),
		))
	}
	return cmds
}

// CopyInCommands returns the instructions that restore the dirs whose archive
// is staged in the build context.
func CopyInCommands(dirs []string, available Archives) []string {
	var cmds []string
	for _, dir := range dirs {
		name := ArchiveName(dir)
		if !available.Has(name) {
			continue
		}
		abs := AbsoluteDir(dir)
		tmp := path.Join("/tmp", name)
		cmds = append(cmds,
			util.CopyInstruction("", path.Join(constants.IncrementalCacheDir, name), tmp),
			fmt.Sprintf("RUN mkdir -p %[1]s && tar -xf %[2]s -C %[1]s --strip-components %[3]d && rm -f %[2]s",
				shell.Join(abs), shell.Join(tmp), StripComponents(dir)),
		)
	}
	return cmds
}
