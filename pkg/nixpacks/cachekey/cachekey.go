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

// Package cachekey turns cache keys and directories into BuildKit cache mount flags.
package cachekey

import (
	"fmt"
	"strings"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
)

var sanitizer = strings.NewReplacer(".", "", " ", "-")

// Sanitize removes dots and replaces spaces with dashes. Every other
// character is kept: the result is only as safe as what BuildKit accepts
// in a mount id.
func Sanitize(key string) string {
	return sanitizer.Replace(key)
}

// ExpandHome replaces a leading `~` with the home directory of the build container.
func ExpandHome(dir string) string {
	if dir == "~" {
		return constants.ContainerHome
	}
	if strings.HasPrefix(dir, "~/") {
		return constants.ContainerHome + dir[1:]
	}
	return dir
}

// BuildMount returns the cache mount flags for the given directories,
// or an empty string when there is no key or no directory.
func BuildMount(cacheKey string, dirs []string) string {
	if cacheKey == "" || len(dirs) == 0 {
		return ""
	}

	mounts := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		target := ExpandHome(dir)
		id := Sanitize(fmt.Sprintf("%s-%s", cacheKey, target))
		mounts = append(mounts, fmt.Sprintf("--mount=type=cache,id=%s,target=%s", id, target))
	}
	return strings.Join(mounts, " ")
}
