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

package config

import (
	"path/filepath"
	"testing"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	"github.com/nixpacks-go/nixpacks/testutil"
)

func TestResolveCacheDir(t *testing.T) {
	testutil.Run(t, "default", func(t *testutil.T) {
		home := t.SetHome()

		dir, err := (&NixpacksOptions{CacheKey: "my-app"}).ResolveCacheDir()

		t.CheckNoError(err)
		t.CheckDeepEqual(filepath.Join(home.Root(), ".nixpacks", "cache", "my-app"), dir)
	})
	testutil.Run(t, "without cache key", func(t *testutil.T) {
		home := t.SetHome()

		dir, err := (&NixpacksOptions{}).ResolveCacheDir()

		t.CheckNoError(err)
		t.CheckDeepEqual(filepath.Join(home.Root(), ".nixpacks", "cache", "default"), dir)
	})
	testutil.Run(t, "explicit", func(t *testutil.T) {
		home := t.SetHome()

		dir, err := (&NixpacksOptions{CacheDir: "~/caches/app"}).ResolveCacheDir()

		t.CheckNoError(err)
		t.CheckDeepEqual(filepath.Join(home.Root(), "caches", "app"), dir)
	})
}

func TestNixpkgsArchiveOrDefault(t *testing.T) {
	testutil.CheckDeepEqual(t, constants.DefaultNixpkgsArchive, (&NixpacksOptions{}).NixpkgsArchiveOrDefault())
	testutil.CheckDeepEqual(t, "abc", (&NixpacksOptions{NixpkgsArchive: "abc"}).NixpkgsArchiveOrDefault())
}

func TestImageLabels(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		opts := &NixpacksOptions{
			CacheKey: "app",
			Labels:   []string{"team=web", "flag", "com.nixpacks.cache-key=override"},
		}

		labels := opts.ImageLabels([]string{"node", "python"})

		t.CheckDeepEqual([]string{
			"com.nixpacks.cache-key=override",
			"com.nixpacks.providers=node,python",
			"flag=",
			"team=web",
		}, labels)
	})
	testutil.Run(t, "nothing", func(t *testutil.T) {
		t.CheckDeepEqual([]string{}, (&NixpacksOptions{}).ImageLabels(nil))
	})
}
