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
	"github.com/mitchellh/go-homedir"
)

// SetEnvs sets environment variables for the duration of the test.
func (t *T) SetEnvs(envs map[string]string) {
	for key, value := range envs {
		t.Setenv(key, value)
	}
}

// SetHome points HOME at a fresh temp directory and returns it. Home lookups
// are not cached while the test runs.
func (t *T) SetHome() *TempDir {
	home := t.NewTempDir()
	t.Setenv("HOME", home.Root())
	t.Setenv("USERPROFILE", home.Root())
	t.Override(&homedir.DisableCache, true)
	return home
}
