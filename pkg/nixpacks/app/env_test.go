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

package app

import (
	"testing"

	"github.com/nixpacks-go/nixpacks/testutil"
)

func TestEnvironmentPrecedence(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		t.SetEnvs(map[string]string{"FROM_PROCESS": "process"})
		files := t.NewTempDir().
			Write("a.env", "NIXPACKS_BUILD_CMD=make\nPORT=3000\n").
			Write("b.env", "PORT=4000\nDEBUG=1\n")

		env := NewEnvironment()
		env.AddProcessVariables([]string{"NIXPACKS_BUILD_CMD=npm run build", "NIXPACKS_PKGS=ffmpeg", "HOME=/root", "BROKEN"})
		t.CheckNoError(env.LoadEnvFiles(files.Path("a.env"), files.Path("b.env")))
		t.CheckNoError(env.AddEnvs([]string{"PORT=8080", "FROM_PROCESS", "NOT_SET_ANYWHERE"}))

		t.CheckDeepEqual(map[string]string{
			"NIXPACKS_BUILD_CMD": "make",
			"NIXPACKS_PKGS":      "ffmpeg",
			"PORT":               "8080",
			"DEBUG":              "1",
			"FROM_PROCESS":       "process",
		}, env.Variables())
		t.CheckDeepEqual([]string{"DEBUG", "FROM_PROCESS", "NIXPACKS_BUILD_CMD", "NIXPACKS_PKGS", "PORT"}, env.Names())
	})
}

func TestConfigVariable(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		env, err := FromEnvs([]string{"NIXPACKS_START_CMD=node server.js", "NIXPACKS_NO_MUSL=true", "NIXPACKS_DEBUG=0"})
		t.CheckNoError(err)

		cmd, found := env.ConfigVariable("START_CMD")
		t.CheckTrue(found)
		t.CheckDeepEqual("node server.js", cmd)

		_, found = env.ConfigVariable("BUILD_CMD")
		t.CheckFalse(found)

		t.CheckTrue(env.IsConfigVariableTruthy("NO_MUSL"))
		t.CheckFalse(env.IsConfigVariableTruthy("DEBUG"))
		t.CheckFalse(env.IsConfigVariableTruthy("MISSING"))
	})
}

func TestFromEnvs(t *testing.T) {
	testutil.Run(t, "value with equal signs", func(t *testutil.T) {
		env, err := FromEnvs([]string{"DATABASE_URL=postgres://u:p@h/db?sslmode=disable&x=1"})

		t.CheckNoError(err)
		v, _ := env.Get("DATABASE_URL")
		t.CheckDeepEqual("postgres://u:p@h/db?sslmode=disable&x=1", v)
	})
	testutil.Run(t, "empty value", func(t *testutil.T) {
		env, err := FromEnvs([]string{"EMPTY="})

		t.CheckNoError(err)
		v, found := env.Get("EMPTY")
		t.CheckTrue(found)
		t.CheckDeepEqual("", v)
	})
	testutil.Run(t, "missing name", func(t *testutil.T) {
		_, err := FromEnvs([]string{"=value"})

		t.CheckErrorContains("invalid environment variable", err)
	})
}

func TestLoadEnvFilesMissing(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		err := NewEnvironment().LoadEnvFiles(t.NewTempDir().Path("missing.env"))

		t.CheckErrorContains("reading env file", err)
	})
}
