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
	"bytes"
	"errors"
	"io"
	"os"
	"os/exec"
	"testing"

	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	"github.com/nixpacks-go/nixpacks/testutil"
)

func TestMainHelp(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		t.Override(&os.Args, []string{"nixpacks", "help"})

		var (
			output    bytes.Buffer
			errOutput bytes.Buffer
		)
		err := Run(&output, &errOutput)

		t.CheckNoError(err)
		t.CheckContains("Available Commands", output.String())
		t.CheckContains("build plan", output.String())
		t.CheckEmpty(errOutput.String())
	})
}

func TestMainUnknownCommand(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		t.Override(&os.Args, []string{"nixpacks", "unknown"})
		var errOutput bytes.Buffer

		err := Run(io.Discard, &errOutput)

		t.CheckError(true, err)
		t.CheckContains(`unknown command "unknown"`, errOutput.String())
		t.CheckDeepEqual(1, ExitCode(err))
	})
}

func TestMainPlan(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		src := t.NewTempDir().Write("main.go", "package main")
		t.Override(&os.Args, []string{"nixpacks", "plan", src.Root(), "--format", "json"})
		var output bytes.Buffer

		err := Run(&output, io.Discard)

		t.CheckNoError(err)
		t.CheckContains(`"./out"`, output.String())
		t.CheckContains(`"go build -o out ."`, output.String())
	})
}

func TestMainPlanNothingToBuild(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		src := t.NewTempDir().Write("README.md", "")
		t.Override(&os.Args, []string{"nixpacks", "plan", src.Root()})

		err := Run(io.Discard, io.Discard)

		t.CheckDeepEqual(2, ExitCode(err))
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		description string
		err         error
		expected    int
	}{
		{description: "success", expected: 0},
		{description: "plain", err: errors.New("boom"), expected: 1},
		{description: "config", err: nperrors.Configf("bad"), expected: 2},
		{description: "graph", err: nperrors.New(nperrors.Graph, "sorting phases", "", errors.New("cycle")), expected: 3},
		{description: "generation", err: nperrors.New(nperrors.Generation, "rendering", "", errors.New("x")), expected: 4},
		{description: "cache", err: nperrors.New(nperrors.CacheTransfer, "pull", "", errors.New("x")), expected: 5},
		{description: "tool not found", err: nperrors.ToolError("docker", exec.ErrNotFound), expected: 6},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			t.CheckDeepEqual(test.expected, ExitCode(test.err))
		})
	}
}
