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
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nixpacks-go/nixpacks/cmd/nixpacks/app/cmd"
	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/color"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/util"
)

// Run executes the command line in os.Args. Errors are printed to stderr.
func Run(out, stderr io.Writer) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cmd.NewNixpacksCommand(out, stderr)
	c.SetArgs(os.Args[1:])
	if err := c.ExecuteContext(ctx); err != nil {
		color.Fprintln(stderr, color.Red, err)
		return err
	}
	return nil
}

// ExitCode picks the process exit code for err. Failed tools pass their own
// exit code through.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch nperrors.KindOf(err) {
	case nperrors.Config:
		return 2
	case nperrors.Graph:
		return 3
	case nperrors.Generation:
		return 4
	case nperrors.CacheTransfer:
		return 5
	case nperrors.ExternalTool:
		if code := util.ExitCode(err); code > 0 {
			return code
		}
		return 6
	}
	return 1
}
