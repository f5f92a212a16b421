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
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

type run struct {
	command string
	output  []byte
	err     error
	out     bool
	stdin   io.Writer
}

// FakeCmd replaces util.DefaultExecCommand in tests. It expects the
// registered commands to be run in order.
type FakeCmd struct {
	mu   sync.Mutex
	runs []run
	t    *T
}

func newFakeCmd() *FakeCmd {
	return &FakeCmd{}
}

func CmdRun(command string) *FakeCmd {
	return newFakeCmd().AndRun(command)
}

func CmdRunErr(command string, err error) *FakeCmd {
	return newFakeCmd().AndRunErr(command, err)
}

// CmdRunStdin expects command and copies what it reads from its stdin to stdin.
func CmdRunStdin(command string, stdin io.Writer) *FakeCmd {
	return newFakeCmd().AndRunStdin(command, stdin)
}

func CmdRunOut(command, output string) *FakeCmd {
	return newFakeCmd().AndRunOut(command, output)
}

func CmdRunOutErr(command, output string, err error) *FakeCmd {
	return newFakeCmd().AndRunOutErr(command, output, err)
}

func (c *FakeCmd) AndRun(command string) *FakeCmd {
	return c.addRun(run{command: command})
}

func (c *FakeCmd) AndRunErr(command string, err error) *FakeCmd {
	return c.addRun(run{command: command, err: err})
}

func (c *FakeCmd) AndRunStdin(command string, stdin io.Writer) *FakeCmd {
	return c.addRun(run{command: command, stdin: stdin})
}

func (c *FakeCmd) AndRunOut(command, output string) *FakeCmd {
	return c.addRun(run{command: command, output: []byte(output), out: true})
}

func (c *FakeCmd) AndRunOutErr(command, output string, err error) *FakeCmd {
	return c.addRun(run{command: command, output: []byte(output), err: err, out: true})
}

func (c *FakeCmd) addRun(r run) *FakeCmd {
	c.runs = append(c.runs, r)
	return c
}

// ForTest makes the fake fail t if some registered commands were never run.
func (c *FakeCmd) ForTest(t *T) *FakeCmd {
	c.t = t
	t.teardownActions = append(t.teardownActions, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if len(c.runs) > 0 {
			t.Errorf("expected commands not run: %v", c.pending())
		}
	})
	return c
}

func (c *FakeCmd) pending() []string {
	var commands []string
	for _, r := range c.runs {
		commands = append(commands, r.command)
	}
	return commands
}

func (c *FakeCmd) popRun(actual string, out bool) (run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.runs) == 0 {
		return run{}, fmt.Errorf("no more run is expected. Got: %s", actual)
	}
	r := c.runs[0]
	c.runs = c.runs[1:]

	if r.command != actual {
		return run{}, fmt.Errorf("expected: %s. Got: %s", r.command, actual)
	}
	if r.out != out {
		return run{}, fmt.Errorf("expected RunCmdOut=%t for %s", r.out, actual)
	}
	return r, nil
}

func (c *FakeCmd) RunCmdOut(_ context.Context, cmd *exec.Cmd) ([]byte, error) {
	r, err := c.popRun(strings.Join(cmd.Args, " "), true)
	if err != nil {
		return nil, err
	}
	return r.output, r.err
}

func (c *FakeCmd) RunCmd(_ context.Context, cmd *exec.Cmd) error {
	r, err := c.popRun(strings.Join(cmd.Args, " "), false)
	if err != nil {
		return err
	}
	if r.stdin != nil && cmd.Stdin != nil {
		if _, err := io.Copy(r.stdin, cmd.Stdin); err != nil {
			return fmt.Errorf("reading stdin of %s: %w", r.command, err)
		}
	}
	return r.err
}
