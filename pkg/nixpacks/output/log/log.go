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

package log

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// Task names the unit of work a log line belongs to.
type Task string

const (
	Plan     = Task("Plan")
	Generate = Task("Generate")
	Build    = Task("Build")
	Cache    = Task("Cache")
	Serve    = Task("Serve")

	SubtaskIDNone = "-1"
)

type contextKey struct{}

var ContextKey = contextKey{}

type EventContext struct {
	Task    Task
	Subtask string
}

// WithTask returns a copy of ctx whose log entries are tagged with task and subtask.
func WithTask(ctx context.Context, task Task, subtask string) context.Context {
	return context.WithValue(ctx, ContextKey, EventContext{Task: task, Subtask: subtask})
}

// Entry takes an context.Context and constructs a logrus.Entry from it, adding
// fields for task and subtask information
func Entry(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if eventContext, ok := ctx.Value(ContextKey).(EventContext); ok {
			return logrus.WithFields(logrus.Fields{
				"task":    eventContext.Task,
				"subtask": eventContext.Subtask,
			})
		}
	}

	// Plan is the first thing any command does, use it as the default task.
	return logrus.WithFields(logrus.Fields{
		"task":    Plan,
		"subtask": SubtaskIDNone,
	})
}

// SetupLogs configures the global logrus logger to write to out at the given level.
func SetupLogs(out io.Writer, level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetOutput(out)
	logrus.SetLevel(lvl)
	return nil
}
