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

package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	// Config errors come from bad input: duplicate phases, leftover placeholders, malformed plans.
	Config = Kind("Config")
	// Graph errors come from the phase graph itself, such as cycles.
	Graph = Kind("Graph")
	// Generation errors happen while rendering build files.
	Generation = Kind("Generation")
	// CacheTransfer errors happen while moving incremental cache archives. They never fail a build.
	CacheTransfer = Kind("CacheTransfer")
	// ExternalTool errors come from the container build tool or the package resolver.
	ExternalTool = Kind("ExternalTool")
	// Unknown is reported for errors that carry no kind.
	Unknown = Kind("Unknown")
)

// Error is an error with a kind and the context needed to act on it.
type Error struct {
	Kind    Kind
	Op      string
	Subject string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Subject != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Subject)
	}
	if e.Err == nil {
		return msg
	}
	if msg == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an error of the given kind.
func New(kind Kind, op, subject string, err error) error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: err}
}

// Configf returns a Config error with a formatted message.
func Configf(format string, args ...interface{}) error {
	return &Error{Kind: Config, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
