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

package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
)

// CycleError is returned when the dependency edges form a cycle.
type CycleError struct {
	// Remaining is the number of items that could not be ordered.
	Remaining int
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected (%d nodes involved)", e.Remaining)
}

// DuplicateError is returned when two items share a name.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate name %q", e.Name)
}

// TopologicalSort orders items so that every item comes after the items it depends on.
// Items that do not depend on each other are ordered by name. Dependencies on names
// that are not part of items are ignored.
func TopologicalSort[T any](items []T, name func(T) string, deps func(T) []string) ([]T, error) {
	byName := make(map[string]T, len(items))
	for _, item := range items {
		n := name(item)
		if _, found := byName[n]; found {
			return nil, &DuplicateError{Name: n}
		}
		byName[n] = item
	}

	inDegree := make(map[string]int, len(items))
	dependents := make(map[string][]string, len(items))
	for _, item := range items {
		n := name(item)
		inDegree[n] += 0
		seen := map[string]bool{}
		for _, dep := range deps(item) {
			if _, found := byName[dep]; !found {
				log.Entry(context.TODO()).Debugf("ignoring unknown dependency %q of %q", dep, n)
				continue
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			inDegree[n]++
			dependents[dep] = append(dependents[dep], n)
		}
	}

	var ready []string
	for n, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, n)
		}
	}

	sorted := make([]T, 0, len(items))
	for len(ready) > 0 {
		sort.Strings(ready)
		var next []string
		for _, n := range ready {
			sorted = append(sorted, byName[n])
			for _, dependent := range dependents[n] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		ready = next
	}

	if len(sorted) != len(items) {
		return nil, &CycleError{Remaining: len(items) - len(sorted)}
	}
	return sorted, nil
}
