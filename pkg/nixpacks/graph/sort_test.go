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
	"errors"
	"testing"

	"github.com/nixpacks-go/nixpacks/testutil"
)

type node struct {
	name string
	deps []string
}

func nodeName(n node) string   { return n.name }
func nodeDeps(n node) []string { return n.deps }

func names(nodes []node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.name)
	}
	return out
}

func TestTopologicalSort(t *testing.T) {
	tests := []struct {
		description string
		nodes       []node
		expected    []string
	}{
		{
			description: "empty",
			expected:    nil,
		},
		{
			description: "chain",
			nodes: []node{
				{name: "build", deps: []string{"install"}},
				{name: "setup"},
				{name: "install", deps: []string{"setup"}},
			},
			expected: []string{"setup", "install", "build"},
		},
		{
			description: "independent nodes are sorted by name",
			nodes: []node{
				{name: "c"},
				{name: "a"},
				{name: "b"},
			},
			expected: []string{"a", "b", "c"},
		},
		{
			description: "layers",
			nodes: []node{
				{name: "b", deps: []string{"a"}},
				{name: "c"},
				{name: "a"},
				{name: "d", deps: []string{"b", "c"}},
			},
			expected: []string{"a", "c", "b", "d"},
		},
		{
			description: "unknown dependencies are ignored",
			nodes: []node{
				{name: "install", deps: []string{"setup"}},
				{name: "build", deps: []string{"install", "missing"}},
			},
			expected: []string{"install", "build"},
		},
		{
			description: "repeated dependency",
			nodes: []node{
				{name: "a"},
				{name: "b", deps: []string{"a", "a"}},
			},
			expected: []string{"a", "b"},
		},
	}
	for _, test := range tests {
		testutil.Run(t, test.description, func(t *testutil.T) {
			sorted, err := TopologicalSort(test.nodes, nodeName, nodeDeps)

			t.CheckNoError(err)
			t.CheckDeepEqual(test.expected, names(sorted))

			again, err := TopologicalSort(test.nodes, nodeName, nodeDeps)
			t.CheckNoError(err)
			t.CheckDeepEqual(names(sorted), names(again))
		})
	}
}

func TestTopologicalSortCycle(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		nodes := []node{
			{name: "setup"},
			{name: "a", deps: []string{"c", "setup"}},
			{name: "b", deps: []string{"a"}},
			{name: "c", deps: []string{"b"}},
		}

		sorted, err := TopologicalSort(nodes, nodeName, nodeDeps)

		var cycleErr *CycleError
		t.CheckTrue(errors.As(err, &cycleErr))
		t.CheckDeepEqual(3, cycleErr.Remaining)
		t.CheckNil(sorted)
	})
}

func TestTopologicalSortSelfCycle(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		_, err := TopologicalSort([]node{{name: "a", deps: []string{"a"}}}, nodeName, nodeDeps)

		t.CheckErrorContains("circular dependency", err)
	})
}

func TestTopologicalSortDuplicate(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		_, err := TopologicalSort([]node{{name: "a"}, {name: "a"}}, nodeName, nodeDeps)

		var dupErr *DuplicateError
		t.CheckTrue(errors.As(err, &dupErr))
		t.CheckDeepEqual("a", dupErr.Name)
	})
}
