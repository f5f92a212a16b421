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

package docker

import (
	"fmt"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/command"
	"github.com/moby/buildkit/frontend/dockerfile/parser"
)

// ValidateDockerfile checks that dockerfile parses and only uses known instructions.
func ValidateDockerfile(dockerfile string) error {
	res, err := parser.Parse(strings.NewReader(dockerfile))
	if err != nil || res == nil || len(res.AST.Children) == 0 {
		return fmt.Errorf("parsing Dockerfile: %w", orEmpty(err))
	}

	// instructions keep their original case, the known commands are lowercase
	for _, child := range res.AST.Children {
		if _, ok := command.Commands[strings.ToLower(child.Value)]; !ok {
			return fmt.Errorf("unknown instruction %q on line %d", child.Value, child.StartLine)
		}
	}
	return nil
}

func orEmpty(err error) error {
	if err == nil {
		return fmt.Errorf("no instructions")
	}
	return err
}
