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

package flags

import (
	"fmt"
	"strings"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
)

// FormatFlag is a pflag.Value selecting the serialization format of a plan.
type FormatFlag struct {
	format plan.Format
}

func NewFormatFlag(value plan.Format) *FormatFlag {
	return &FormatFlag{format: value}
}

func (f *FormatFlag) String() string {
	return string(f.format)
}

func (f *FormatFlag) Set(value string) error {
	format, err := plan.ParseFormat(value)
	if err != nil {
		return err
	}
	f.format = format
	return nil
}

func (f *FormatFlag) Type() string {
	return "format"
}

func (f *FormatFlag) Usage() string {
	names := make([]string, 0, len(plan.Formats))
	for _, format := range plan.Formats {
		names = append(names, string(format))
	}
	return fmt.Sprintf("Output format, one of %s", strings.Join(names, ", "))
}

func (f *FormatFlag) Format() plan.Format {
	return f.format
}
