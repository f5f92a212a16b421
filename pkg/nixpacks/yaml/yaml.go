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

// Package yamlutil wraps gopkg.in/yaml.v3 with the encoder settings used for plan files.
package yamlutil

import (
	"bytes"
	"fmt"
	"io"

	yaml "gopkg.in/yaml.v3"
)

// UnmarshalStrict decodes in, failing on keys that out does not declare.
func UnmarshalStrict(in []byte, out interface{}) error {
	return unmarshal(in, out, true)
}

func Unmarshal(in []byte, out interface{}) error {
	return unmarshal(in, out, false)
}

// Marshal encodes in with a two space indent.
func Marshal(in interface{}) ([]byte, error) {
	var b bytes.Buffer
	encoder := yaml.NewEncoder(&b)
	encoder.SetIndent(2)
	if err := encoder.Encode(in); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// UnmarshalGeneric decodes in into plain maps, slices and scalars so that the
// result can be re-encoded as JSON. An empty document yields an empty map.
func UnmarshalGeneric(in []byte) (map[string]interface{}, error) {
	var doc interface{}
	if err := Unmarshal(in, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return map[string]interface{}{}, nil
	}
	m, ok := doc.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a mapping at the top level, got %T", doc)
	}
	return m, nil
}

func unmarshal(in []byte, out interface{}, strict bool) error {
	decoder := yaml.NewDecoder(bytes.NewReader(in))
	decoder.KnownFields(strict)
	if err := decoder.Decode(out); err != nil {
		// an empty document decodes to the zero value
		if err != io.EOF {
			return err
		}
	}
	return nil
}
