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

package util

import (
	"encoding/json"
	"strings"
)

// JSONArray renders args as the JSON array of an exec form instruction.
func JSONArray(args ...string) string {
	var buf strings.Builder
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// a []string always encodes
	_ = enc.Encode(args)
	return strings.TrimSuffix(buf.String(), "\n")
}

// CopyInstruction returns a COPY of src to dst. Paths that would not survive
// the whitespace split of the shell form are written in JSON form.
func CopyInstruction(flags, src, dst string) string {
	if flags != "" && !strings.HasSuffix(flags, " ") {
		flags += " "
	}
	if needsJSONForm(src) || needsJSONForm(dst) {
		return "COPY " + flags + JSONArray(src, dst)
	}
	return "COPY " + flags + src + " " + dst
}

func needsJSONForm(p string) bool {
	return strings.HasPrefix(p, "[") || strings.ContainsAny(p, " \t\n\"\\")
}
