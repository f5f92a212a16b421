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

package providers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blang/semver"
)

// majorVersion picks the highest major of supported, in descending order, that constraint allows.
// constraint may be a bare version ("18", "v20.1"), an npm style range ("^18", "~20.1", ">=16 <21")
// or a wildcard ("18.x"). An empty constraint yields def.
func majorVersion(constraint string, supported []uint64, def uint64) (uint64, error) {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" || constraint == "*" || constraint == "latest" || constraint == "lts" {
		return def, nil
	}

	if v, err := semver.ParseTolerant(constraint); err == nil {
		for _, major := range supported {
			if v.Major == major {
				return major, nil
			}
		}
		return 0, fmt.Errorf("version %s is not supported", constraint)
	}

	allowed, err := parseRange(constraint)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", constraint, err)
	}
	for _, major := range supported {
		if admitsMajor(allowed, major) {
			return major, nil
		}
	}
	return 0, fmt.Errorf("no supported version matches %q", constraint)
}

// admitsMajor tries the first and a late patch of the first hundred minors of major.
func admitsMajor(allowed semver.Range, major uint64) bool {
	for minor := uint64(0); minor < 100; minor++ {
		for _, patch := range []uint64{0, 999} {
			if allowed(semver.Version{Major: major, Minor: minor, Patch: patch}) {
				return true
			}
		}
	}
	return false
}

// parseRange turns the common npm range shorthands into a semver range.
func parseRange(constraint string) (semver.Range, error) {
	var parts []string
	for _, field := range strings.Fields(constraint) {
		if field == "||" {
			parts = append(parts, field)
			continue
		}
		switch {
		case strings.HasPrefix(field, "^"):
			v := completeVersion(strings.TrimPrefix(field, "^"))
			major, _, _ := strings.Cut(v, ".")
			parts = append(parts, ">="+v, "<"+bump(major)+".0.0")
		case strings.HasPrefix(field, "~"):
			v := completeVersion(strings.TrimPrefix(field, "~"))
			major, rest, _ := strings.Cut(v, ".")
			minor, _, _ := strings.Cut(rest, ".")
			parts = append(parts, ">="+v, "<"+major+"."+bump(minor)+".0")
		default:
			op := strings.TrimRight(field, "0123456789.xX*v")
			v := strings.TrimPrefix(field[len(op):], "v")
			if strings.ContainsAny(v, "xX*") || (op == "" && strings.Count(v, ".") < 2) {
				parts = append(parts, op+wildcard(v))
				continue
			}
			parts = append(parts, op+completeVersion(v))
		}
	}
	return semver.ParseRange(strings.Join(parts, " "))
}

// completeVersion pads v to major.minor.patch.
func completeVersion(v string) string {
	v = strings.TrimPrefix(v, "v")
	for strings.Count(v, ".") < 2 {
		v += ".0"
	}
	return v
}

// wildcard turns "18", "18.x" or "18.1.*" into the x form semver understands.
func wildcard(v string) string {
	v = strings.NewReplacer("X", "x", "*", "x").Replace(v)
	if !strings.HasSuffix(v, "x") {
		v += ".x"
	}
	return v
}

func bump(n string) string {
	i, err := strconv.Atoi(n)
	if err != nil {
		return n
	}
	return strconv.Itoa(i + 1)
}
