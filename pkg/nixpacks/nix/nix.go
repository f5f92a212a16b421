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

// Package nix renders the nix expression that installs the packages of a phase.
package nix

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
)

// Options are the values the expression depends on besides the phase.
type Options struct {
	// DefaultArchive is the nixpkgs revision used when the phase does not pin one.
	// Empty means the channel available as <nixpkgs>.
	DefaultArchive string
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_'\-.]*$`)

const expression = `{ }:

let
  pkgs = import {{ .Source }} { overlays = [ {{- range .Overlays }} (import (builtins.fetchTarball "{{ . }}")){{ end }} ]; };
in
with pkgs;
{{- if .Libraries }}
let
  APPEND_LIBRARY_PATH = "${lib.makeLibraryPath [ {{ join " " .Libraries }} ] }";
  myLibraries = writeText "libraries" ''
    export LD_LIBRARY_PATH="${APPEND_LIBRARY_PATH}:$LD_LIBRARY_PATH"
  '';
in
{{- end }}
  buildEnv {
    name = "{{ .Name }}";
    paths = [
{{- if .Libraries }}
      (runCommand "{{ .Name }}" { } ''
        mkdir -p $out/etc/profile.d
        cp ${myLibraries} $out/etc/profile.d/{{ .Name }}.sh
      '')
{{- end }}
{{- range .Packages }}
      {{ . }}
{{- end }}
    ];
  }
`

var tmpl = template.Must(template.New("nix").Funcs(sprig.TxtFuncMap()).Parse(expression))

type values struct {
	Name      string
	Source    string
	Overlays  []string
	Libraries []string
	Packages  []string
}

// FileName is the name of the expression file of phase, relative to the build files directory.
func FileName(phase *plan.Phase) string {
	return phase.Name + ".nix"
}

// Generate renders the expression installing the nix packages and libraries of phase.
func Generate(phase *plan.Phase, opts Options) (string, error) {
	v := values{
		Name:   envName(phase.Name),
		Source: source(phase.NixpacksArchive, opts.DefaultArchive),
	}

	seen := map[string]bool{}
	addOverlay := func(url string) {
		if url != "" && !seen[url] {
			seen[url] = true
			v.Overlays = append(v.Overlays, url)
		}
	}

	for _, pkg := range phase.NixPkgs {
		rendered, err := renderPkg(pkg)
		if err != nil {
			return "", err
		}
		v.Packages = append(v.Packages, rendered)
		addOverlay(pkg.Overlay)
	}
	for _, overlay := range phase.NixOverlays {
		addOverlay(overlay)
	}
	for _, lib := range phase.NixLibs {
		if !identifier.MatchString(lib) {
			return "", fmt.Errorf("invalid nix library name %q", lib)
		}
		v.Libraries = append(v.Libraries, lib)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("executing nix template: %w", err)
	}
	return buf.String(), nil
}

func source(pinned, fallback string) string {
	archive := pinned
	if archive == "" {
		archive = fallback
	}
	if archive == "" {
		return "<nixpkgs>"
	}
	return fmt.Sprintf(`(fetchTarball "https://github.com/NixOS/nixpkgs/archive/%s.tar.gz")`, archive)
}

// renderPkg writes a package as a bare attribute name or as an override call.
func renderPkg(pkg plan.Pkg) (string, error) {
	if !identifier.MatchString(pkg.Name) {
		return "", fmt.Errorf("invalid nix package name %q", pkg.Name)
	}
	if len(pkg.Overrides) == 0 {
		return pkg.Name, nil
	}

	keys := make([]string, 0, len(pkg.Overrides))
	for k := range pkg.Overrides {
		if !identifier.MatchString(k) {
			return "", fmt.Errorf("invalid override %q of nix package %q", k, pkg.Name)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var attrs strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&attrs, "%s = %s; ", k, pkg.Overrides[k])
	}
	return fmt.Sprintf("(%s.override { %s})", pkg.Name, attrs.String()), nil
}

func envName(phase string) string {
	return strings.NewReplacer(" ", "-", "/", "-").Replace(phase) + "-env"
}
