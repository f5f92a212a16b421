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

package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	yamlutil "github.com/nixpacks-go/nixpacks/pkg/nixpacks/yaml"
)

// Format is a serialization format of a BuildPlan.
type Format string

const (
	JSON Format = "json"
	TOML Format = "toml"
	YAML Format = "yaml"
)

// Formats lists the supported formats.
var Formats = []Format{JSON, TOML, YAML}

// ParseFormat returns the format called name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return JSON, nil
	case "toml":
		return TOML, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unknown plan format %q, expected one of json, toml, yaml", name)
}

// FormatFromPath picks the format from the extension of path.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot guess the format of %q without an extension", path)
	}
	return ParseFormat(ext)
}

// The document types below keep nil and empty lists apart: a nil pointer is
// omitted while a pointer to an empty slice is written as [].

type planDoc struct {
	Providers    *[]string            `json:"providers,omitempty" toml:"providers,omitempty" yaml:"providers,omitempty"`
	BuildImage   string               `json:"buildImage,omitempty" toml:"buildImage,omitempty" yaml:"buildImage,omitempty"`
	Variables    map[string]string    `json:"variables,omitempty" toml:"variables,omitempty" yaml:"variables,omitempty"`
	StaticAssets map[string]string    `json:"staticAssets,omitempty" toml:"staticAssets,omitempty" yaml:"staticAssets,omitempty"`
	Phases       map[string]*phaseDoc `json:"phases,omitempty" toml:"phases,omitempty" yaml:"phases,omitempty"`
	Start        *startDoc            `json:"start,omitempty" toml:"start,omitempty" yaml:"start,omitempty"`
}

type phaseDoc struct {
	DependsOn        *[]string      `json:"dependsOn,omitempty" toml:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	NixPackages      *[]interface{} `json:"nixPackages,omitempty" toml:"nixPackages,omitempty" yaml:"nixPackages,omitempty"`
	NixLibraries     *[]string      `json:"nixLibraries,omitempty" toml:"nixLibraries,omitempty" yaml:"nixLibraries,omitempty"`
	NixOverlays      *[]string      `json:"nixOverlays,omitempty" toml:"nixOverlays,omitempty" yaml:"nixOverlays,omitempty"`
	AptPackages      *[]string      `json:"aptPackages,omitempty" toml:"aptPackages,omitempty" yaml:"aptPackages,omitempty"`
	Commands         *[]string      `json:"commands,omitempty" toml:"commands,omitempty" yaml:"commands,omitempty"`
	OnlyIncludeFiles *[]string      `json:"onlyIncludeFiles,omitempty" toml:"onlyIncludeFiles,omitempty" yaml:"onlyIncludeFiles,omitempty"`
	CacheDirectories *[]string      `json:"cacheDirectories,omitempty" toml:"cacheDirectories,omitempty" yaml:"cacheDirectories,omitempty"`
	Paths            *[]string      `json:"paths,omitempty" toml:"paths,omitempty" yaml:"paths,omitempty"`
	NixpacksArchive  string         `json:"nixpacksArchive,omitempty" toml:"nixpacksArchive,omitempty" yaml:"nixpacksArchive,omitempty"`
}

type startDoc struct {
	Cmd              string    `json:"cmd,omitempty" toml:"cmd,omitempty" yaml:"cmd,omitempty"`
	RunImage         string    `json:"runImage,omitempty" toml:"runImage,omitempty" yaml:"runImage,omitempty"`
	OnlyIncludeFiles *[]string `json:"onlyIncludeFiles,omitempty" toml:"onlyIncludeFiles,omitempty" yaml:"onlyIncludeFiles,omitempty"`
}

// pkgDoc is the object form of a nix package. Plain packages are written as bare strings.
type pkgDoc struct {
	Name      string            `json:"name" toml:"name" yaml:"name"`
	Overlay   string            `json:"overlay,omitempty" toml:"overlay,omitempty" yaml:"overlay,omitempty"`
	Overrides map[string]string `json:"overrides,omitempty" toml:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// Encode serializes p. The output is deterministic.
func Encode(p *BuildPlan, format Format) ([]byte, error) {
	doc := toDoc(p)
	switch format {
	case JSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case TOML:
		var buf bytes.Buffer
		enc := toml.NewEncoder(&buf)
		enc.SetIndentTables(true)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case YAML:
		return yamlutil.Marshal(doc)
	}
	return nil, fmt.Errorf("unknown plan format %q", format)
}

// Decode parses a serialized plan. Every document is validated against the
// plan schema first. Failures are Config errors.
func Decode(data []byte, format Format) (*BuildPlan, error) {
	p, err := decode(data, format)
	if err != nil {
		return nil, nperrors.New(nperrors.Config, "decoding plan", string(format), err)
	}
	return p, nil
}

func decode(data []byte, format Format) (*BuildPlan, error) {
	generic, err := decodeGeneric(data, format)
	if err != nil {
		return nil, err
	}

	normalized, err := json.Marshal(generic)
	if err != nil {
		return nil, err
	}
	if err := Validate(normalized); err != nil {
		return nil, err
	}

	var doc planDoc
	dec := json.NewDecoder(bytes.NewReader(normalized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return fromDoc(&doc)
}

func decodeGeneric(data []byte, format Format) (map[string]interface{}, error) {
	switch format {
	case JSON:
		generic := map[string]interface{}{}
		if len(bytes.TrimSpace(data)) == 0 {
			return generic, nil
		}
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, err
		}
		return generic, nil
	case TOML:
		generic := map[string]interface{}{}
		if err := toml.Unmarshal(data, &generic); err != nil {
			return nil, err
		}
		return generic, nil
	case YAML:
		return yamlutil.UnmarshalGeneric(data)
	}
	return nil, fmt.Errorf("unknown plan format %q", format)
}

// MarshalJSON writes the serialized form of the plan.
func (p *BuildPlan) MarshalJSON() ([]byte, error) {
	return json.Marshal(toDoc(p))
}

// UnmarshalJSON reads the serialized form of the plan, without schema validation.
func (p *BuildPlan) UnmarshalJSON(data []byte) error {
	var doc planDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	decoded, err := fromDoc(&doc)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}

func toDoc(p *BuildPlan) *planDoc {
	doc := &planDoc{
		Providers:    listPtr(p.Providers),
		BuildImage:   p.BuildImage,
		Variables:    p.Variables,
		StaticAssets: p.StaticAssets,
	}
	if p.Phases != nil {
		doc.Phases = make(map[string]*phaseDoc, len(p.Phases))
		for name, phase := range p.Phases {
			if phase == nil {
				phase = NewPhase(name)
			}
			doc.Phases[name] = toPhaseDoc(phase)
		}
	}
	if p.Start != nil {
		doc.Start = &startDoc{
			Cmd:              p.Start.Cmd,
			RunImage:         p.Start.RunImage,
			OnlyIncludeFiles: listPtr(p.Start.OnlyIncludeFiles),
		}
	}
	return doc
}

func toPhaseDoc(phase *Phase) *phaseDoc {
	doc := &phaseDoc{
		DependsOn:        listPtr(phase.DependsOn),
		NixLibraries:     listPtr(phase.NixLibs),
		NixOverlays:      listPtr(phase.NixOverlays),
		AptPackages:      listPtr(phase.AptPkgs),
		Commands:         listPtr(phase.Cmds),
		OnlyIncludeFiles: listPtr(phase.OnlyIncludeFiles),
		CacheDirectories: listPtr(phase.CacheDirectories),
		Paths:            listPtr(phase.Paths),
		NixpacksArchive:  phase.NixpacksArchive,
	}
	if phase.NixPkgs != nil {
		pkgs := make([]interface{}, 0, len(phase.NixPkgs))
		for _, pkg := range phase.NixPkgs {
			if pkg.Overlay == "" && len(pkg.Overrides) == 0 {
				pkgs = append(pkgs, pkg.Name)
				continue
			}
			pkgs = append(pkgs, &pkgDoc{Name: pkg.Name, Overlay: pkg.Overlay, Overrides: pkg.Overrides})
		}
		doc.NixPackages = &pkgs
	}
	return doc
}

func fromDoc(doc *planDoc) (*BuildPlan, error) {
	p := &BuildPlan{
		Providers:    listValue(doc.Providers),
		BuildImage:   doc.BuildImage,
		Variables:    doc.Variables,
		StaticAssets: doc.StaticAssets,
	}
	if doc.Phases != nil {
		p.Phases = make(map[string]*Phase, len(doc.Phases))
		for name, pd := range doc.Phases {
			phase, err := fromPhaseDoc(name, pd)
			if err != nil {
				return nil, fmt.Errorf("phase %q: %w", name, err)
			}
			p.Phases[name] = phase
		}
	}
	if doc.Start != nil {
		p.Start = &StartPhase{
			Cmd:              doc.Start.Cmd,
			RunImage:         doc.Start.RunImage,
			OnlyIncludeFiles: listValue(doc.Start.OnlyIncludeFiles),
		}
	}
	return p, nil
}

func fromPhaseDoc(name string, doc *phaseDoc) (*Phase, error) {
	phase := NewPhase(name)
	if doc == nil {
		return phase, nil
	}
	phase.DependsOn = listValue(doc.DependsOn)
	phase.NixLibs = listValue(doc.NixLibraries)
	phase.NixOverlays = listValue(doc.NixOverlays)
	phase.AptPkgs = listValue(doc.AptPackages)
	phase.Cmds = listValue(doc.Commands)
	phase.OnlyIncludeFiles = listValue(doc.OnlyIncludeFiles)
	phase.CacheDirectories = listValue(doc.CacheDirectories)
	phase.Paths = listValue(doc.Paths)
	phase.NixpacksArchive = doc.NixpacksArchive

	if doc.NixPackages != nil {
		phase.NixPkgs = make([]Pkg, 0, len(*doc.NixPackages))
		for _, raw := range *doc.NixPackages {
			pkg, err := pkgFromValue(raw)
			if err != nil {
				return nil, err
			}
			phase.NixPkgs = append(phase.NixPkgs, pkg)
		}
	}
	return phase, nil
}

// pkgFromValue converts a decoded nixPackages entry, a string or an object.
func pkgFromValue(v interface{}) (Pkg, error) {
	switch value := v.(type) {
	case string:
		return NewPkg(value), nil
	case map[string]interface{}:
		raw, err := json.Marshal(value)
		if err != nil {
			return Pkg{}, err
		}
		var doc pkgDoc
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return Pkg{}, fmt.Errorf("invalid nix package: %w", err)
		}
		if doc.Name == "" {
			return Pkg{}, fmt.Errorf("nix package without a name")
		}
		return Pkg{Name: doc.Name, Overlay: doc.Overlay, Overrides: doc.Overrides}, nil
	}
	return Pkg{}, fmt.Errorf("invalid nix package %v: expected a string or an object", v)
}

func listPtr(list []string) *[]string {
	if list == nil {
		return nil
	}
	return &list
}

func listValue(list *[]string) []string {
	if list == nil {
		return nil
	}
	return append(make([]string, 0, len(*list)), *list...)
}
