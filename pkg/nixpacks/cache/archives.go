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

package cache

import (
	"os"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Archives is the set of cache archives staged for a build, by file name.
type Archives map[string]int64

// Has reports whether the archive called name is staged.
func (a Archives) Has(name string) bool {
	_, found := a[name]
	return found
}

// Names returns the staged archive names in lexical order.
func (a Archives) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ScanArchives lists the archives found in dir. A missing dir holds no archives.
func ScanArchives(fs afero.Fs, dir string) (Archives, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Archives{}, nil
		}
		return nil, err
	}

	archives := Archives{}
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), archiveExt) {
			continue
		}
		archives[info.Name()] = info.Size()
	}
	return archives, nil
}
