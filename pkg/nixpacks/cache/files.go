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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ValidateArchiveName rejects names that are not plain archive file names.
func ValidateArchiveName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("invalid archive name %q", name)
	case strings.ContainsAny(name, `/\`) || filepath.Base(name) != name:
		return fmt.Errorf("archive name %q must not contain a path", name)
	case !strings.HasSuffix(name, archiveExt):
		return fmt.Errorf("archive name %q must end with %s", name, archiveExt)
	}
	return nil
}

// WriteFile stores the content of r at dest. The content is written to a
// temporary file in the same directory first and renamed into place, so
// readers never see a partial file.
func WriteFile(dest string, r io.Reader) (int64, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, err
	}
	return n, nil
}
