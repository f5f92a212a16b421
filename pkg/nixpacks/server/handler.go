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

package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/cache"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
)

// NewHandler serves the cache endpoint for the archives stored in dir.
// Every route but /health requires the token.
func NewHandler(dir, token string) http.Handler {
	h := &handler{dir: dir, token: token}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /{$}", h.authorized(h.upload))
	mux.HandleFunc("POST /upload", h.authorized(h.upload))
	mux.HandleFunc("GET /archives", h.authorized(h.list))
	mux.HandleFunc("GET /archives/{name}", h.authorized(h.download))
	return mux
}

// handler holds no mutable state, requests are independent.
type handler struct {
	dir   string
	token string
}

func (h *handler) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		given := r.Header.Get(constants.CacheTokenHeader)
		if h.token == "" || subtle.ConstantTimeCompare([]byte(given), []byte(h.token)) != 1 {
			log.Entry(r.Context()).Debugf("rejecting %s %s: bad token", r.Method, r.URL.Path)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	io.WriteString(w, "OK")
}

func (h *handler) upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reader, err := r.MultipartReader()
	if err != nil {
		http.Error(w, fmt.Sprintf("expected a multipart form: %v", err), http.StatusBadRequest)
		return
	}

	stored := 0
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			http.Error(w, fmt.Sprintf("reading form: %v", err), http.StatusBadRequest)
			return
		}

		name := part.FileName()
		if name == "" {
			part.Close()
			continue
		}
		if err := cache.ValidateArchiveName(name); err != nil {
			part.Close()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		size, err := cache.WriteFile(filepath.Join(h.dir, name), part)
		part.Close()
		if err != nil {
			log.Entry(ctx).Warnf("storing %s: %v", name, err)
			http.Error(w, "storing upload failed", http.StatusInternalServerError)
			return
		}
		stored++
		log.Entry(ctx).Infof("received %s (%s)", name, humanize.Bytes(uint64(size)))
	}

	if stored == 0 {
		http.Error(w, "no file in form", http.StatusBadRequest)
		return
	}
	io.WriteString(w, "OK")
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	archives, err := cache.ScanArchives(afero.NewOsFs(), h.dir)
	if err != nil {
		log.Entry(r.Context()).Warnf("listing %s: %v", h.dir, err)
		http.Error(w, "listing archives failed", http.StatusInternalServerError)
		return
	}

	infos := make([]cache.ArchiveInfo, 0, len(archives))
	for _, name := range archives.Names() {
		infos = append(infos, cache.ArchiveInfo{Name: name, Size: archives[name]})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(infos)
}

func (h *handler) download(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := cache.ValidateArchiveName(name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, err := os.Open(filepath.Join(h.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "reading archive failed", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/x-tar")
	io.Copy(w, f)
}
