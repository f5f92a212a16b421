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

package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/cache"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/color"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
)

var (
	cacheImage       string
	cacheEndpoint    string
	cacheToken       string
	cacheConcurrency int
)

// For testing
var (
	exportImage  = cache.ExportImage
	restoreImage = cache.RestoreImage
	pullArchives = cache.Pull
)

// NewCmdCache describes the commands moving staged cache archives around.
func NewCmdCache(out io.Writer) *cobra.Command {
	return NewCmd(out, "cache").
		WithDescription("Manage incremental cache archives").
		WithCommands(
			NewCmd(out, "export").
				WithDescription("Fold the staged archives into an image").
				WithFlags(func(f *pflag.FlagSet) {
					AddCacheFlags(f)
					addImageFlag(f)
				}).
				NoArgs(doCacheExport),
			NewCmd(out, "restore").
				WithDescription("Copy the archives of an image into the staging directory").
				WithFlags(func(f *pflag.FlagSet) {
					AddCacheFlags(f)
					addImageFlag(f)
				}).
				NoArgs(doCacheRestore),
			NewCmd(out, "pull").
				WithDescription("Download every archive held by a cache endpoint").
				WithFlags(func(f *pflag.FlagSet) {
					AddCacheFlags(f)
					addEndpointFlags(f)
					f.IntVar(&cacheConcurrency, "concurrency", cache.DefaultPullConcurrency, "Number of parallel downloads")
				}).
				NoArgs(doCachePull),
			NewCmd(out, "ls").
				WithDescription("List staged archives, or the archives of a cache endpoint").
				WithFlags(func(f *pflag.FlagSet) {
					AddCacheFlags(f)
					addEndpointFlags(f)
				}).
				NoArgs(doCacheList),
		)
}

func addImageFlag(f *pflag.FlagSet) {
	f.StringVar(&cacheImage, "image", "", "Cache image")
}

func addEndpointFlags(f *pflag.FlagSet) {
	f.StringVar(&cacheEndpoint, "endpoint", "", "URL of a cache endpoint")
	f.StringVar(&cacheToken, "token", "", "Token of the cache endpoint")
}

func doCacheExport(ctx context.Context, out io.Writer) error {
	if cacheImage == "" {
		return fmt.Errorf("--image is required")
	}
	dir, err := opts.ResolveCacheDir()
	if err != nil {
		return err
	}
	if err := exportImage(log.WithTask(ctx, log.Cache, "export"), dir, cacheImage); err != nil {
		return err
	}
	color.Fprintf(out, color.Green, "Exported %s to %s\n", dir, cacheImage)
	return nil
}

func doCacheRestore(ctx context.Context, out io.Writer) error {
	if cacheImage == "" {
		return fmt.Errorf("--image is required")
	}
	dir, err := opts.ResolveCacheDir()
	if err != nil {
		return err
	}
	if err := restoreImage(log.WithTask(ctx, log.Cache, "restore"), cacheImage, dir); err != nil {
		return err
	}
	color.Fprintf(out, color.Green, "Restored %s into %s\n", cacheImage, dir)
	return nil
}

func doCachePull(ctx context.Context, out io.Writer) error {
	if cacheEndpoint == "" {
		return fmt.Errorf("--endpoint is required")
	}
	dir, err := opts.ResolveCacheDir()
	if err != nil {
		return err
	}
	client := cache.NewClient(cacheEndpoint, cacheToken)
	fetched, err := pullArchives(log.WithTask(ctx, log.Cache, "pull"), client, dir, cacheConcurrency)
	if err != nil {
		return err
	}
	color.Fprintf(out, color.Green, "Pulled %d archives into %s\n", fetched, dir)
	return nil
}

func doCacheList(ctx context.Context, out io.Writer) error {
	var archives []cache.ArchiveInfo
	if cacheEndpoint != "" {
		list, err := cache.NewClient(cacheEndpoint, cacheToken).List(log.WithTask(ctx, log.Cache, "ls"))
		if err != nil {
			return err
		}
		archives = list
	} else {
		dir, err := opts.ResolveCacheDir()
		if err != nil {
			return err
		}
		staged, err := cache.ScanArchives(afero.NewOsFs(), dir)
		if err != nil {
			return err
		}
		for _, name := range staged.Names() {
			archives = append(archives, cache.ArchiveInfo{Name: name, Size: staged[name]})
		}
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DIRECTORY\tSIZE\tARCHIVE")
	for _, archive := range archives {
		dir, err := cache.DirFromArchiveName(archive.Name)
		if err != nil {
			dir = "?"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", dir, humanize.Bytes(uint64(archive.Size)), archive.Name)
	}
	return w.Flush()
}
