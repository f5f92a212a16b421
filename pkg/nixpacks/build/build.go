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

// Package build renders a plan into a build context and runs the image build.
package build

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/app"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/cache"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/config"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/docker"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/server"
)

// For testing
var (
	newToken     = uuid.NewString
	startServer  = server.Start
	restoreImage = cache.RestoreImage
	exportImage  = cache.ExportImage
	runBuild     = func(ctx context.Context, b *docker.Builder, out io.Writer, contextDir string) error {
		return b.Build(ctx, out, contextDir)
	}
)

// Result describes what a build produced.
type Result struct {
	// Image is empty when only the build files were written.
	Image string
	// OutDir holds the build context when --out was given.
	OutDir string
	Files  *docker.BuildFiles
}

// Build writes the build files of bp next to the application source and builds
// the image. With OutDir set it stops once the files are written.
func Build(ctx context.Context, out io.Writer, a *app.App, bp *plan.BuildPlan, opts config.NixpacksOptions) (*Result, error) {
	ctx = log.WithTask(ctx, log.Build, log.SubtaskIDNone)

	var stagingDir string
	archives := cache.Archives{}
	if opts.IncrementalCache {
		dir, err := opts.ResolveCacheDir()
		if err != nil {
			return nil, err
		}
		stagingDir = dir
		if opts.CacheImage != "" {
			if err := restoreImage(ctx, opts.CacheImage, stagingDir); err != nil {
				log.Entry(ctx).Warnf("starting without cache archives: %v", err)
			}
		}
		if archives, err = cache.ScanArchives(afero.NewOsFs(), stagingDir); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", stagingDir, err)
		}
		log.Entry(ctx).Debugf("found %d cache archives in %s", len(archives), stagingDir)
	}

	files, err := docker.Generate(bp, docker.Options{
		CacheKey:            opts.CacheKey,
		NoCache:             opts.NoCache,
		IncrementalCache:    opts.IncrementalCache,
		IncrementalArchives: archives,
		DefaultArchive:      opts.NixpkgsArchiveOrDefault(),
	})
	if err != nil {
		return nil, err
	}

	dest := opts.OutDir
	if dest == "" {
		tmp, err := os.MkdirTemp("", "nixpacks-")
		if err != nil {
			return nil, fmt.Errorf("creating build context: %w", err)
		}
		defer os.RemoveAll(tmp)
		dest = tmp
	}
	if err := docker.WriteBuildFiles(ctx, a.Source, files, dest, stagingDir); err != nil {
		return nil, err
	}
	if opts.OutDir != "" {
		log.Entry(ctx).Infof("wrote build files to %s", opts.OutDir)
		return &Result{OutDir: opts.OutDir, Files: files}, nil
	}

	name := opts.Name
	if name == "" {
		name = uuid.NewString()
	}
	builder := &docker.Builder{
		Name:      name,
		Tags:      opts.Tags,
		Labels:    opts.ImageLabels(bp.Providers),
		Platforms: opts.Platforms,
		NoCache:   opts.NoCache,
		BuildArgs: map[string]string{},
	}
	for k, v := range bp.Variables {
		builder.BuildArgs[k] = v
	}

	if opts.IncrementalCache {
		err = buildWithCacheEndpoint(ctx, out, builder, dest, stagingDir, opts.CachePort)
	} else {
		err = runBuild(ctx, builder, out, dest)
	}
	if err != nil {
		return nil, err
	}

	if opts.IncrementalCache && opts.CacheImage != "" {
		if err := exportImage(ctx, stagingDir, opts.CacheImage); err != nil {
			log.Entry(ctx).Warnf("cache archives were not exported: %v", err)
		}
	}
	return &Result{Image: name, Files: files}, nil
}

// buildWithCacheEndpoint serves stagingDir while the image builds so that the
// build can upload its cache archives.
func buildWithCacheEndpoint(ctx context.Context, out io.Writer, builder *docker.Builder, contextDir, stagingDir string, port int) error {
	token := newToken()
	endpoint, shutdown, err := startServer(log.WithTask(ctx, log.Serve, log.SubtaskIDNone), server.Options{
		Dir:   stagingDir,
		Token: token,
		Port:  port,
	})
	if err != nil {
		return err
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		shutdown()
		return fmt.Errorf("parsing cache endpoint %s: %w", endpoint, err)
	}
	secretsDir, err := os.MkdirTemp("", "nixpacks-secrets-")
	if err != nil {
		shutdown()
		return fmt.Errorf("creating secrets directory: %w", err)
	}
	defer os.RemoveAll(secretsDir)

	secrets := map[string]string{
		constants.CacheUploadURLSecret:   fmt.Sprintf("%s://%s:%s", u.Scheme, constants.DockerHostGateway, u.Port()),
		constants.CacheUploadTokenSecret: token,
	}
	builder.Secrets = map[string]string{}
	for id, value := range secrets {
		file := filepath.Join(secretsDir, id)
		if err := os.WriteFile(file, []byte(value), 0o600); err != nil {
			shutdown()
			return fmt.Errorf("writing build secret %s: %w", id, err)
		}
		builder.Secrets[id] = file
	}
	builder.HostGateway = true

	buildCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(buildCtx)
	g.Go(func() error {
		defer cancel()
		return runBuild(gctx, builder, out, contextDir)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown()
	})
	return g.Wait()
}
