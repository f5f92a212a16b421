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

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/server"
)

var serveOpts server.Options

// For testing
var startServer = server.Start

// NewCmdServe describes the command running the cache endpoint on its own.
func NewCmdServe(out io.Writer) *cobra.Command {
	return NewCmd(out, "serve").
		WithDescription("Run the endpoint receiving incremental cache archives").
		WithFlags(func(f *pflag.FlagSet) {
			f.StringVar(&opts.CacheKey, "cache-key", "", "Key of the staging directory used when --dir is empty")
			f.StringVar(&opts.CacheDir, "dir", "", "Directory receiving archives, ~/.nixpacks/cache/<cache key> by default")
			f.StringVar(&serveOpts.Address, "address", "0.0.0.0", "Address to listen on")
			f.IntVar(&serveOpts.Port, "port", constants.DefaultCachePort, "Port to listen on, the next free one is used when it is taken")
			f.StringVar(&serveOpts.Token, "token", "", "Token clients must send, generated when empty")
		}).
		NoArgs(doServe)
}

func doServe(ctx context.Context, out io.Writer) error {
	dir, err := opts.ResolveCacheDir()
	if err != nil {
		return err
	}
	serverOpts := serveOpts
	serverOpts.Dir = dir
	if serverOpts.Token == "" {
		serverOpts.Token = uuid.NewString()
	}

	ctx = log.WithTask(ctx, log.Serve, log.SubtaskIDNone)
	endpoint, shutdown, err := startServer(ctx, serverOpts)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Serving %s on %s\n", dir, endpoint)
	fmt.Fprintf(out, "Token: %s\n", serverOpts.Token)

	<-ctx.Done()
	return shutdown()
}
