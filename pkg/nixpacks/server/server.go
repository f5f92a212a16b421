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

// Package server runs the endpoint that receives incremental cache archives from builds.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/util"
)

const maxTryListen = 10

// waits for 1 second before forcing a server shutdown
var forceShutdownTimeout = 1 * time.Second

// Options configure the cache endpoint.
type Options struct {
	// Dir receives the uploaded archives.
	Dir   string
	Token string
	// Address to listen on. Builds reach the endpoint from a container, so
	// the default listens on every interface.
	Address string
	// Port is tried first, the next free port is used when it is taken.
	Port int
}

// Start serves the cache endpoint in the background. It returns the URL of the
// endpoint and a function stopping it.
func Start(ctx context.Context, opts Options) (string, func() error, error) {
	noop := func() error { return nil }
	if opts.Token == "" {
		return "", noop, errors.New("the cache endpoint needs a token")
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return "", noop, fmt.Errorf("creating cache directory: %w", err)
	}

	address := opts.Address
	if address == "" {
		address = "0.0.0.0"
	}

	var usedPorts util.PortSet
	l, port, err := listenOnAvailablePort(address, opts.Port, &usedPorts)
	if err != nil {
		return "", noop, fmt.Errorf("creating listener: %w", err)
	}
	if opts.Port > 0 && port != opts.Port {
		log.Entry(ctx).Warnf("starting cache endpoint on port %d. (%d is already in use)", port, opts.Port)
	} else {
		log.Entry(ctx).Infof("starting cache endpoint on port %d", port)
	}

	server := &http.Server{
		Handler:           NewHandler(opts.Dir, opts.Token),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Entry(ctx).Errorf("cache endpoint stopped: %v", err)
		}
	}()

	shutdown := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), forceShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			return server.Close()
		}
		return nil
	}
	return fmt.Sprintf("http://%s:%d", displayHost(address), port), shutdown, nil
}

func displayHost(address string) string {
	if address == "0.0.0.0" || address == "::" {
		return util.Loopback
	}
	return address
}

func listenOnAvailablePort(address string, preferredPort int, usedPorts *util.PortSet) (net.Listener, int, error) {
	for try := 1; ; try++ {
		port := util.GetAvailablePort(address, preferredPort, usedPorts)

		l, err := net.Listen("tcp", fmt.Sprintf("%s:%d", address, port))
		if err != nil {
			if try >= maxTryListen {
				return nil, 0, err
			}

			time.Sleep(100 * time.Millisecond)
			continue
		}

		return l, l.Addr().(*net.TCPAddr).Port, nil
	}
}
