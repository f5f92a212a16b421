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
	"context"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/fatih/semgroup"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
)

// DefaultPullConcurrency bounds the number of parallel downloads.
const DefaultPullConcurrency = 4

// Pull downloads every archive held by the endpoint into dir. An archive that
// cannot be downloaded is logged and skipped. Pull returns the number of
// archives it fetched.
func Pull(ctx context.Context, client *Client, dir string, concurrency int) (int, error) {
	archives, err := client.List(ctx)
	if err != nil {
		return 0, err
	}
	if concurrency <= 0 {
		concurrency = DefaultPullConcurrency
	}

	var fetched int64
	g := semgroup.NewGroup(ctx, int64(concurrency))
	for _, archive := range archives {
		archive := archive
		g.Go(func() error {
			if err := client.Download(ctx, archive.Name, dir); err != nil {
				log.Entry(ctx).Warnf("skipping cache archive %s: %v", archive.Name, err)
				return nil
			}
			atomic.AddInt64(&fetched, 1)
			log.Entry(ctx).Infof("pulled %s (%s)", archive.Name, humanize.Bytes(uint64(archive.Size)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(fetched), err
	}
	return int(fetched), nil
}
