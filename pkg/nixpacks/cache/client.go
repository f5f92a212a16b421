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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/output/log"
)

// UploadField is the multipart field carrying an archive.
const UploadField = "file"

// ArchiveInfo describes an archive held by the cache endpoint.
type ArchiveInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Client talks to a cache endpoint.
type Client struct {
	URL   string
	Token string

	HTTP       *http.Client
	MaxRetries uint64
	// InitialInterval is the first delay between two attempts.
	InitialInterval time.Duration
}

func NewClient(endpoint, token string) *Client {
	return &Client{
		URL:             strings.TrimSuffix(endpoint, "/"),
		Token:           token,
		HTTP:            &http.Client{Timeout: 10 * time.Minute},
		MaxRetries:      3,
		InitialInterval: 500 * time.Millisecond,
	}
}

// Health checks that the endpoint is up.
func (c *Client) Health(ctx context.Context) error {
	return c.retry(ctx, "checking cache endpoint", c.URL, func() error {
		resp, err := c.do(ctx, http.MethodGet, "/health", nil, "")
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	})
}

// Upload sends the archive at file to the endpoint.
func (c *Client) Upload(ctx context.Context, file string) error {
	info, err := os.Stat(file)
	if err != nil {
		return nperrors.New(nperrors.CacheTransfer, "uploading", file, err)
	}

	err = c.retry(ctx, "uploading", file, func() error {
		f, err := os.Open(file)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer f.Close()

		body, contentType := multipartBody(filepath.Base(file), f)
		resp, err := c.do(ctx, http.MethodPost, "/upload", body, contentType)
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	})
	if err != nil {
		return err
	}
	log.Entry(ctx).Debugf("uploaded %s (%s)", filepath.Base(file), humanize.Bytes(uint64(info.Size())))
	return nil
}

// List returns the archives held by the endpoint.
func (c *Client) List(ctx context.Context) ([]ArchiveInfo, error) {
	var archives []ArchiveInfo
	err := c.retry(ctx, "listing archives", c.URL, func() error {
		resp, err := c.do(ctx, http.MethodGet, "/archives", nil, "")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		archives = nil
		if err := json.NewDecoder(resp.Body).Decode(&archives); err != nil {
			return backoff.Permanent(fmt.Errorf("decoding archive list: %w", err))
		}
		return nil
	})
	return archives, err
}

// Download fetches the archive called name into dir. The file only appears
// in dir once it is complete.
func (c *Client) Download(ctx context.Context, name, dir string) error {
	if err := ValidateArchiveName(name); err != nil {
		return nperrors.New(nperrors.CacheTransfer, "downloading", name, err)
	}

	return c.retry(ctx, "downloading", name, func() error {
		resp, err := c.do(ctx, http.MethodGet, "/archives/"+url.PathEscape(name), nil, "")
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if _, err := WriteFile(filepath.Join(dir, name), resp.Body); err != nil {
			var pathErr *os.PathError
			if errors.As(err, &pathErr) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	})
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, body)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if c.Token != "" {
		req.Header.Set(constants.CacheTokenHeader, c.Token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		err := fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
		if resp.StatusCode < 500 {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	return resp, nil
}

// retry runs op with a bounded exponential backoff. The final error is a CacheTransfer error.
func (c *Client) retry(ctx context.Context, op, subject string, f func() error) error {
	policy := backoff.NewExponentialBackOff()
	if c.InitialInterval > 0 {
		policy.InitialInterval = c.InitialInterval
	}

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		err := f()
		if err != nil {
			log.Entry(ctx).Debugf("%s %s, attempt %d: %v", op, subject, attempt, err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, c.MaxRetries), ctx))
	if err != nil {
		return nperrors.New(nperrors.CacheTransfer, op, subject, err)
	}
	return nil
}

func multipartBody(name string, r io.Reader) (io.Reader, string) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile(UploadField, name)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()
	return pr, mw.FormDataContentType()
}
