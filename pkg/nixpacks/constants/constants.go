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

package constants

import (
	"github.com/sirupsen/logrus"
)

const (
	// DefaultLogLevel is the default global verbosity
	DefaultLogLevel = logrus.WarnLevel

	// DefaultBaseImage is used for the build stages when a plan does not set one.
	DefaultBaseImage = "ghcr.io/railwayapp/nixpacks:ubuntu-1707782610"

	// DefaultNixpkgsArchive is the nixpkgs revision packages are installed from
	// unless a phase pins another one.
	DefaultNixpkgsArchive = "bf744fe90419885eefced41b3e5ae442d732712d"

	// AppDir is where the application source lives inside the image.
	AppDir = "/app/"

	// ContainerHome replaces `~` in paths used inside the build container.
	ContainerHome = "/root"

	// BuildFilesDir holds generated files inside the build context.
	BuildFilesDir = ".nixpacks"

	// AssetsDir is where static assets end up inside the image.
	AssetsDir = "/assets/"

	// IncrementalCacheDir holds staged cache archives inside the build context.
	IncrementalCacheDir = ".nixpacks/incremental-cache"

	DefaultDockerfile = "Dockerfile"

	// Well known phase names.
	SetupPhase   = "setup"
	InstallPhase = "install"
	BuildPhase   = "build"

	// MetadataVariable lists the providers that contributed to a plan.
	MetadataVariable = "NIXPACKS_METADATA"

	// PathVariable accumulates phase search paths.
	PathVariable = "NIXPACKS_PATH"

	// EnvPrefix marks environment variables that configure nixpacks itself.
	EnvPrefix = "NIXPACKS_"

	// CacheTokenHeader authenticates uploads to the cache endpoint.
	CacheTokenHeader = "X-Nixpacks-Cache-Token"

	// Build secrets carrying the cache endpoint into the build. Secrets are not
	// part of the layer cache key, so a new token or port keeps cached layers.
	CacheUploadURLSecret   = "nixpacks-cache-upload-url"
	CacheUploadTokenSecret = "nixpacks-cache-upload-token"

	// SecretsDir is where BuildKit mounts build secrets.
	SecretsDir = "/run/secrets"

	DefaultCachePort = 8732

	// DefaultNixpacksDir is the per-user directory under $HOME.
	DefaultNixpacksDir = ".nixpacks"

	// DefaultCacheDir is the staging directory for incremental cache archives, under DefaultNixpacksDir.
	DefaultCacheDir = "cache"

	DockerHostGateway = "host.docker.internal"
)

// ConfigFiles are looked up in the application root, in order.
var ConfigFiles = []string{"nixpacks.toml", "nixpacks.json", "nixpacks.yaml", "nixpacks.yml"}

// Placeholders splice the other side of a merge into a list.
var Placeholders = []string{"...", "@auto"}
