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

package providers

import (
	"path"
	"strings"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/app"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
)

const nginxTemplate = `daemon off;
worker_processes 1;
error_log /dev/stdout info;

events {
  worker_connections 1024;
}

http {
  include ${NGINX_MIME_TYPES};
  access_log /dev/stdout;

  server {
    listen ${PORT};
    root ROOT;
    index index.html;

    location / {
      try_files $uri $uri/ /index.html =404;
    }
  }
}
`

// staticfile is the optional Staticfile configuration.
type staticfile struct {
	Root string `yaml:"root"`
}

// StaticfileProvider serves a directory of static files with nginx.
type StaticfileProvider struct{}

func (*StaticfileProvider) Name() string { return "staticfile" }

func (*StaticfileProvider) Detect(a *app.App, _ *app.Environment) (bool, error) {
	return a.IncludesFile("Staticfile") || a.IncludesFile("index.html"), nil
}

func (*StaticfileProvider) GetBuildPlan(a *app.App, env *app.Environment) (*plan.BuildPlan, error) {
	root, err := staticRoot(a, env)
	if err != nil {
		return nil, err
	}

	setup := plan.NewSetupPhase(plan.Pkgs("nginx", "gettext"))
	conf := path.Join(constants.AssetsDir, "nginx.template.conf")
	start := plan.NewStartPhase(`[[ -z "${PORT}" ]] && export PORT=80; ` +
		`export NGINX_MIME_TYPES="$(dirname "$(readlink -f "$(which nginx)")")/../conf/mime.types"; ` +
		`envsubst '${PORT} ${NGINX_MIME_TYPES}' < ` + conf + ` > /etc/nginx.conf && nginx -c /etc/nginx.conf`)

	bp := plan.NewBuildPlan([]*plan.Phase{setup}, start)
	bp.AddStaticAssets(map[string]string{
		"nginx.template.conf": strings.Replace(nginxTemplate, "ROOT", path.Join(constants.AppDir, root), 1),
	})
	return bp, nil
}

// staticRoot reads the served directory from NIXPACKS_STATICFILE_ROOT or the Staticfile.
func staticRoot(a *app.App, env *app.Environment) (string, error) {
	if root, found := env.ConfigVariable("STATICFILE_ROOT"); found {
		return root, nil
	}
	if !a.IncludesFile("Staticfile") {
		return ".", nil
	}
	var cfg staticfile
	if err := a.ReadYAML("Staticfile", &cfg); err != nil {
		return "", err
	}
	if cfg.Root == "" {
		return ".", nil
	}
	return cfg.Root, nil
}
