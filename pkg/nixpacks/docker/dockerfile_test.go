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

package docker

import (
	"strings"
	"testing"

	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/cache"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/constants"
	nperrors "github.com/nixpacks-go/nixpacks/pkg/nixpacks/errors"
	"github.com/nixpacks-go/nixpacks/pkg/nixpacks/plan"
	"github.com/nixpacks-go/nixpacks/testutil"
)

func nodePlan() *plan.BuildPlan {
	return plan.NewBuildPlan([]*plan.Phase{
		plan.NewSetupPhase(plan.Pkgs("nodejs")),
		plan.NewInstallPhase("npm install"),
		plan.NewBuildPhase("npm run build"),
	}, plan.NewStartPhase("npm start"))
}

func TestGenerateDockerfile(t *testing.T) {
	testutil.Run(t, "node application", func(t *testutil.T) {
		dockerfile, err := GenerateDockerfile(nodePlan(), Options{})

		t.CheckNoError(err)
		t.CheckDeepEqual(`FROM `+constants.DefaultBaseImage+`

ENTRYPOINT ["/bin/bash", "-l", "-c"]
WORKDIR /app/

# setup
COPY .nixpacks/setup.nix .nixpacks/setup.nix
RUN nix-env -if .nixpacks/setup.nix && nix-collect-garbage -d

# install
COPY . /app/.
RUN npm install

# build
COPY . /app/.
RUN npm run build

# start
COPY . /app/
CMD ["npm start"]
`, dockerfile)
	})
	testutil.Run(t, "custom build image", func(t *testutil.T) {
		p := nodePlan()
		p.BuildImage = "ubuntu:jammy"

		dockerfile, err := GenerateDockerfile(p, Options{})

		t.CheckNoError(err)
		t.CheckTrue(strings.HasPrefix(dockerfile, "FROM ubuntu:jammy\n"))
	})
	testutil.Run(t, "variables follow setup", func(t *testutil.T) {
		p := nodePlan()
		p.AddVariables(map[string]string{"NODE_ENV": "production", "CI": "true"})

		dockerfile, err := GenerateDockerfile(p, Options{})

		t.CheckNoError(err)
		t.CheckContains("nix-collect-garbage -d\n\nARG CI NODE_ENV\nENV CI=$CI NODE_ENV=$NODE_ENV\n\n# install\n", dockerfile)
	})
	testutil.Run(t, "variables without setup", func(t *testutil.T) {
		p := plan.NewBuildPlan([]*plan.Phase{plan.NewBuildPhase("make")}, nil)
		p.AddVariables(map[string]string{"A": "1"})

		dockerfile, err := GenerateDockerfile(p, Options{})

		t.CheckNoError(err)
		t.CheckContains("RUN make\n\nARG A\nENV A=$A\n", dockerfile)
		t.CheckNotContains("CMD", dockerfile)
	})
	testutil.Run(t, "static assets", func(t *testutil.T) {
		p := nodePlan()
		p.AddStaticAssets(map[string]string{"nginx.conf": "server {}"})

		dockerfile, err := GenerateDockerfile(p, Options{})

		t.CheckNoError(err)
		t.CheckContains("WORKDIR /app/\n\nCOPY .nixpacks/assets /assets/\n\n# setup\n", dockerfile)
	})
	testutil.Run(t, "paths and apt packages", func(t *testutil.T) {
		p := nodePlan()
		setup := p.GetPhase(constants.SetupPhase)
		setup.AddAptPkgs("git", "curl")
		p.GetPhase(constants.InstallPhase).AddPath("/app/node_modules/.bin")

		dockerfile, err := GenerateDockerfile(p, Options{})

		t.CheckNoError(err)
		t.CheckContains("nix-collect-garbage -d\nRUN sudo apt-get update && sudo apt-get install -y --no-install-recommends git curl\n", dockerfile)
		t.CheckContains("# install\nENV NIXPACKS_PATH=/app/node_modules/.bin:$NIXPACKS_PATH PATH=/app/node_modules/.bin:$PATH\nCOPY . /app/.\n", dockerfile)
	})
	testutil.Run(t, "only included files", func(t *testutil.T) {
		p := nodePlan()
		p.GetPhase(constants.SetupPhase).AddFileDependency("package.json")
		install := p.GetPhase(constants.InstallPhase)
		install.AddFileDependency("package.json")
		install.AddFileDependency("package-lock.json")

		dockerfile, err := GenerateDockerfile(p, Options{})

		t.CheckNoError(err)
		t.CheckContains("nix-collect-garbage -d\nCOPY package.json /app/package.json\n\n# install\n", dockerfile)
		t.CheckContains("# install\nCOPY package.json /app/package.json\nCOPY package-lock.json /app/package-lock.json\nRUN npm install\n", dockerfile)
	})
	testutil.Run(t, "cache mounts", func(t *testutil.T) {
		p := nodePlan()
		p.GetPhase(constants.InstallPhase).AddCacheDirectory("/root/.npm")

		dockerfile, err := GenerateDockerfile(p, Options{CacheKey: "my-app"})

		t.CheckNoError(err)
		t.CheckContains("RUN --mount=type=cache,id=my-app-/root/npm,target=/root/.npm npm install\n", dockerfile)
		t.CheckContains("RUN npm run build\n", dockerfile)
	})
	testutil.Run(t, "no cache", func(t *testutil.T) {
		p := nodePlan()
		p.GetPhase(constants.InstallPhase).AddCacheDirectory("/root/.npm")

		dockerfile, err := GenerateDockerfile(p, Options{CacheKey: "my-app", NoCache: true})

		t.CheckNoError(err)
		t.CheckNotContains("--mount", dockerfile)
	})
	testutil.Run(t, "multi-line commands", func(t *testutil.T) {
		p := plan.NewBuildPlan([]*plan.Phase{plan.NewBuildPhase("echo a &&\necho b\n")}, nil)

		dockerfile, err := GenerateDockerfile(p, Options{})

		t.CheckNoError(err)
		t.CheckContains(`RUN ["/bin/sh","-c","echo a &&\necho b"]`+"\n", dockerfile)
		t.CheckNoError(ValidateDockerfile(dockerfile))
	})
	testutil.Run(t, "newline separated script", func(t *testutil.T) {
		p := plan.NewBuildPlan([]*plan.Phase{plan.NewBuildPhase("echo a\necho b")}, nil)
		p.GetPhase(constants.BuildPhase).AddCacheDirectory("/root/.cache")

		dockerfile, err := GenerateDockerfile(p, Options{CacheKey: "app"})

		t.CheckNoError(err)
		t.CheckContains(`RUN --mount=type=cache,id=app-/root/cache,target=/root/.cache ["/bin/sh","-c","echo a\necho b"]`+"\n", dockerfile)
		t.CheckNotContains("echo a \\", dockerfile)
		t.CheckNoError(ValidateDockerfile(dockerfile))
	})
	testutil.Run(t, "run image", func(t *testutil.T) {
		p := nodePlan()
		p.Start.RunIn("node:20-slim")
		p.Start.AddFileDependency("dist")
		p.Start.AddFileDependency("package.json")

		dockerfile, err := GenerateDockerfile(p, Options{})

		t.CheckNoError(err)
		t.CheckTrue(strings.HasSuffix(dockerfile, `# start
FROM node:20-slim
WORKDIR /app/
COPY --from=0 /etc/ssl/certs /etc/ssl/certs
COPY --from=0 /app/dist /app/dist
COPY --from=0 /app/package.json /app/package.json
CMD ["npm start"]
`))
	})
	testutil.Run(t, "run image without files takes the whole app", func(t *testutil.T) {
		p := nodePlan()
		p.Start.RunIn("alpine")

		dockerfile, err := GenerateDockerfile(p, Options{})

		t.CheckNoError(err)
		t.CheckTrue(strings.HasSuffix(dockerfile, `# start
FROM alpine
WORKDIR /app/
COPY --from=0 /etc/ssl/certs /etc/ssl/certs
COPY --from=0 /app/ /app/
CMD ["npm start"]
`))
	})
	testutil.Run(t, "file names with spaces", func(t *testutil.T) {
		p := nodePlan()
		p.GetPhase(constants.InstallPhase).AddFileDependency("my file.json")
		p.Start.RunIn("alpine")
		p.Start.AddFileDependency("dist dir")

		dockerfile, err := GenerateDockerfile(p, Options{})

		t.CheckNoError(err)
		t.CheckContains(`COPY ["my file.json","/app/my file.json"]`+"\n", dockerfile)
		t.CheckContains(`COPY --from=0 ["/app/dist dir","/app/dist dir"]`+"\n", dockerfile)
		t.CheckNoError(ValidateDockerfile(dockerfile))
	})
	testutil.Run(t, "phase names with spaces", func(t *testutil.T) {
		phase := plan.NewPhase("extra tools")
		phase.AddNixPkgs(plan.NewPkg("git"))
		p := plan.NewBuildPlan([]*plan.Phase{phase}, nil)

		dockerfile, err := GenerateDockerfile(p, Options{})

		t.CheckNoError(err)
		t.CheckContains(`COPY [".nixpacks/extra tools.nix",".nixpacks/extra tools.nix"]`+"\n", dockerfile)
		t.CheckContains("RUN nix-env -if '.nixpacks/extra tools.nix' && nix-collect-garbage -d\n", dockerfile)
	})
	testutil.Run(t, "start command is quoted", func(t *testutil.T) {
		p := nodePlan()
		p.Start.Cmd = `node -e "console.log(1)"`

		dockerfile, err := GenerateDockerfile(p, Options{})

		t.CheckNoError(err)
		t.CheckContains(`CMD ["node -e \"console.log(1)\""]`, dockerfile)
	})
	testutil.Run(t, "unresolved placeholder", func(t *testutil.T) {
		p := nodePlan()
		p.GetPhase(constants.BuildPhase).AddCmd("...")

		_, err := GenerateDockerfile(p, Options{})

		t.CheckDeepEqual(nperrors.Config, nperrors.KindOf(err))
	})
	testutil.Run(t, "cycle", func(t *testutil.T) {
		p := nodePlan()
		p.GetPhase(constants.SetupPhase).DependsOnPhase(constants.BuildPhase)

		_, err := GenerateDockerfile(p, Options{})

		t.CheckDeepEqual(nperrors.Graph, nperrors.KindOf(err))
		t.CheckErrorContains("3 nodes involved", err)
	})
}

func TestGenerateDockerfileIncrementalCache(t *testing.T) {
	testutil.Run(t, "nothing staged yet", func(t *testutil.T) {
		p := nodePlan()
		p.GetPhase(constants.BuildPhase).AddCacheDirectory("~/.cache/foo")

		dockerfile, err := GenerateDockerfile(p, Options{CacheKey: "app", IncrementalCache: true})

		t.CheckNoError(err)
		t.CheckContains("RUN npm run build\nRUN --mount=type=secret,id=nixpacks-cache-upload-url --mount=type=secret,id=nixpacks-cache-upload-token if [ -d /root/.cache/foo ]; then", dockerfile)
		t.CheckNotContains("ARG NIXPACKS", dockerfile)
		t.CheckNotContains(constants.IncrementalCacheDir, dockerfile)
		t.CheckNotContains("--mount", dockerfile)
	})
	testutil.Run(t, "staged archive", func(t *testutil.T) {
		p := nodePlan()
		p.GetPhase(constants.BuildPhase).AddCacheDirectory("~/.cache/foo")
		archives := cache.Archives{"%2froot%2f.cache%2ffoo.tar": 10}

		dockerfile, err := GenerateDockerfile(p, Options{IncrementalCache: true, IncrementalArchives: archives})

		t.CheckNoError(err)
		t.CheckContains(`# build
COPY . /app/.
COPY .nixpacks/incremental-cache/%2froot%2f.cache%2ffoo.tar /tmp/%2froot%2f.cache%2ffoo.tar
RUN mkdir -p /root/.cache/foo && tar -xf /tmp/%2froot%2f.cache%2ffoo.tar -C /root/.cache/foo --strip-components 3 && rm -f /tmp/%2froot%2f.cache%2ffoo.tar
RUN npm run build
RUN --mount=type=secret,id=nixpacks-cache-upload-url`, dockerfile)
	})
}

func TestGenerateDockerfileIsPure(t *testing.T) {
	testutil.Run(t, "", func(t *testutil.T) {
		p := nodePlan()
		p.AddVariables(map[string]string{"B": "2", "A": "1", "C": "3"})
		p.GetPhase(constants.InstallPhase).AddCacheDirectory("~/.npm")
		p.GetPhase(constants.InstallPhase).AddCacheDirectory("node_modules/.cache")
		before := p.Clone()
		opts := Options{CacheKey: "key", IncrementalCache: true}

		first, err := GenerateDockerfile(p, opts)
		t.CheckNoError(err)
		second, err := GenerateDockerfile(p, opts)
		t.CheckNoError(err)

		t.CheckDeepEqual(first, second)
		t.CheckDeepEqual(before, p)
		t.CheckNoError(ValidateDockerfile(first))
	})
}
