package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dagger/farmbuddy/internal/dagger"
)

// Build and return directory of farmbuddy binaries
func (f *FarmBuddy) Build(
	ctx context.Context,

	// Linker flags for go build
	// +optional
	// +default="-s -w"
	ldflags string,
) *dagger.Directory {
	targets := []struct{ goos, goarch string }{
		{"linux", "amd64"},
		{"linux", "arm64"},
		{"darwin", "amd64"},
		{"darwin", "arm64"},
		{"windows", "amd64"},
	}

	outputs := dag.Directory()
	golang := f.goContainer()

	for _, t := range targets {
		path := fmt.Sprintf("%s/%s/", t.goos, t.goarch)

		build := golang.
			WithEnvVariable("GOOS", t.goos).
			WithEnvVariable("GOARCH", t.goarch).
			WithExec([]string{"go", "build", "-ldflags", ldflags, "-o", path, "./cli/farmbuddy"})

		outputs = outputs.WithDirectory(path, build.Directory(path))
	}

	return outputs
}

// BuildRelease compiles versioned release binaries with embedded version info
func (f *FarmBuddy) BuildRelease(
	ctx context.Context,

	// Version string of build
	version string,

	// Git commit SHA of build
	commit string,
) *dagger.Directory {
	buildtime := time.Now().UTC().Format(time.RFC3339)

	ldflags := []string{
		"-s",
		"-w",
		fmt.Sprintf("-X 'github.com/papercomputeco/farmbuddy/pkg/utils.Version=%s'", version),
		fmt.Sprintf("-X 'github.com/papercomputeco/farmbuddy/pkg/utils.Sha=%s'", commit),
		fmt.Sprintf("-X 'github.com/papercomputeco/farmbuddy/pkg/utils.Buildtime=%s'", buildtime),
	}

	return f.Build(ctx, strings.Join(ldflags, " "))
}
