// FarmBuddy CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/farmbuddy/internal/dagger"
)

// FarmBuddy is the main module for the FarmBuddy client CI/CD pipeline
type FarmBuddy struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new FarmBuddy CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *FarmBuddy {
	return &FarmBuddy{
		Source: source,
	}
}

// goContainer returns a Go container with module and build caches and the
// project source mounted. The client is pure Go, so CGO stays off.
func (f *FarmBuddy) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", f.Source)
}

// Test runs the unit tests via "go test"
func (f *FarmBuddy) Test(ctx context.Context) (string, error) {
	return f.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}

// TestRace runs the stream and chat packages under the race detector, which
// needs cgo.
func (f *FarmBuddy) TestRace(ctx context.Context) (string, error) {
	return f.goContainer().
		WithExec([]string{"apk", "add", "--no-cache", "gcc", "musl-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithExec([]string{"go", "test", "-race", "./pkg/stream/...", "./pkg/chat/...", "./pkg/eventstream/..."}).
		Stdout(ctx)
}
