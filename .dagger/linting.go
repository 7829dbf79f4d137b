package main

import (
	"context"
	"fmt"

	"dagger/farmbuddy/internal/dagger"
)

const golangciLintVersion = "v2.8.0"

// lintOpts returns the GolangcilintOpts shared by CheckLint and FixLint.
func (f *FarmBuddy) lintOpts() dagger.GolangcilintOpts {
	base := f.goContainer().
		WithExec([]string{
			"go",
			"install",
			fmt.Sprintf("github.com/golangci/golangci-lint/v2/cmd/golangci-lint@%s", golangciLintVersion),
		})

	return dagger.GolangcilintOpts{
		BaseCtr: base,
	}
}

// CheckLint runs golangci-lint without applying fixes.
func (f *FarmBuddy) CheckLint(ctx context.Context) (string, error) {
	return dag.Golangcilint(f.Source, f.lintOpts()).Check(ctx)
}

// FixLint runs golangci-lint with --fix and returns the modified source
// directory.
func (f *FarmBuddy) FixLint(ctx context.Context) *dagger.Directory {
	return dag.Golangcilint(f.Source, f.lintOpts()).Lint()
}
