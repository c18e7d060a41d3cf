// Package tools wraps the external collaborators this layer invokes: the
// HTTP download primitive and the repository/port build tools. Retry policy
// lives in the download primitive; nothing above it retries.
package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hbuild/hpkgrepo/internal/buildcfg"
)

// Downloader transfers a URL to a local file. Implementations own their
// retry/backoff policy.
type Downloader interface {
	Download(ctx context.Context, url, dest string) error
}

// Runner executes an external tool synchronously in the given working
// directory.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// Tools bundles the external collaborators with the build configuration
// that locates them.
type Tools struct {
	Downloader Downloader
	Runner     Runner
	Config     *buildcfg.Config
}

// New returns a Tools set backed by the real HTTP client and process
// runner.
func New(cfg *buildcfg.Config) *Tools {
	return &Tools{
		Downloader: NewHTTPDownloader(),
		Runner:     ExecRunner{},
		Config:     cfg,
	}
}

// CreateRepositoryConfig invokes the external config generator on a
// repository-info file and checksum file, producing outPath.
func (t *Tools) CreateRepositoryConfig(ctx context.Context, infoPath, checksumPath, outPath string) error {
	if err := t.Runner.Run(ctx, "", t.Config.RepoConfigTool, infoPath, checksumPath, outPath); err != nil {
		return fmt.Errorf("repository config generation failed: %w", err)
	}
	return nil
}

// CreateRepositoryCache invokes the external package-index generator,
// assembling a repository cache at cachePath from the given package files.
func (t *Tools) CreateRepositoryCache(ctx context.Context, dir, infoPath, cachePath string, packageFiles ...string) error {
	args := append([]string{"create", "-o", cachePath, infoPath}, packageFiles...)
	if err := t.Runner.Run(ctx, dir, t.Config.RepoCacheTool, args...); err != nil {
		return fmt.Errorf("repository cache generation failed: %w", err)
	}
	return nil
}

// BuildPort runs the port builder for one package. The primary cross-devel
// package is positional; every further one is a repeated
// --secondary-cross-devel-package flag.
func (t *Tools) BuildPort(ctx context.Context, buildDir, portID, crossDevel string, secondaryCrossDevel []string) error {
	args := []string{"-j" + strconv.Itoa(t.Config.Jobs)}
	args = append(args, t.Config.PortsExtraOptions...)
	args = append(args, crossDevel)
	for _, path := range secondaryCrossDevel {
		args = append(args, "--secondary-cross-devel-package="+path)
	}
	args = append(args, portID)
	if err := t.Runner.Run(ctx, buildDir, t.Config.PortsTool, args...); err != nil {
		return fmt.Errorf("port build for %s failed: %w", portID, err)
	}
	return nil
}
