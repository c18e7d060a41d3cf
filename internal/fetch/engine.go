// Package fetch is the resolution and fetch engine: it answers which
// packages are obtainable and materializes their artifacts through the
// owning repository's strategy.
package fetch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hbuild/hpkgrepo/internal/buildcfg"
	"github.com/hbuild/hpkgrepo/internal/models"
	"github.com/hbuild/hpkgrepo/internal/naming"
	"github.com/hbuild/hpkgrepo/internal/registry"
	"github.com/hbuild/hpkgrepo/internal/tools"
	"github.com/hbuild/hpkgrepo/internal/utils"
	"github.com/sirupsen/logrus"
)

// ResolveFlags adjusts name resolution.
type ResolveFlags uint32

const (
	// FlagNameResolved marks a name that already carries its architecture
	// qualification; the secondary-architecture candidate walk is skipped.
	FlagNameResolved ResolveFlags = 1 << iota
)

// IsPackageAvailable resolves name against the availability set and returns
// the resolved name, or "" when no registered family matches.
//
// On a secondary packaging architecture the architecture-qualified variants
// are tried first, in candidate order; the exact name is only a fallback and
// never shadows a primary-architecture name.
func IsPackageAvailable(reg *registry.Registry, cfg *buildcfg.Config, name string, flags ResolveFlags) string {
	if cfg.IsSecondaryArch() && flags&FlagNameResolved == 0 {
		for candidate := range naming.CandidateNamesForArchitecture(name, cfg.PackagingArch) {
			if reg.IsAvailable(models.FamilyKey(candidate)) {
				return candidate
			}
		}
	}

	if reg.IsAvailable(models.FamilyKey(name)) {
		return name
	}
	return ""
}

// FetchPackage resolves name, selects its family's first-registered version
// and materializes the artifact, returning its path. Every failure is fatal
// to the build step.
func FetchPackage(ctx context.Context, reg *registry.Registry, cfg *buildcfg.Config, name string, flags ResolveFlags) (string, error) {
	resolved := IsPackageAvailable(reg, cfg, name, flags)
	if resolved == "" {
		return "", &models.FetchError{
			Kind:    models.ErrUnavailable,
			Package: name,
			Err:     fmt.Errorf("package not obtainable from any repository"),
		}
	}

	family := reg.Family(models.FamilyKey(resolved))
	if family == nil || len(family.Versions) == 0 {
		return "", &models.FetchError{
			Kind:    models.ErrUnresolvableFamily,
			Package: resolved,
			Err:     fmt.Errorf("family is available but has no registered versions"),
		}
	}

	// First registered wins; never a version comparison.
	rec := reg.Record(family.Versions[0])

	if cfg.FetchDisabled && !utils.FileExists(rec.Repo.Strategy.LocalPath(rec)) {
		return "", &models.FetchError{
			Kind:    models.ErrFetchDisabled,
			Package: resolved,
			Err:     fmt.Errorf("fetching disabled and %s not cached", rec.FileName),
		}
	}

	logrus.Debugf("Fetching %s from repository %s", rec.FileName, rec.Repo.Name)
	return rec.Repo.Strategy.Fetch(ctx, rec)
}

// HaikuRepository assembles a complete repository cache from already-built
// package files, returning the cache path. The package files are copied
// into the repository directory so the assembled repository is
// self-contained.
func HaikuRepository(ctx context.Context, tl *tools.Tools, name string, packageFiles []string) (string, error) {
	repoDir := filepath.Join(tl.Config.OutDir, "repositories", name)

	infoPath := filepath.Join(repoDir, "repo-info")
	var b strings.Builder
	fmt.Fprintf(&b, "name %s\n", name)
	fmt.Fprintf(&b, "architecture %s\n", tl.Config.PackagingArch)
	if err := utils.WriteFile(infoPath, []byte(b.String()), 0644); err != nil {
		return "", err
	}

	copies := make([]string, len(packageFiles))
	for i, src := range packageFiles {
		dst := filepath.Join(repoDir, "packages", filepath.Base(src))
		if err := utils.CopyFile(src, dst); err != nil {
			return "", fmt.Errorf("failed to copy %s into repository: %w", src, err)
		}
		copies[i] = dst
	}

	cachePath := filepath.Join(repoDir, "repo.cache")
	if err := tl.CreateRepositoryCache(ctx, repoDir, infoPath, cachePath, copies...); err != nil {
		return "", &models.FetchError{Kind: models.ErrExternalTool, Package: name, Err: err}
	}

	// The checksum file pins the assembled repository state, the same way
	// remote repositories pin theirs in download URLs.
	checksum, err := utils.SHA256File(cachePath)
	if err != nil {
		return "", err
	}
	if err := utils.WriteFile(filepath.Join(repoDir, "checksum"), []byte(checksum+"\n"), 0644); err != nil {
		return "", err
	}

	logrus.Infof("Assembled repository cache %s from %d packages", cachePath, len(packageFiles))
	return cachePath, nil
}
