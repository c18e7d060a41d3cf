package models

import (
	"context"
	"fmt"
)

// Architecture pseudo-values accepted alongside real packaging architectures.
const (
	ArchAny    = "any"
	ArchSource = "source"
)

// ArtifactSuffix is the file extension of every package artifact.
const ArtifactSuffix = ".hpkg"

// PackageRecord represents one resolvable package build.
//
// Records are created during registration and are immutable afterwards,
// except for CrossDevelDeps, which bootstrap repositories populate right
// after registration and before any fetch.
type PackageRecord struct {
	ID           PackageID
	Repo         *Repository
	Architecture string
	BaseName     string
	Version      string
	FileName     string
	Family       FamilyKey

	// CrossDevelDeps lists dependency artifact names, in packaging
	// architecture order. Empty for remote packages.
	CrossDevelDeps []string
}

// PackageFamily groups all records sharing a family key, across
// repositories. Versions is in registration order; the resolver always
// selects Versions[0]: first registered wins, never a version comparison.
type PackageFamily struct {
	Key      FamilyKey
	Versions []PackageID
}

// FileName derives the canonical artifact name for a package.
// The version segment is omitted when version is empty.
func FileName(base, version, arch string) string {
	if version == "" {
		return fmt.Sprintf("%s-%s%s", base, arch, ArtifactSuffix)
	}
	return fmt.Sprintf("%s-%s-%s%s", base, version, arch, ArtifactSuffix)
}

// Strategy is the capability pair a repository provides: canonical family
// naming and artifact materialization.
type Strategy interface {
	// FamilyOf maps a registered base name to its canonical family key.
	FamilyOf(base string) FamilyKey

	// LocalPath returns where the record's artifact lives (or will live)
	// on disk.
	LocalPath(rec *PackageRecord) string

	// Fetch materializes the record's artifact and returns its path.
	// It must be idempotent: if the artifact already exists it returns
	// the path without touching network or build tools.
	Fetch(ctx context.Context, rec *PackageRecord) (string, error)
}
