// Package registry holds the in-memory package index: records, families and
// the availability set. It is written during a single registration pass and
// read-only afterwards; callers must finish registering before fetching.
package registry

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hbuild/hpkgrepo/internal/buildcfg"
	"github.com/hbuild/hpkgrepo/internal/models"
	"github.com/hbuild/hpkgrepo/internal/utils"
	"github.com/sirupsen/logrus"
)

// Registry indexes every registered package record. One Registry is
// constructed per build invocation; there is no global state.
type Registry struct {
	cfg       *buildcfg.Config
	seq       int
	records   map[models.PackageID]*models.PackageRecord
	families  map[models.FamilyKey]*models.PackageFamily
	available map[models.FamilyKey]bool
}

// New creates an empty registry for one build invocation.
func New(cfg *buildcfg.Config) *Registry {
	return &Registry{
		cfg:       cfg,
		records:   make(map[models.PackageID]*models.PackageRecord),
		families:  make(map[models.FamilyKey]*models.PackageFamily),
		available: make(map[models.FamilyKey]bool),
	}
}

// AddRepositoryPackage registers one package build with a repository.
//
// In no-download mode (and outside bootstrap builds) a package whose
// artifact is not already in the download directory is excluded: the
// returned error wraps models.ErrExcluded and no index is touched.
func (r *Registry) AddRepositoryPackage(repo *models.Repository, arch, baseName, version string) (*models.PackageRecord, error) {
	fileName := models.FileName(baseName, version, arch)
	family := repo.Strategy.FamilyOf(baseName)

	if r.cfg.NoDownloads && !r.cfg.IsBootstrap {
		local := filepath.Join(r.cfg.DownloadDir, fileName)
		if !utils.FileExists(local) {
			logrus.Debugf("Excluding %s: downloads disabled and %s not present", baseName, local)
			return nil, fmt.Errorf("%s: %w", baseName, models.ErrExcluded)
		}
	}

	r.seq++
	rec := &models.PackageRecord{
		ID:           models.PackageID(fmt.Sprintf("%s/%s#%d", repo.Name, fileName, r.seq)),
		Repo:         repo,
		Architecture: arch,
		BaseName:     baseName,
		Version:      version,
		FileName:     fileName,
		Family:       family,
	}

	r.records[rec.ID] = rec
	r.available[family] = true

	fam, ok := r.families[family]
	if !ok {
		fam = &models.PackageFamily{Key: family}
		r.families[family] = fam
	}
	fam.Versions = append(fam.Versions, rec.ID)
	repo.Packages = append(repo.Packages, rec.ID)

	// A renamed base (bootstrap marker stripped) stays resolvable under
	// the name it was registered with, aliasing the same family.
	if alias := models.FamilyKey(baseName); alias != family {
		r.available[alias] = true
		r.families[alias] = fam
	}

	logrus.Debugf("Registered %s (family %s) with repository %s", fileName, family, repo.Name)
	return rec, nil
}

// AddRepositoryPackages registers a batch of packages, each given as "base"
// or "base-version". Bases flagged in sourceFlagged additionally get a
// "_source" companion under the source pseudo-architecture; bases flagged
// in debugFlagged get a "_debuginfo" companion under the same architecture.
// The returned ids cover primaries and debuginfo companions; source
// companions exist for side-effect only. Every registration may
// independently be excluded.
func (r *Registry) AddRepositoryPackages(repo *models.Repository, arch string, names, sourceFlagged, debugFlagged []string) []models.PackageID {
	sources := toSet(sourceFlagged)
	debugs := toSet(debugFlagged)

	var ids []models.PackageID
	for _, name := range names {
		base, version := splitNameVersion(name)

		if rec, err := r.AddRepositoryPackage(repo, arch, base, version); err == nil {
			ids = append(ids, rec.ID)
		}

		if sources[base] {
			r.AddRepositoryPackage(repo, models.ArchSource, base+"_source", version)
		}

		if debugs[base] {
			if rec, err := r.AddRepositoryPackage(repo, arch, base+"_debuginfo", version); err == nil {
				ids = append(ids, rec.ID)
			}
		}
	}
	return ids
}

// PackageRepository registers a repository's packages for one architecture:
// anyNames under the "any" pseudo-architecture, archNames under arch. It is
// a no-op for every architecture but the primary packaging architecture.
func (r *Registry) PackageRepository(repo *models.Repository, arch string, anyNames, archNames, sourceFlagged, debugFlagged []string) []models.PackageID {
	if arch != r.cfg.PrimaryArch() {
		return []models.PackageID{}
	}

	ids := r.AddRepositoryPackages(repo, models.ArchAny, anyNames, sourceFlagged, debugFlagged)
	return append(ids, r.AddRepositoryPackages(repo, arch, archNames, sourceFlagged, debugFlagged)...)
}

// IsAvailable reports whether a family key is in the availability set.
func (r *Registry) IsAvailable(key models.FamilyKey) bool {
	return r.available[key]
}

// Family returns the family for key, or nil.
func (r *Registry) Family(key models.FamilyKey) *models.PackageFamily {
	return r.families[key]
}

// Record returns the record for id, or nil.
func (r *Registry) Record(id models.PackageID) *models.PackageRecord {
	return r.records[id]
}

// splitNameVersion splits "base-version" at the first dash; a bare name has
// no version.
func splitNameVersion(name string) (string, string) {
	base, version, _ := strings.Cut(name, "-")
	return base, version
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
