// Package bootstrap implements the staged local-build repository strategy:
// packages are cross-built by the port builder instead of downloaded, in
// three ordered stages whose records depend on the previous stage's
// cross-devel sysroot artifact.
package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hbuild/hpkgrepo/internal/buildcfg"
	"github.com/hbuild/hpkgrepo/internal/models"
	"github.com/hbuild/hpkgrepo/internal/registry"
	"github.com/hbuild/hpkgrepo/internal/tools"
	"github.com/hbuild/hpkgrepo/internal/utils"
	"github.com/sirupsen/logrus"
)

// bootstrapMarker is stripped from base names to form family keys, so the
// same logical package resolves under either name.
const bootstrapMarker = "_bootstrap"

// Stage is one registration stage of a bootstrap repository.
type Stage struct {
	AnyNames  []string
	ArchNames []string
}

// Strategy cross-builds packages in a local build directory.
type Strategy struct {
	BuildDir   string
	ConfigFile string

	tl *tools.Tools
}

// FamilyOf strips the _bootstrap marker, wherever it appears in the name.
func (s *Strategy) FamilyOf(base string) models.FamilyKey {
	return models.FamilyKey(strings.Replace(base, bootstrapMarker, "", 1))
}

// LocalPath returns where the built artifact lands under the build
// directory.
func (s *Strategy) LocalPath(rec *models.PackageRecord) string {
	return filepath.Join(s.BuildDir, "packages", rec.FileName)
}

// Fetch builds the record's artifact with the port builder unless it
// already exists. A record without cross-devel dependencies is a fatal
// error before any process is spawned; an artifact still missing after a
// successful build signals a version mismatch.
func (s *Strategy) Fetch(ctx context.Context, rec *models.PackageRecord) (string, error) {
	dest := s.LocalPath(rec)
	if utils.FileExists(dest) {
		logrus.Debugf("%s already built", rec.FileName)
		return dest, nil
	}

	if len(rec.CrossDevelDeps) == 0 {
		return "", &models.FetchError{
			Kind:    models.ErrMissingCrossDevel,
			Package: rec.BaseName,
			Err:     fmt.Errorf("bootstrap package has no cross-devel dependency"),
		}
	}

	primary := filepath.Join(s.BuildDir, "packages", rec.CrossDevelDeps[0])
	var secondaries []string
	for _, dep := range rec.CrossDevelDeps[1:] {
		secondaries = append(secondaries, filepath.Join(s.BuildDir, "packages", dep))
	}

	portID := strings.TrimSuffix(rec.FileName, models.ArtifactSuffix)
	logrus.Infof("Building bootstrap package %s", portID)

	if err := s.tl.BuildPort(ctx, s.BuildDir, portID, primary, secondaries); err != nil {
		return "", &models.FetchError{Kind: models.ErrExternalTool, Package: rec.BaseName, Err: err}
	}

	if !utils.FileExists(dest) {
		return "", &models.FetchError{
			Kind:    models.ErrBuildNoArtifact,
			Package: rec.BaseName,
			Err:     fmt.Errorf("%s built but missing (version mismatch between recipe and registration?)", rec.FileName),
		}
	}
	return dest, nil
}

// BootstrapPackageRepository creates a bootstrap repository and registers
// its packages stage by stage. Stage0 and stage1 go through the
// primary-architecture gate; stage2 is registered unconditionally as the
// terminal stage. Each stage's records get their cross-devel sysroot
// dependencies wired immediately after registration.
func BootstrapPackageRepository(reg *registry.Registry, tl *tools.Tools,
	name, arch, buildDir string, stage0, stage1 Stage, stage2Names,
	sourceFlagged, debugFlagged []string) (*models.Repository, error) {

	cfg := tl.Config
	strategy := &Strategy{
		BuildDir:   buildDir,
		ConfigFile: filepath.Join(buildDir, "haikuports.conf"),
		tl:         tl,
	}
	repo := &models.Repository{Name: models.RepositoryID(name), Strategy: strategy}

	logrus.Infof("Registering bootstrap repository %s (build dir %s)", name, buildDir)

	// The builder and the cross-devel dependency paths both live under
	// the packages directory; it must exist before the first build.
	if err := utils.EnsureDir(filepath.Join(buildDir, "packages")); err != nil {
		return nil, err
	}

	ids := reg.PackageRepository(repo, arch, stage0.AnyNames, stage0.ArchNames, sourceFlagged, debugFlagged)
	wireCrossDevelDeps(reg, cfg, ids, 0)

	ids = reg.PackageRepository(repo, arch, stage1.AnyNames, stage1.ArchNames, sourceFlagged, debugFlagged)
	wireCrossDevelDeps(reg, cfg, ids, 1)

	// Terminal stage: no further staging, depends on the final sysroot.
	ids = reg.AddRepositoryPackages(repo, arch, stage2Names, sourceFlagged, debugFlagged)
	wireCrossDevelDeps(reg, cfg, ids, finalStage)

	if err := writeHaikuPortsConf(strategy.ConfigFile, cfg); err != nil {
		return nil, err
	}
	return repo, nil
}

const finalStage = -1

// wireCrossDevelDeps populates the records' cross-devel dependency lists:
// one sysroot artifact per packaging architecture, primary first, then
// primary_secondary for each secondary architecture.
func wireCrossDevelDeps(reg *registry.Registry, cfg *buildcfg.Config, ids []models.PackageID, stage int) {
	suffixes := []string{cfg.PrimaryArch()}
	for _, sec := range cfg.SecondaryArchs() {
		suffixes = append(suffixes, cfg.PrimaryArch()+"_"+sec)
	}

	deps := make([]string, len(suffixes))
	for i, suffix := range suffixes {
		if stage == finalStage {
			deps[i] = fmt.Sprintf("haiku_cross_devel_sysroot_%s%s", suffix, models.ArtifactSuffix)
		} else {
			deps[i] = fmt.Sprintf("haiku_cross_devel_sysroot_stage%d_%s%s", stage, suffix, models.ArtifactSuffix)
		}
	}

	for _, id := range ids {
		reg.Record(id).CrossDevelDeps = deps
	}
}

// writeHaikuPortsConf generates the ports-tree configuration once per
// repository: double-quoted values, one key per line, secondary
// architecture blocks as two-space-indented arrays.
func writeHaikuPortsConf(path string, cfg *buildcfg.Config) error {
	var b strings.Builder
	fmt.Fprintf(&b, "PACKAGER=\"%s\"\n", cfg.Packager)
	fmt.Fprintf(&b, "TREE_PATH=\"%s\"\n", cfg.TreePath)
	fmt.Fprintf(&b, "TARGET_ARCHITECTURE=\"%s\"\n", cfg.PrimaryArch())

	if secondaries := cfg.SecondaryArchs(); len(secondaries) > 0 {
		writeConfArray(&b, "SECONDARY_TARGET_ARCHITECTURES", secondaries)
		writeConfArray(&b, "SECONDARY_CROSS_TOOLS", cfg.SecondaryCrossTools)
	}

	return utils.WriteFile(path, []byte(b.String()), 0644)
}

func writeConfArray(b *strings.Builder, key string, values []string) {
	fmt.Fprintf(b, "%s=\"\n", key)
	for _, v := range values {
		fmt.Fprintf(b, "  %s\n", v)
	}
	b.WriteString("\"\n")
}
