package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hbuild/hpkgrepo/internal/buildcfg"
	"github.com/hbuild/hpkgrepo/internal/models"
	"github.com/hbuild/hpkgrepo/internal/registry"
	"github.com/hbuild/hpkgrepo/internal/tools"
	"github.com/hbuild/hpkgrepo/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records port builder invocations and optionally creates the
// artifacts listed in produce.
type fakeRunner struct {
	calls   [][]string
	dirs    []string
	produce []string
}

func (r *fakeRunner) Run(_ context.Context, dir, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	r.dirs = append(r.dirs, dir)
	for _, p := range r.produce {
		if err := utils.WriteFile(p, []byte("built"), 0644); err != nil {
			return err
		}
	}
	return nil
}

func testEnv(t *testing.T, archs ...string) (*buildcfg.Config, *tools.Tools, *fakeRunner, string) {
	t.Helper()
	if len(archs) == 0 {
		archs = []string{"x86_gcc2"}
	}
	buildDir := t.TempDir()
	cfg := &buildcfg.Config{
		PackagingArch:  archs[0],
		PackagingArchs: archs,
		IsBootstrap:    true,
		DownloadDir:    filepath.Join(buildDir, "download"),
		OutDir:         filepath.Join(buildDir, "generated"),
		Packager:       "Test Builder <test@example.com>",
		TreePath:       "/src/haikuports",
		Jobs:           4,
		PortsTool:      "haikuporter",
	}
	rn := &fakeRunner{}
	return cfg, &tools.Tools{Runner: rn, Config: cfg}, rn, buildDir
}

func TestFamilyOfStripsBootstrapMarker(t *testing.T) {
	s := &Strategy{}
	assert.Equal(t, models.FamilyKey("gcc"), s.FamilyOf("gcc_bootstrap"))
	assert.Equal(t, models.FamilyKey("gcc_devel"), s.FamilyOf("gcc_bootstrap_devel"))
	assert.Equal(t, models.FamilyKey("icu"), s.FamilyOf("icu"))
}

func TestStageCrossDevelWiring(t *testing.T) {
	cfg, tl, _, buildDir := testEnv(t, "x86_gcc2", "x86")
	reg := registry.New(cfg)

	repo, err := BootstrapPackageRepository(reg, tl, "haikuports-cross", "x86_gcc2", buildDir,
		Stage{ArchNames: []string{"gcc_bootstrap-8.3"}},
		Stage{ArchNames: []string{"icu_bootstrap-57.1"}},
		[]string{"bash-5.2"},
		nil, nil)
	require.NoError(t, err)
	require.Len(t, repo.Packages, 3)

	stage0 := reg.Record(repo.Packages[0])
	assert.Equal(t, []string{
		"haiku_cross_devel_sysroot_stage0_x86_gcc2.hpkg",
		"haiku_cross_devel_sysroot_stage0_x86_gcc2_x86.hpkg",
	}, stage0.CrossDevelDeps)

	stage1 := reg.Record(repo.Packages[1])
	assert.Equal(t, []string{
		"haiku_cross_devel_sysroot_stage1_x86_gcc2.hpkg",
		"haiku_cross_devel_sysroot_stage1_x86_gcc2_x86.hpkg",
	}, stage1.CrossDevelDeps)

	// The terminal stage depends on the final sysroot, without a stage
	// number.
	stage2 := reg.Record(repo.Packages[2])
	assert.Equal(t, []string{
		"haiku_cross_devel_sysroot_x86_gcc2.hpkg",
		"haiku_cross_devel_sysroot_x86_gcc2_x86.hpkg",
	}, stage2.CrossDevelDeps)
}

func TestStage2RegisteredForSecondaryArchToo(t *testing.T) {
	// Stage0/1 are gated to the primary architecture; stage2 is not.
	cfg, tl, _, buildDir := testEnv(t, "x86_gcc2", "x86")
	cfg.PackagingArch = "x86"
	reg := registry.New(cfg)

	repo, err := BootstrapPackageRepository(reg, tl, "haikuports-cross", "x86", buildDir,
		Stage{ArchNames: []string{"gcc_bootstrap-8.3"}},
		Stage{ArchNames: []string{"icu_bootstrap-57.1"}},
		[]string{"bash-5.2"},
		nil, nil)
	require.NoError(t, err)

	require.Len(t, repo.Packages, 1)
	assert.Equal(t, "bash", reg.Record(repo.Packages[0]).BaseName)
}

func TestFetchRequiresCrossDevelDep(t *testing.T) {
	_, tl, rn, buildDir := testEnv(t)

	s := &Strategy{BuildDir: buildDir, tl: tl}
	rec := &models.PackageRecord{
		BaseName: "gcc_bootstrap",
		FileName: "gcc_bootstrap-8.3-x86_gcc2.hpkg",
	}

	_, err := s.Fetch(context.Background(), rec)
	var ferr *models.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, models.ErrMissingCrossDevel, ferr.Kind)
	assert.Empty(t, rn.calls, "no process may be spawned without cross-devel deps")
}

func TestFetchBuildsAndReturnsArtifact(t *testing.T) {
	_, tl, rn, buildDir := testEnv(t)

	s := &Strategy{BuildDir: buildDir, tl: tl}
	rec := &models.PackageRecord{
		BaseName:       "gcc_bootstrap",
		FileName:       "gcc_bootstrap-8.3-x86_gcc2.hpkg",
		CrossDevelDeps: []string{"haiku_cross_devel_sysroot_stage0_x86_gcc2.hpkg"},
	}
	dest := filepath.Join(buildDir, "packages", rec.FileName)
	rn.produce = []string{dest}

	path, err := s.Fetch(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, dest, path)

	require.Len(t, rn.calls, 1)
	call := rn.calls[0]
	assert.Equal(t, "haikuporter", call[0])
	assert.Equal(t, "-j4", call[1])
	assert.Equal(t, filepath.Join(buildDir, "packages", rec.CrossDevelDeps[0]), call[2])
	assert.Equal(t, "gcc_bootstrap-8.3-x86_gcc2", call[len(call)-1])
	assert.Equal(t, buildDir, rn.dirs[0], "builder must run in the build directory")
}

func TestFetchSecondaryCrossDevelFlags(t *testing.T) {
	_, tl, rn, buildDir := testEnv(t, "x86_gcc2", "x86")

	s := &Strategy{BuildDir: buildDir, tl: tl}
	rec := &models.PackageRecord{
		BaseName: "icu_bootstrap",
		FileName: "icu_bootstrap-57.1-x86_gcc2.hpkg",
		CrossDevelDeps: []string{
			"haiku_cross_devel_sysroot_stage1_x86_gcc2.hpkg",
			"haiku_cross_devel_sysroot_stage1_x86_gcc2_x86.hpkg",
		},
	}
	rn.produce = []string{filepath.Join(buildDir, "packages", rec.FileName)}

	_, err := s.Fetch(context.Background(), rec)
	require.NoError(t, err)

	call := rn.calls[0]
	assert.Contains(t, call, "--secondary-cross-devel-package="+
		filepath.Join(buildDir, "packages", rec.CrossDevelDeps[1]))
}

func TestFetchIdempotent(t *testing.T) {
	_, tl, rn, buildDir := testEnv(t)

	s := &Strategy{BuildDir: buildDir, tl: tl}
	rec := &models.PackageRecord{
		BaseName:       "gcc_bootstrap",
		FileName:       "gcc_bootstrap-8.3-x86_gcc2.hpkg",
		CrossDevelDeps: []string{"haiku_cross_devel_sysroot_stage0_x86_gcc2.hpkg"},
	}
	dest := filepath.Join(buildDir, "packages", rec.FileName)
	require.NoError(t, utils.WriteFile(dest, []byte("built"), 0644))

	path, err := s.Fetch(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, dest, path)
	assert.Empty(t, rn.calls, "existing artifact must not trigger a rebuild")
}

func TestFetchBuiltButMissing(t *testing.T) {
	_, tl, rn, buildDir := testEnv(t)

	s := &Strategy{BuildDir: buildDir, tl: tl}
	rec := &models.PackageRecord{
		BaseName:       "gcc_bootstrap",
		FileName:       "gcc_bootstrap-8.3-x86_gcc2.hpkg",
		CrossDevelDeps: []string{"haiku_cross_devel_sysroot_stage0_x86_gcc2.hpkg"},
	}
	// The builder runs but produces nothing.
	rn.produce = nil

	_, err := s.Fetch(context.Background(), rec)
	var ferr *models.FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, models.ErrBuildNoArtifact, ferr.Kind)
	require.Len(t, rn.calls, 1)
}

func TestHaikuPortsConf(t *testing.T) {
	cfg, tl, _, buildDir := testEnv(t, "x86_gcc2", "x86")
	cfg.SecondaryCrossTools = []string{"/cross-tools-x86"}
	reg := registry.New(cfg)

	_, err := BootstrapPackageRepository(reg, tl, "haikuports-cross", "x86_gcc2", buildDir,
		Stage{}, Stage{}, nil, nil, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(buildDir, "haikuports.conf"))
	require.NoError(t, err)
	conf := string(data)

	assert.Contains(t, conf, "PACKAGER=\"Test Builder <test@example.com>\"\n")
	assert.Contains(t, conf, "TREE_PATH=\"/src/haikuports\"\n")
	assert.Contains(t, conf, "TARGET_ARCHITECTURE=\"x86_gcc2\"\n")
	assert.Contains(t, conf, "SECONDARY_TARGET_ARCHITECTURES=\"\n  x86\n\"\n")
	assert.Contains(t, conf, "SECONDARY_CROSS_TOOLS=\"\n  /cross-tools-x86\n\"\n")
}

func TestHaikuPortsConfSingleArch(t *testing.T) {
	cfg, tl, _, buildDir := testEnv(t)
	reg := registry.New(cfg)

	_, err := BootstrapPackageRepository(reg, tl, "haikuports-cross", "x86_gcc2", buildDir,
		Stage{}, Stage{}, nil, nil, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(buildDir, "haikuports.conf"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "SECONDARY_TARGET_ARCHITECTURES")

	// The packages directory is prepared for the first build.
	assert.DirExists(t, filepath.Join(buildDir, "packages"))
}
