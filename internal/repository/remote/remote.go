// Package remote implements the download-backed repository strategy:
// packages are fetched from a base URL into the local download directory,
// and the repository's generated artifacts (package list, config, cache)
// are materialized once per repository.
package remote

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hbuild/hpkgrepo/internal/buildcfg"
	"github.com/hbuild/hpkgrepo/internal/models"
	"github.com/hbuild/hpkgrepo/internal/registry"
	"github.com/hbuild/hpkgrepo/internal/tools"
	"github.com/hbuild/hpkgrepo/internal/utils"
	"github.com/sirupsen/logrus"
)

// Strategy fetches packages over HTTP. Family keys are identical to base
// names; remote repositories do no renaming.
type Strategy struct {
	BaseURL      string
	ChecksumFile string

	cfg *buildcfg.Config
	tl  *tools.Tools
}

// FamilyOf is the identity mapping for remote repositories.
func (s *Strategy) FamilyOf(base string) models.FamilyKey {
	return models.FamilyKey(base)
}

// LocalPath returns the artifact's place in the download directory.
func (s *Strategy) LocalPath(rec *models.PackageRecord) string {
	return filepath.Join(s.cfg.DownloadDir, rec.FileName)
}

// Fetch downloads the record's artifact unless it is already present.
func (s *Strategy) Fetch(ctx context.Context, rec *models.PackageRecord) (string, error) {
	dest := s.LocalPath(rec)
	if utils.FileExists(dest) {
		logrus.Debugf("%s already downloaded", rec.FileName)
		return dest, nil
	}

	if err := s.tl.Downloader.Download(ctx, s.packageURL(rec.FileName), dest); err != nil {
		return "", &models.FetchError{Kind: models.ErrExternalTool, Package: rec.BaseName, Err: err}
	}
	return dest, nil
}

// packageURL builds the download URL for an artifact. A non-empty checksum
// file pins the repository state as a path component.
func (s *Strategy) packageURL(fileName string) string {
	if checksum := utils.ReadChecksumFile(s.ChecksumFile); checksum != "" {
		return fmt.Sprintf("%s/%s/packages/%s", s.BaseURL, checksum, fileName)
	}
	return fmt.Sprintf("%s/packages/%s", s.BaseURL, fileName)
}

// cacheURL is where the repository's own cache file lives.
func (s *Strategy) cacheURL() string {
	if checksum := utils.ReadChecksumFile(s.ChecksumFile); checksum != "" {
		return fmt.Sprintf("%s/%s/repo", s.BaseURL, checksum)
	}
	return s.BaseURL + "/repo"
}

// RemotePackageRepository creates a remote repository, registers its
// packages (anyNames under the "any" pseudo-architecture, archNames under
// arch, gated to the primary packaging architecture) and materializes the
// per-repository artifacts: package list (plus gzip sidecar), repository
// config and repository cache.
func RemotePackageRepository(ctx context.Context, reg *registry.Registry, tl *tools.Tools,
	name, arch, baseURL string, anyNames, archNames, sourceFlagged, debugFlagged []string) (*models.Repository, error) {

	cfg := tl.Config
	repoDir := filepath.Join(cfg.OutDir, "repositories", name)

	strategy := &Strategy{
		BaseURL:      baseURL,
		ChecksumFile: filepath.Join(repoDir, "checksum"),
		cfg:          cfg,
		tl:           tl,
	}
	repo := &models.Repository{Name: models.RepositoryID(name), Strategy: strategy}

	logrus.Infof("Registering remote repository %s (%s)", name, baseURL)
	reg.PackageRepository(repo, arch, anyNames, archNames, sourceFlagged, debugFlagged)

	if err := writePackageList(reg, repo, repoDir); err != nil {
		return nil, err
	}

	infoPath := filepath.Join(repoDir, "repo-info")
	if err := writeRepoInfo(infoPath, name, baseURL, cfg.PackagingArch); err != nil {
		return nil, err
	}

	configPath := filepath.Join(repoDir, "repo.config")
	if err := tl.CreateRepositoryConfig(ctx, infoPath, strategy.ChecksumFile, configPath); err != nil {
		return nil, &models.FetchError{Kind: models.ErrExternalTool, Package: name, Err: err}
	}

	if err := materializeCache(ctx, reg, tl, repo, strategy, repoDir, infoPath); err != nil {
		return nil, err
	}

	return repo, nil
}

// writePackageList writes the sorted, de-duplicated newline-separated list
// of the repository's artifact names, with a gzip sidecar.
func writePackageList(reg *registry.Registry, repo *models.Repository, repoDir string) error {
	seen := make(map[string]bool)
	var names []string
	for _, id := range repo.Packages {
		fileName := reg.Record(id).FileName
		if !seen[fileName] {
			seen[fileName] = true
			names = append(names, fileName)
		}
	}
	sort.Strings(names)

	var data []byte
	if len(names) > 0 {
		data = []byte(strings.Join(names, "\n") + "\n")
	}

	listPath := filepath.Join(repoDir, "package-list")
	if err := utils.WriteFile(listPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write package list: %w", err)
	}

	compressed, err := utils.GzipCompress(data)
	if err != nil {
		return err
	}
	return utils.WriteFile(listPath+".gz", compressed, 0644)
}

// writeRepoInfo emits the repository-info file consumed by the config and
// cache generator tools.
func writeRepoInfo(path, name, url, arch string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "name %s\n", name)
	fmt.Fprintf(&b, "url %s\n", url)
	fmt.Fprintf(&b, "architecture %s\n", arch)
	return utils.WriteFile(path, []byte(b.String()), 0644)
}

// materializeCache obtains the repository cache: downloaded from the remote
// repository, or, when downloads are disabled, synthesized locally from the
// artifacts already present in the download directory.
func materializeCache(ctx context.Context, reg *registry.Registry, tl *tools.Tools,
	repo *models.Repository, strategy *Strategy, repoDir, infoPath string) error {

	cachePath := filepath.Join(repoDir, "repo.cache")

	if !tl.Config.NoDownloads {
		if err := tl.Downloader.Download(ctx, strategy.cacheURL(), cachePath); err != nil {
			return &models.FetchError{Kind: models.ErrExternalTool, Package: string(repo.Name), Err: err}
		}
		return nil
	}

	logrus.Infof("Synthesizing cache for %s from downloaded packages", repo.Name)
	var local []string
	for _, id := range repo.Packages {
		path := strategy.LocalPath(reg.Record(id))
		if utils.FileExists(path) {
			local = append(local, path)
		}
	}
	sort.Strings(local)

	if err := tl.CreateRepositoryCache(ctx, repoDir, infoPath, cachePath, local...); err != nil {
		return &models.FetchError{Kind: models.ErrExternalTool, Package: string(repo.Name), Err: err}
	}
	return nil
}
