// Package buildcfg holds the build-wide configuration shared by
// registration, resolution and fetch. One Config is constructed per build
// invocation and passed by pointer; there is no process-wide state.
package buildcfg

import (
	"fmt"
	"runtime"

	"github.com/kelseyhightower/envconfig"

	"github.com/hbuild/hpkgrepo/internal/models"
)

// Config is the build configuration for the package repository layer.
// Values load from HPKG_* environment variables and may be overridden by
// CLI flags.
type Config struct {
	// PackagingArch is the architecture the current build targets. It may
	// be a secondary architecture of a multiarch build.
	PackagingArch string `envconfig:"HPKG_PACKAGING_ARCH" default:"x86_64"`

	// PackagingArchs lists all configured packaging architectures,
	// primary first. Defaults to just PackagingArch.
	PackagingArchs []string `envconfig:"HPKG_PACKAGING_ARCHS"`

	// IsBootstrap marks a bootstrap build: the no-download registration
	// filter does not apply, packages are cross-built locally.
	IsBootstrap bool `envconfig:"HPKG_BOOTSTRAP"`

	// NoDownloads excludes remote packages whose artifact is not already
	// in DownloadDir at registration time.
	NoDownloads bool `envconfig:"HPKG_NO_DOWNLOADS"`

	// FetchDisabled makes FetchPackage fail for any artifact that is not
	// already materialized on disk.
	FetchDisabled bool `envconfig:"HPKG_FETCH_DISABLED"`

	DownloadDir string `envconfig:"HPKG_DOWNLOAD_DIR" default:"download"`
	OutDir      string `envconfig:"HPKG_OUT_DIR" default:"generated"`

	// Packager and TreePath go into generated haikuports.conf files.
	Packager string `envconfig:"HPKG_PACKAGER" default:"Builder <builder@localhost>"`
	TreePath string `envconfig:"HPKG_TREE_PATH"`

	// Jobs is the concurrency level handed to the port builder.
	// Zero means one job per CPU.
	Jobs int `envconfig:"HPKG_JOBS"`

	// SecondaryCrossTools are the cross-tools paths matching
	// PackagingArchs[1:], in order.
	SecondaryCrossTools []string `envconfig:"HPKG_SECONDARY_CROSS_TOOLS"`

	// PortsExtraOptions are extra arguments appended to every port
	// builder invocation.
	PortsExtraOptions []string `envconfig:"HPKG_PORTS_EXTRA_OPTIONS"`

	// External tool names, resolved through PATH unless absolute.
	PortsTool      string `envconfig:"HPKG_PORTS_TOOL" default:"haikuporter"`
	RepoConfigTool string `envconfig:"HPKG_REPO_CONFIG_TOOL" default:"create_repository_config"`
	RepoCacheTool  string `envconfig:"HPKG_REPO_CACHE_TOOL" default:"package_repo"`
}

// Load reads the configuration from the environment. Callers overlay CLI
// flags, then ApplyDefaults and Validate.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load build config: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills the derived defaults that envconfig cannot express.
func (c *Config) ApplyDefaults() {
	if len(c.PackagingArchs) == 0 {
		c.PackagingArchs = []string{c.PackagingArch}
	}
	if c.Jobs <= 0 {
		c.Jobs = runtime.NumCPU()
	}
}

// Validate checks internal consistency.
func (c *Config) Validate() error {
	if c.PackagingArch == "" {
		return invalidConfig(fmt.Errorf("packaging architecture is required"))
	}
	if len(c.PackagingArchs) == 0 {
		return invalidConfig(fmt.Errorf("at least one packaging architecture is required"))
	}
	found := false
	for _, a := range c.PackagingArchs {
		if a == c.PackagingArch {
			found = true
			break
		}
	}
	if !found {
		return invalidConfig(fmt.Errorf("packaging architecture %q is not among configured architectures %v",
			c.PackagingArch, c.PackagingArchs))
	}
	if len(c.SecondaryCrossTools) > 0 && len(c.SecondaryCrossTools) != len(c.PackagingArchs)-1 {
		return invalidConfig(fmt.Errorf("got %d secondary cross-tools paths for %d secondary architectures",
			len(c.SecondaryCrossTools), len(c.PackagingArchs)-1))
	}
	return nil
}

func invalidConfig(err error) error {
	return &models.FetchError{Kind: models.ErrInvalidConfig, Err: err}
}

// PrimaryArch returns the primary packaging architecture.
func (c *Config) PrimaryArch() string {
	return c.PackagingArchs[0]
}

// SecondaryArchs returns the secondary packaging architectures, in
// configured order.
func (c *Config) SecondaryArchs() []string {
	return c.PackagingArchs[1:]
}

// IsSecondaryArch reports whether the current build targets a secondary
// architecture.
func (c *Config) IsSecondaryArch() bool {
	return c.PackagingArch != c.PrimaryArch()
}
