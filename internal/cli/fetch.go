package cli

import (
	"context"
	"fmt"

	"github.com/hbuild/hpkgrepo/internal/buildcfg"
	"github.com/hbuild/hpkgrepo/internal/fetch"
	"github.com/hbuild/hpkgrepo/internal/registry"
	"github.com/hbuild/hpkgrepo/internal/repository/bootstrap"
	"github.com/hbuild/hpkgrepo/internal/repository/remote"
	"github.com/hbuild/hpkgrepo/internal/tools"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// repoFlags holds the registration inputs shared by the fetch and resolve
// commands.
type repoFlags struct {
	repoName      string
	baseURL       string
	buildDir      string
	anyNames      []string
	archNames     []string
	sourceFlagged []string
	debugFlagged  []string
}

func (f *repoFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.repoName, "repo", "haikuports", "Repository name")
	cmd.Flags().StringVar(&f.baseURL, "url", "", "Base URL of the remote repository")
	cmd.Flags().StringVar(&f.buildDir, "build-dir", "", "Bootstrap build directory (selects the bootstrap strategy)")
	cmd.Flags().StringSliceVar(&f.anyNames, "any", nil, "Packages registered under the any pseudo-architecture")
	cmd.Flags().StringSliceVar(&f.archNames, "pkg", nil, "Packages registered under the packaging architecture")
	cmd.Flags().StringSliceVar(&f.sourceFlagged, "with-source", nil, "Bases that also get a _source companion")
	cmd.Flags().StringSliceVar(&f.debugFlagged, "with-debuginfo", nil, "Bases that also get a _debuginfo companion")
}

// bindConfigFlags overlays CLI flags on the environment-derived config.
func bindConfigFlags(cmd *cobra.Command, cfg *buildcfg.Config) {
	cmd.Flags().StringVar(&cfg.PackagingArch, "arch", cfg.PackagingArch, "Current packaging architecture")
	cmd.Flags().StringSliceVar(&cfg.PackagingArchs, "archs", cfg.PackagingArchs, "All packaging architectures, primary first")
	cmd.Flags().StringVar(&cfg.DownloadDir, "download-dir", cfg.DownloadDir, "Directory for downloaded artifacts")
	cmd.Flags().StringVar(&cfg.OutDir, "out-dir", cfg.OutDir, "Directory for generated repository files")
	cmd.Flags().BoolVar(&cfg.NoDownloads, "no-downloads", cfg.NoDownloads, "Exclude packages that are not already downloaded")
	cmd.Flags().BoolVar(&cfg.FetchDisabled, "fetch-disabled", cfg.FetchDisabled, "Fail instead of fetching missing artifacts")
	cmd.Flags().BoolVar(&cfg.IsBootstrap, "bootstrap", cfg.IsBootstrap, "Bootstrap build")
}

// setupRepository registers the flag-described repository and returns the
// populated registry.
func setupRepository(ctx context.Context, cfg *buildcfg.Config, f *repoFlags) (*registry.Registry, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := registry.New(cfg)
	tl := tools.New(cfg)

	if f.buildDir != "" {
		_, err := bootstrap.BootstrapPackageRepository(reg, tl, f.repoName, cfg.PackagingArch, f.buildDir,
			bootstrap.Stage{AnyNames: f.anyNames, ArchNames: f.archNames},
			bootstrap.Stage{}, nil,
			f.sourceFlagged, f.debugFlagged)
		return reg, err
	}

	if f.baseURL == "" {
		return nil, fmt.Errorf("either --url or --build-dir is required")
	}
	_, err := remote.RemotePackageRepository(ctx, reg, tl, f.repoName, cfg.PackagingArch, f.baseURL,
		f.anyNames, f.archNames, f.sourceFlagged, f.debugFlagged)
	return reg, err
}

// NewFetchCmd creates the fetch command
func NewFetchCmd() *cobra.Command {
	var flags repoFlags
	cfg, err := buildcfg.Load()
	if err != nil {
		logrus.Warnf("Ignoring environment configuration: %v", err)
		cfg = &buildcfg.Config{}
	}

	cmd := &cobra.Command{
		Use:   "fetch [packages...]",
		Short: "Register a repository and fetch the named packages",
		Long: `Registers the repository described by the flags, resolves each named
package and materializes its artifact (download or local cross-build),
printing the resulting file paths.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := setupRepository(cmd.Context(), cfg, &flags)
			if err != nil {
				return err
			}

			for _, name := range args {
				path, err := fetch.FetchPackage(cmd.Context(), reg, cfg, name, 0)
				if err != nil {
					return err
				}
				logrus.Infof("Fetched %s", name)
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	flags.register(cmd)
	bindConfigFlags(cmd, cfg)
	return cmd
}

// NewResolveCmd creates the resolve command
func NewResolveCmd() *cobra.Command {
	var flags repoFlags
	cfg, err := buildcfg.Load()
	if err != nil {
		logrus.Warnf("Ignoring environment configuration: %v", err)
		cfg = &buildcfg.Config{}
	}

	cmd := &cobra.Command{
		Use:   "resolve [packages...]",
		Short: "Answer whether the named packages are available",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := setupRepository(cmd.Context(), cfg, &flags)
			if err != nil {
				return err
			}

			unavailable := 0
			for _, name := range args {
				if resolved := fetch.IsPackageAvailable(reg, cfg, name, 0); resolved != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", name, resolved)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s -> unavailable\n", name)
					unavailable++
				}
			}
			if unavailable > 0 {
				return fmt.Errorf("%d package(s) unavailable", unavailable)
			}
			return nil
		},
	}

	flags.register(cmd)
	bindConfigFlags(cmd, cfg)
	return cmd
}
