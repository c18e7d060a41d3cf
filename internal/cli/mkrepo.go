package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hbuild/hpkgrepo/internal/buildcfg"
	"github.com/hbuild/hpkgrepo/internal/fetch"
	"github.com/hbuild/hpkgrepo/internal/models"
	"github.com/hbuild/hpkgrepo/internal/tools"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewMkrepoCmd creates the mkrepo command
func NewMkrepoCmd() *cobra.Command {
	var repoName string
	cfg, err := buildcfg.Load()
	if err != nil {
		logrus.Warnf("Ignoring environment configuration: %v", err)
		cfg = &buildcfg.Config{}
	}

	cmd := &cobra.Command{
		Use:   "mkrepo [package files or directories...]",
		Short: "Assemble a repository cache from built packages",
		Long: `Collects the given package files (directories are searched for hpkg
artifacts) and assembles a complete repository cache from them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.ApplyDefaults()
			if err := cfg.Validate(); err != nil {
				return err
			}

			files, err := collectPackageFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no package files found")
			}

			path, err := fetch.HaikuRepository(cmd.Context(), tools.New(cfg), repoName, files)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoName, "repo", "haiku", "Repository name")
	bindConfigFlags(cmd, cfg)
	return cmd
}

// collectPackageFiles expands directory arguments into the artifact files
// they contain, keeping file arguments as-is.
func collectPackageFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && strings.HasSuffix(path, models.ArtifactSuffix) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
