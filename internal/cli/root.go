package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hpkgrepo",
		Short: "Resolve and fetch hpkg packages for an OS build",
		Long: `Hpkgrepo is the package-repository layer of the build pipeline: it
registers the external packages a build may use, resolves names across
packaging architectures and materializes artifacts either by downloading
them from a remote repository or by cross-building them locally.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	rootCmd.AddCommand(NewFetchCmd())
	rootCmd.AddCommand(NewResolveCmd())
	rootCmd.AddCommand(NewMkrepoCmd())

	return rootCmd
}
