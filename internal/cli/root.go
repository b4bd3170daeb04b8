// Package cli provides the command-line interface for spacetraveling.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/spacetraveling/internal/config"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:           "spacetraveling",
	Short:         "Render a blog from a headless CMS",
	Long:          "spacetraveling fetches posts from a Prismic repository and renders a listing page with \"load more\" pagination and one page per post, either as a static site or from a caching HTTP server.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("spacetraveling %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", config.DefaultConfigDir, "config directory")
	rootCmd.AddCommand(versionCmd, initCmd, doctorCmd, buildCmd, serveCmd, pathsCmd, listCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
