package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/spacetraveling/internal/site"
)

var buildOut string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render the whole site into a directory",
	RunE:  buildAction,
}

func init() {
	buildCmd.Flags().StringVar(&buildOut, "out", "", "output directory (default: site.output_dir)")
}

func buildAction(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	tmpl, err := site.LoadTemplates(a.cfg.Site.TemplatesDir)
	if err != nil {
		return err
	}

	out := a.cfg.Site.OutputDir
	if buildOut != "" {
		out = buildOut
	}

	res, err := a.site.Build(cmd.Context(), tmpl, out)
	if err != nil {
		return err
	}
	fmt.Printf("Built %d posts (%d listing pages, %d files) into %s\n", res.Posts, res.Pages, len(res.Files), out)
	return nil
}
