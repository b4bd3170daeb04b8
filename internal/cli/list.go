package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/spacetraveling/internal/output"
)

var (
	listFormat string
	listAll    bool
	noColor    bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the post listing",
	RunE:  listAction,
}

func init() {
	listCmd.Flags().StringVar(&listFormat, "format", "terminal", "output format: terminal, json, markdown")
	listCmd.Flags().BoolVar(&listAll, "all", false, "list every post instead of the first page")
	listCmd.Flags().BoolVar(&noColor, "no-color", false, "disable ANSI colors")
}

func listAction(cmd *cobra.Command, _ []string) error {
	formatter, err := output.ForName(listFormat, !noColor && isTerminal(os.Stdout))
	if err != nil {
		return err
	}
	a, err := loadApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	l := output.Listing{Title: a.cfg.Site.Title, BaseURL: a.site.Info().BaseURL}
	if listAll {
		if l.Posts, err = a.site.AllPosts(ctx); err != nil {
			return err
		}
	} else {
		home, err := a.site.HomeProps(ctx)
		if err != nil {
			return err
		}
		l.Posts, l.NextPage = home.Posts, home.NextPage
	}

	if err := formatter.Format(os.Stdout, l); err != nil {
		return fmt.Errorf("format listing: %w", err)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
