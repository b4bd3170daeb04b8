package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/spacetraveling/internal/config"
	"github.com/ppiankov/spacetraveling/internal/logging"
	"github.com/ppiankov/spacetraveling/internal/post"
	"github.com/ppiankov/spacetraveling/internal/site"
)

const doctorTimeout = 15 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check config, templates and CMS reachability",
	RunE:  doctorAction,
}

func doctorAction(cmd *cobra.Command, _ []string) error {
	ok := true

	// Config dir
	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printCheck(false, "config directory %s", configDir)
		ok = false
	} else {
		printCheck(true, "config directory %s", configDir)
	}

	// Config file
	cfg, err := config.Load(configDir)
	if err != nil {
		printCheck(false, "config.yaml: %v", err)
		return fmt.Errorf("some checks failed")
	}
	printCheck(true, "config.yaml (type %q, page size %d, revalidate %s)",
		cfg.CMS.DocumentType, cfg.CMS.PageSize, cfg.Render.Revalidate.Duration)

	// Access token
	if cfg.CMS.AccessTokenEnv != "" {
		if cfg.CMS.AccessToken == "" {
			printCheck(false, "access token: $%s is not set", cfg.CMS.AccessTokenEnv)
			ok = false
		} else {
			printCheck(true, "access token from $%s", cfg.CMS.AccessTokenEnv)
		}
	} else {
		printInfo("no access token configured (public repository)")
	}

	// Locale
	if dates, err := post.NewDateFormatter(cfg.Site.Locale); err != nil {
		printCheck(false, "locale: %v", err)
		ok = false
	} else {
		printCheck(true, "locale %s (dates like %q)", dates.Locale(), mustFormat(dates, "2021-03-19T19:25:28+0000"))
	}

	// Templates
	if _, err := site.LoadTemplates(cfg.Site.TemplatesDir); err != nil {
		printCheck(false, "templates: %v", err)
		ok = false
	} else if cfg.Site.TemplatesDir != "" {
		printCheck(true, "templates (embedded, overridden from %s)", cfg.Site.TemplatesDir)
	} else {
		printCheck(true, "templates (embedded)")
	}

	// CMS
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, doctorTimeout)
	defer cancel()

	client, err := newClient(cfg, logging.Discard())
	if err != nil {
		printCheck(false, "%v", err)
		ok = false
	} else if ref, err := client.MasterRef(ctx); err != nil {
		printCheck(false, "cms %s: %v", client.Endpoint(), err)
		ok = false
	} else {
		printCheck(true, "cms %s (master ref %s)", client.Endpoint(), ref)
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

func mustFormat(dates *post.DateFormatter, raw string) string {
	s, err := dates.Format(raw)
	if err != nil {
		return err.Error()
	}
	return s
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("[INFO] %s\n", fmt.Sprintf(format, args...))
}
