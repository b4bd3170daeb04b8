package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/spacetraveling/internal/site"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve pages over HTTP, regenerating them after the revalidation period",
	RunE:  serveAction,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload templates from site.templates_dir on change")
}

func serveAction(cmd *cobra.Command, _ []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	tmpl, err := site.LoadTemplates(a.cfg.Site.TemplatesDir)
	if err != nil {
		return err
	}

	addr := a.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := site.NewServer(a.site, tmpl, site.ServerOptions{
		CacheSize:  a.cfg.Render.CacheSize,
		Revalidate: a.cfg.Render.Revalidate.Duration,
		Logger:     a.logger,
	})

	if serveWatch {
		go func() {
			if err := tmpl.Watch(ctx, a.logger, srv.Invalidate); err != nil {
				a.logger.Error("template watch stopped", "error", err)
			}
		}()
	}

	a.logger.Info("serving", "addr", addr, "endpoint", a.client.Endpoint(), "revalidate", a.cfg.Render.Revalidate.Duration)
	return srv.ListenAndServe(ctx, addr)
}
