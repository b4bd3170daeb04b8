package site

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ppiankov/spacetraveling/internal/output"
)

//go:embed templates/*.html
var embedded embed.FS

// Template names.
const (
	HomeTemplate = "home.html"
	PostTemplate = "post.html"
)

const reloadDebounce = 200 * time.Millisecond

var funcs = template.FuncMap{
	"postPath": output.PostPath,
}

// Templates is the page template set. Files in an optional directory
// override the embedded defaults by name.
type Templates struct {
	dir string

	mu  sync.RWMutex
	set *template.Template
}

// LoadTemplates parses the embedded templates and, if dir is set, the
// *.html files in dir on top of them.
func LoadTemplates(dir string) (*Templates, error) {
	t := &Templates{dir: dir}
	if err := t.Reload(); err != nil {
		return nil, err
	}
	return t, nil
}

// Dir returns the override directory, empty when only embedded templates are used.
func (t *Templates) Dir() string {
	return t.dir
}

// Reload re-parses the template set. On error the previous set is kept.
func (t *Templates) Reload() error {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}
	set, err := template.New("site").Funcs(funcs).ParseFS(sub, "*.html")
	if err != nil {
		return fmt.Errorf("parse embedded templates: %w", err)
	}

	if t.dir != "" {
		info, err := os.Stat(t.dir)
		if err != nil {
			return fmt.Errorf("templates dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("templates dir %s: not a directory", t.dir)
		}
		matches, err := filepath.Glob(filepath.Join(t.dir, "*.html"))
		if err != nil {
			return fmt.Errorf("templates dir: %w", err)
		}
		if len(matches) > 0 {
			if set, err = set.ParseFiles(matches...); err != nil {
				return fmt.Errorf("parse templates in %s: %w", t.dir, err)
			}
		}
	}

	for _, name := range []string{HomeTemplate, PostTemplate} {
		if set.Lookup(name) == nil {
			return fmt.Errorf("templates: %s missing", name)
		}
	}

	t.mu.Lock()
	t.set = set
	t.mu.Unlock()
	return nil
}

// Render executes the named template.
func (t *Templates) Render(w io.Writer, name string, data any) error {
	t.mu.RLock()
	set := t.set
	t.mu.RUnlock()
	if err := set.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// Watch reloads the templates when files in the override directory change,
// calling onReload after each successful reload. It blocks until ctx is done.
func (t *Templates) Watch(ctx context.Context, logger *slog.Logger, onReload func()) error {
	if t.dir == "" {
		return errors.New("watch templates: no templates dir configured")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch templates: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(t.dir); err != nil {
		return fmt.Errorf("watch templates %s: %w", t.dir, err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	reload := func() {
		if err := t.Reload(); err != nil {
			logger.Error("template reload failed", "dir", t.dir, "error", err)
			return
		}
		logger.Info("templates reloaded", "dir", t.dir)
		if onReload != nil {
			onReload()
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".html") {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("template change", "file", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("template watcher error", "error", err)
		}
	}
}
