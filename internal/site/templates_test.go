package site

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"
)

func TestLoadTemplates_Embedded(t *testing.T) {
	tmpl := mustTemplates(t)
	var buf bytes.Buffer
	if err := tmpl.Render(&buf, HomeTemplate, HomePage{Site: Info{Title: "spacetraveling"}, Labels: labels[language.BrazilianPortuguese]}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "Nenhum post publicado.") {
		t.Errorf("empty listing message missing:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), `class="load-more"`) {
		t.Error("load more rendered without a next page")
	}
}

func TestLoadTemplates_Override(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "home.html"), []byte(`custom {{.Site.Title}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	tmpl, err := LoadTemplates(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Render(&buf, HomeTemplate, HomePage{Site: Info{Title: "blog"}}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "custom blog" {
		t.Errorf("home = %q", buf.String())
	}

	// post.html still comes from the embedded set.
	buf.Reset()
	if err := tmpl.Render(&buf, PostTemplate, PostPage{Site: Info{Title: "blog"}}); err != nil {
		t.Fatalf("render post: %v", err)
	}
	if !strings.Contains(buf.String(), "<article") {
		t.Error("embedded post template not used")
	}
}

func TestLoadTemplates_Errors(t *testing.T) {
	if _, err := LoadTemplates(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing dir")
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "home.html"), []byte(`{{.Broken`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTemplates(dir); err == nil {
		t.Error("expected parse error")
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	var buf bytes.Buffer
	if err := mustTemplates(t).Render(&buf, "nope.html", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestWatch_NoDir(t *testing.T) {
	if err := mustTemplates(t).Watch(context.Background(), discard, nil); err == nil {
		t.Error("expected error without templates dir")
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "home.html")
	if err := os.WriteFile(path, []byte(`v1`), 0o644); err != nil {
		t.Fatal(err)
	}
	tmpl, err := LoadTemplates(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- tmpl.Watch(ctx, discard, func() {
			select {
			case reloaded <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`v2`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("templates not reloaded")
	}

	var buf bytes.Buffer
	if err := tmpl.Render(&buf, HomeTemplate, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "v2" {
		t.Errorf("home = %q, want v2", buf.String())
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("watch: %v", err)
	}
}
