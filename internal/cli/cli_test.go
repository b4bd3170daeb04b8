package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/ppiankov/spacetraveling/internal/cms"
	"github.com/ppiankov/spacetraveling/internal/cms/cmstest"
	"github.com/ppiankov/spacetraveling/internal/config"
	"github.com/ppiankov/spacetraveling/internal/output"
)

func testPosts() []cms.Document {
	return []cms.Document{
		cmstest.Post("como-utilizar-hooks", "Como utilizar Hooks", "2021-03-15T19:25:28+0000"),
		cmstest.Post("criando-um-app-cra-do-zero", "Criando um app CRA do zero", "2021-03-25T19:27:35+0000"),
		cmstest.Post("mapas-com-react", "Mapas com React", "2021-03-19T10:00:00+0000"),
	}
}

// setupConfig points configDir at a fresh config for endpoint and restores
// the package flags afterwards.
func setupConfig(t *testing.T, endpoint, extra string) string {
	t.Helper()
	dir := t.TempDir()
	content := `cms:
  endpoint: ` + endpoint + `
  page_size: 2
  rate_limit: 1ms
log:
  level: none
` + extra
	if err := os.WriteFile(filepath.Join(dir, config.DefaultConfigFile), []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	oldConfigDir, oldBuildOut := configDir, buildOut
	oldListFormat, oldListAll, oldNoColor := listFormat, listAll, noColor
	t.Cleanup(func() {
		configDir, buildOut = oldConfigDir, oldBuildOut
		listFormat, listAll, noColor = oldListFormat, oldListAll, oldNoColor
	})
	configDir = dir
	noColor = true
	return dir
}

func testCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func TestBuildAction(t *testing.T) {
	srv := cmstest.New(t, testPosts()...)
	dir := setupConfig(t, srv.Endpoint(), "")
	buildOut = filepath.Join(dir, "out")

	out, err := captureStdout(t, func() error {
		return buildAction(testCmd(), nil)
	})
	if err != nil {
		t.Fatalf("build action: %v", err)
	}
	requireContains(t, out, "Built 3 posts (2 listing pages, 6 files)")

	for _, name := range []string{
		"index.html",
		filepath.Join("api", "posts", "2.json"),
		filepath.Join("post", "mapas-com-react", "index.html"),
	} {
		if _, err := os.Stat(filepath.Join(buildOut, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestBuildAction_DefaultOutputDir(t *testing.T) {
	srv := cmstest.New(t, testPosts()...)
	setupConfig(t, srv.Endpoint(), "site:\n  output_dir: "+filepath.Join(t.TempDir(), "public")+"\n")
	buildOut = ""

	out, err := captureStdout(t, func() error {
		return buildAction(testCmd(), nil)
	})
	if err != nil {
		t.Fatalf("build action: %v", err)
	}
	requireContains(t, out, "public")
}

func TestBuildAction_BadConfig(t *testing.T) {
	setupConfig(t, "ftp://nowhere", "")
	if err := buildAction(testCmd(), nil); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestPathsAction(t *testing.T) {
	srv := cmstest.New(t, testPosts()...)
	setupConfig(t, srv.Endpoint(), "")

	out, err := captureStdout(t, func() error {
		return pathsAction(testCmd(), nil)
	})
	if err != nil {
		t.Fatalf("paths action: %v", err)
	}
	want := "/post/criando-um-app-cra-do-zero\n/post/mapas-com-react\n/post/como-utilizar-hooks\n"
	if out != want {
		t.Errorf("paths = %q, want %q", out, want)
	}
}

func TestListAction_JSON(t *testing.T) {
	srv := cmstest.New(t, testPosts()...)
	setupConfig(t, srv.Endpoint(), "")
	listFormat = "json"
	listAll = false

	out, err := captureStdout(t, func() error {
		return listAction(testCmd(), nil)
	})
	if err != nil {
		t.Fatalf("list action: %v", err)
	}
	var page output.Page
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(page.Results) != 2 || page.Results[0].FormattedDate != "25 mar 2021" {
		t.Errorf("results = %+v", page.Results)
	}
	if page.NextPage == nil {
		t.Error("expected next_page on a partial listing")
	}
}

func TestListAction_AllMarkdown(t *testing.T) {
	srv := cmstest.New(t, testPosts()...)
	setupConfig(t, srv.Endpoint(), "site:\n  locale: en\n")
	listFormat = "markdown"
	listAll = true

	out, err := captureStdout(t, func() error {
		return listAction(testCmd(), nil)
	})
	if err != nil {
		t.Fatalf("list action: %v", err)
	}
	requireContains(t, out, "## [Criando um app CRA do zero](/post/criando-um-app-cra-do-zero)")
	requireContains(t, out, "## [Como utilizar Hooks](/post/como-utilizar-hooks)")
	requireContains(t, out, "*19 Mar 2021 · Joseph Oliveira*")
	if strings.Contains(out, "Load more") {
		t.Error("full listing should not offer more posts")
	}
}

func TestListAction_UnknownFormat(t *testing.T) {
	setupConfig(t, "https://repo.example.com/api/v2", "")
	listFormat = "xml"
	if err := listAction(testCmd(), nil); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestInitAction(t *testing.T) {
	oldConfigDir := configDir
	t.Cleanup(func() { configDir = oldConfigDir })
	configDir = filepath.Join(t.TempDir(), ".spacetraveling")

	out, err := captureStdout(t, func() error {
		return initAction(nil, nil)
	})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	requireContains(t, out, "created:")
	requireContains(t, out, "Initialized")

	data, err := os.ReadFile(filepath.Join(configDir, config.DefaultConfigFile))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "revalidate: 30m") {
		t.Error("example config lacks the revalidation period")
	}
	if _, err := config.Load(configDir); err != nil {
		t.Errorf("example config does not load: %v", err)
	}

	out, err = captureStdout(t, func() error {
		return initAction(nil, nil)
	})
	if err != nil {
		t.Fatalf("second init: %v", err)
	}
	requireContains(t, out, "already initialized")
}

func TestDoctorAction_Pass(t *testing.T) {
	srv := cmstest.New(t, testPosts()...)
	setupConfig(t, srv.Endpoint(), "")

	out, err := captureStdout(t, func() error {
		return doctorAction(testCmd(), nil)
	})
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "[ OK ] config.yaml")
	requireContains(t, out, `dates like "19 mar 2021"`)
	requireContains(t, out, "[ OK ] templates (embedded)")
	requireContains(t, out, "master ref")
	requireContains(t, out, "All checks passed.")
}

func TestDoctorAction_Failures(t *testing.T) {
	srv := cmstest.New(t, testPosts()...)
	srv.RequireToken("expected")
	t.Setenv("TEST_DOCTOR_TOKEN", "")
	setupConfig(t, srv.Endpoint(), "site:\n  templates_dir: /nonexistent/theme\n")

	// Rewrite to add the token env; setupConfig writes the cms block first.
	path := filepath.Join(configDir, config.DefaultConfigFile)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data = []byte(strings.Replace(string(data), "  page_size: 2\n", "  page_size: 2\n  access_token_env: TEST_DOCTOR_TOKEN\n", 1))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := captureStdout(t, func() error {
		return doctorAction(testCmd(), nil)
	})
	if err == nil {
		t.Fatalf("expected doctor to fail:\n%s", out)
	}
	requireContains(t, out, "[FAIL] access token: $TEST_DOCTOR_TOKEN is not set")
	requireContains(t, out, "[FAIL] templates")
	requireContains(t, out, "[FAIL] cms")
}

func TestDoctorAction_MissingConfig(t *testing.T) {
	oldConfigDir := configDir
	t.Cleanup(func() { configDir = oldConfigDir })
	configDir = filepath.Join(t.TempDir(), "nope")

	out, err := captureStdout(t, func() error {
		return doctorAction(testCmd(), nil)
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	requireContains(t, out, "[FAIL] config directory")
	requireContains(t, out, "[FAIL] config.yaml")
}

func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	oldStdout := os.Stdout
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("open stdout pipe: %v", err)
	}

	os.Stdout = writer
	runErr := fn()
	_ = writer.Close()
	os.Stdout = oldStdout

	out, readErr := io.ReadAll(reader)
	_ = reader.Close()
	if readErr != nil {
		t.Fatalf("read stdout pipe: %v", readErr)
	}
	return string(out), runErr
}

func requireContains(t *testing.T, got, want string) {
	t.Helper()

	if !strings.Contains(got, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, got)
	}
}
