package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/spacetraveling/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config directory with an example config",
	RunE:  initAction,
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	wrote, err := writeIfNotExists(configPath, []byte(exampleConfig))
	if err != nil {
		return err
	}

	if !wrote {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
	} else {
		fmt.Printf("Initialized %s. Set cms.endpoint, then run: spacetraveling doctor\n", configDir)
	}
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  created: %s\n", path)
	return true, nil
}

const exampleConfig = `# spacetraveling configuration

cms:
  endpoint: https://your-repo.cdn.prismic.io/api/v2
  access_token_env: PRISMIC_ACCESS_TOKEN
  document_type: posts
  page_size: 20
  orderings: "[document.first_publication_date desc]"
  timeout: 30s
  max_retries: 3
  rate_limit: 100ms

site:
  title: spacetraveling
  locale: pt-BR
  base_url: ""
  output_dir: public
  # templates_dir: theme
  words_per_minute: 200

render:
  revalidate: 30m
  cache_size: 256

server:
  addr: ":3000"

log:
  level: info
  format: text
`
