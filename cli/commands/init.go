package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/petal-labs/bloom/cli/config"
	"github.com/petal-labs/bloom/core"
)

func (a *App) newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Long: `Write a starter configuration file with the default models spelled out.

The file goes to --config if set, otherwise ~/.bloom/config.yaml. Existing
files are never overwritten.

Example:
  bloom init
  bloom init --config ./bloom.yaml`,
		RunE: a.runInit,
	}
}

func (a *App) runInit(cmd *cobra.Command, args []string) error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %q already exists", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := generateFile(path, configTemplate, templateData{
		ImageModel: core.DefaultImageModel,
		TextModel:  core.DefaultTextModel,
		Voice:      core.DefaultVoice,
	}); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	fmt.Fprintf(a.stdout, "Created %s\n\n", path)
	fmt.Fprintln(a.stdout, "Next steps:")
	fmt.Fprintln(a.stdout, "  bloom keys set            # optional, for the paid tiers")
	fmt.Fprintln(a.stdout, "  bloom image --prompt \"a field of tulips\" -o tulips.png")

	return nil
}

type templateData struct {
	ImageModel string
	TextModel  string
	Voice      string
}

func generateFile(path string, tmplContent string, data templateData) error {
	tmpl, err := template.New("file").Parse(tmplContent)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, data)
}

var configTemplate = `# Bloom CLI configuration
default_image_model: {{.ImageModel}}
default_text_model: {{.TextModel}}
default_voice: {{.Voice}}

# Keystore entry holding the API token. Store one with 'bloom keys set'.
# Anonymous use needs no token at all.
token_ref: default

# Treat payment-required responses as advisory instead of failing.
#advisory_payment: true

# Endpoint overrides, mostly for proxies and testing.
#endpoints:
#  image: https://image.pollinations.ai
#  text: https://text.pollinations.ai
#  audio: https://text.pollinations.ai
`
