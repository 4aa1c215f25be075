// Package commands implements the CLI command structure using Cobra.
package commands

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/petal-labs/bloom"
	"github.com/petal-labs/bloom/cli/config"
	"github.com/petal-labs/bloom/cli/keystore"
	"github.com/petal-labs/bloom/core"
	"github.com/petal-labs/bloom/services/audio"
	"github.com/petal-labs/bloom/services/image"
	"github.com/petal-labs/bloom/services/text"
)

// defaultKeyName is the keystore entry used when the config names none.
const defaultKeyName = "default"

// logLevelEnvVar overrides the log level without --verbose.
const logLevelEnvVar = "BLOOM_LOG_LEVEL"

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// KeystoreFactory creates a keystore instance.
type KeystoreFactory func() (keystore.Keystore, error)

// ClientFactory creates the SDK client the commands run against.
type ClientFactory func(opts ...bloom.Option) (*bloom.Client, error)

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig  ConfigLoader
	newKeystore KeystoreFactory
	newClient   ClientFactory
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer

	cfgFile    string
	model      string
	jsonOutput bool
	verbose    bool
	cfg        *config.Config

	imagePrompt  string
	imageOut     string
	imageWidth   int
	imageHeight  int
	imageSeed    int
	imageNoLogo  bool
	imagePrivate bool
	imageEnhance bool
	imageSafe    bool

	textPrompt  string
	textSystem  string
	textSeed    int
	textTemp    float64
	textJSON    bool
	textStream  bool
	textReason  string
	textPrivate bool

	chatPrompt string
	chatSystem string
	chatJSON   bool
	chatStream bool

	audioText  string
	audioVoice string
	audioOut   string
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithKeystoreFactory injects a keystore factory dependency.
func WithKeystoreFactory(factory KeystoreFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newKeystore = factory
		}
	}
}

// WithClientFactory injects a client factory dependency.
func WithClientFactory(factory ClientFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.newClient = factory
		}
	}
}

// WithIO injects process I/O streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig:  config.LoadConfig,
		newKeystore: keystore.NewKeystore,
		newClient:   bloom.New,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bloom",
		Short: "Bloom - generate images, text, and speech from the command line",
		Long: `Bloom is a command-line interface for the Pollinations generation services.

Use Bloom to render images, complete prompts, synthesize speech, and manage
API tokens. Anonymous use works out of the box; a stored token unlocks the
paid tiers.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage: true,
	}

	// Global flags available to all commands.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.bloom/config.yaml)")
	root.PersistentFlags().StringVar(&a.model, "model", "", "model ID (e.g. flux, openai)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(a.newImageCommand())
	root.AddCommand(a.newTextCommand())
	root.AddCommand(a.newChatCommand())
	root.AddCommand(a.newAudioCommand())
	root.AddCommand(a.newModelsCommand())
	root.AddCommand(a.newKeysCommand())
	root.AddCommand(a.newInitCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.root.Execute()
}

func (a *App) initConfig() error {
	path := a.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := a.loadConfig(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	return nil
}

// client builds the SDK client from config, flags, and the stored token.
func (a *App) client() (*bloom.Client, error) {
	var opts []bloom.Option

	if token := a.resolveToken(); token != "" {
		opts = append(opts, bloom.WithToken(token))
	}
	if a.verbose {
		opts = append(opts, bloom.WithLogger(core.NewConsoleLogger(a.stderr, zerolog.DebugLevel)))
	} else if level := os.Getenv(logLevelEnvVar); level != "" {
		opts = append(opts, bloom.WithLogger(core.NewConsoleLogger(a.stderr, core.ParseLevel(level))))
	}
	if a.cfg != nil {
		if a.cfg.Endpoints.Image != "" {
			opts = append(opts, bloom.WithImageBaseURL(a.cfg.Endpoints.Image))
		}
		if a.cfg.Endpoints.Text != "" {
			opts = append(opts, bloom.WithTextBaseURL(a.cfg.Endpoints.Text))
		}
		if a.cfg.Endpoints.Audio != "" {
			opts = append(opts, bloom.WithAudioBaseURL(a.cfg.Endpoints.Audio))
		}
		if a.cfg.AdvisoryPayment != nil {
			on := *a.cfg.AdvisoryPayment
			opts = append(opts,
				bloom.WithImageOptions(image.WithAdvisoryPayment(on)),
				bloom.WithTextOptions(text.WithAdvisoryPayment(on)),
				bloom.WithAudioOptions(audio.WithAdvisoryPayment(on)),
			)
		}
	}

	return a.newClient(opts...)
}

// resolveToken finds the API token: environment first, then the keystore
// entry named by the config. Empty means anonymous.
func (a *App) resolveToken() string {
	if token := os.Getenv(bloom.DefaultTokenEnvVar); token != "" {
		return token
	}

	ks, err := a.newKeystore()
	if err != nil {
		return ""
	}

	ref := defaultKeyName
	if a.cfg != nil && a.cfg.TokenRef != "" {
		ref = a.cfg.TokenRef
	}

	token, err := ks.Get(ref)
	if err != nil {
		return ""
	}
	return token
}

// modelOrDefault resolves the model: the --model flag wins, then the config
// default, then empty for the service default.
func (a *App) modelOrDefault(configDefault string) string {
	if a.model != "" {
		return a.model
	}
	return configDefault
}

var defaultApp = NewApp()

// Execute runs the default app root command.
func Execute() error {
	return defaultApp.Execute()
}
