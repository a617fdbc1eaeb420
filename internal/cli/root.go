package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"strava-filter/internal/config"
	"strava-filter/internal/logging"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// options are the persistent flags shared by every command
type options struct {
	verbose    bool
	configPath string
	envFile    string
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "strava-filter",
		Short: "Hide short Strava activities from the feed and give them descriptive titles",
		Long: `strava-filter listens for new Strava activities. Activities shorter than a
per-type threshold are hidden from followers' home feeds, and every activity
can be renamed with a title generated from its heart rate, pace and elevation data.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(opts.envFile); err != nil {
				return err
			}
			return logging.Init(logging.Options{Verbose: opts.verbose, Console: cmd.ErrOrStderr()})
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "path to the YAML config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "path to a .env file with overrides")

	root.AddCommand(
		newServeCommand(opts),
		newAnalyzeCommand(opts),
		newWebhookCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "strava-filter %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}
}

// errConfigCreated stops a command after an example config was written
var errConfigCreated = errors.New("example config created")

// loadConfig loads and validates the configuration. When no configuration
// exists an example file is written and errConfigCreated returned.
func loadConfig(opts *options, out io.Writer) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if errors.Is(err, config.ErrNoConfig) {
		fmt.Fprintln(out, "No config file found. Creating example config...")
		if err := config.CreateExample(opts.configPath); err != nil {
			return nil, fmt.Errorf("creating example config: %w", err)
		}
		fmt.Fprintf(out, "\nPlease edit the config file at:\n  %s\n\n", opts.configPath)
		fmt.Fprintln(out, "You need to add your Strava API credentials.")
		fmt.Fprintln(out, "Get them from: https://www.strava.com/settings/api")
		return nil, errConfigCreated
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "Config validation failed: %v\n\n", err)
		fmt.Fprintf(out, "Please edit the config file at:\n  %s\n", opts.configPath)
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Now that the logs folder is known, add the rotating file sink
	if err := logging.Init(logging.Options{Verbose: opts.verbose, Dir: cfg.Logging.Folder}); err != nil {
		return nil, err
	}
	log.Debug().Str("config", opts.configPath).Msg("configuration loaded")
	return cfg, nil
}
