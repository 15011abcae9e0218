package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logAdapter "github.com/bft-labs/appship/internal/adapters/log"
	"github.com/bft-labs/appship/internal/cliconfig"
	"github.com/bft-labs/appship/pkg/appship"
)

const longHelp = `Push application directories to CouchDB-compatible document databases.

An application is a directory: its files become the fields of a design
document, _attachments holds the files served by the database and _docs
holds companion documents pushed alongside.

Configuration is read from $HOME/.appship/config.toml (or --config), then from
APPSHIP_* environment variables, then from flags. An application may carry a
.appshiprc file with its own destinations and hooks.`

var exampleUsage = strings.TrimSpace(`
  appship push                       # push the current application to "default"
  appship push prod                  # push the current application to "prod"
  appship push ./blog http://localhost:5984/blog
  appship push --export --output blog.json
  appship pushdocs ./fixtures prod
`)

// rootOptions holds global flags and the state prepared for subcommands.
type rootOptions struct {
	cfg     cliconfig.Config
	cfgPath string
	verbose bool
	quiet   bool

	logger    zerolog.Logger
	logCloser io.Closer
}

// newRootCommand creates the root command with all subcommands.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{cfg: cliconfig.DefaultConfig()}

	cmd := &cobra.Command{
		Use:           "appship",
		Short:         "Push application directories to CouchDB-compatible databases",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logCloser != nil {
				return opts.logCloser.Close()
			}
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgPath, "config", "", "path to config file (default: $HOME/.appship/config.toml)")
	flags.StringVar(&opts.cfg.LogLevel, "log-level", opts.cfg.LogLevel, "log level (debug|info|warn|error)")
	flags.StringVar(&opts.cfg.LogFile, "log-file", opts.cfg.LogFile, "also write JSON logs to this file (rotated)")
	flags.StringVar(&opts.cfg.DefaultServer, "default-server", opts.cfg.DefaultServer, "server bare database names are created on")
	flags.DurationVar(&opts.cfg.HTTPTimeout, "timeout", opts.cfg.HTTPTimeout, "HTTP timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output (log level debug)")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "only log errors")

	cmd.AddCommand(newPushCommand(opts))
	cmd.AddCommand(newPushDocsCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// load merges defaults, config file, environment and flags, then builds the logger.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfgFile := o.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	// Build set of changed flags
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&o.cfg, fc, changed); err != nil {
			return err
		}
	} else if o.cfgPath != "" {
		return fmt.Errorf("config file %s not found", o.cfgPath)
	}

	// Environment overrides the file, flags override both
	if err := cliconfig.ApplyEnvConfig(&o.cfg, changed); err != nil {
		return err
	}

	switch {
	case o.verbose && o.quiet:
		return fmt.Errorf("--verbose and --quiet cannot be combined")
	case o.verbose:
		o.cfg.LogLevel = zerolog.LevelDebugValue
	case o.quiet:
		o.cfg.LogLevel = zerolog.LevelErrorValue
	}

	if err := o.cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := cliconfig.NewLogger(os.Stderr, o.cfg.LogLevel, o.cfg.LogFile)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	o.logger = logger
	o.logCloser = closer

	o.logger.Debug().
		Str("config", cfgFile).
		Strs("destinations", destinationNames(o.cfg)).
		Dur("timeout", o.cfg.HTTPTimeout).
		Msg("configuration")
	return nil
}

// appship creates the library instance for a subcommand.
func (o *rootOptions) appship(extra ...appship.Option) (*appship.Appship, error) {
	opts := append([]appship.Option{
		appship.WithLogger(logAdapter.NewZerologAdapterWithLogger(o.logger)),
	}, extra...)
	a, err := appship.New(o.cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("create appship: %w", err)
	}
	return a, nil
}

func destinationNames(cfg cliconfig.Config) []string {
	names := make([]string, 0, len(cfg.Destinations))
	for name := range cfg.Destinations {
		names = append(names, name)
	}
	return names
}
