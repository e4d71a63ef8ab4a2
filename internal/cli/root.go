package cli

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/replychain/internal/config"
	"github.com/roach88/replychain/internal/store"
)

// RootOptions holds global flags and the state every command shares.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string

	// Config and Logger are filled in before a command runs. Tests may set
	// them directly to skip loading.
	Config *config.Config
	Logger *zap.Logger

	// Clock drives record keys and createdAt stamps. Nil means the real clock.
	Clock clockwork.Clock
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// flagKeys maps config keys to the persistent flags that override them.
var flagKeys = map[string]string{
	"database":   "db",
	"collection": "collection",
	"clock-id":   "clock-id",
	"log.level":  "log-level",
}

// NewRootCommand creates the root command for the replychain CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "replychain",
		Short: "Build content-addressed reply chains",
		Long: `replychain turns an ordered list of post payloads into a chain of
canonical records, each replying to the one before it and to the first.

Records are encoded as deterministic DAG-CBOR and identified by CIDv1, so the
same thread always produces the same identifiers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.prepare(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigFile, "config", "", "config file (yaml, json or toml)")
	flags.String("db", "", "database path (default replychain.db)")
	flags.String("collection", "", "record collection when a thread names none (default app.bsky.feed.post)")
	flags.Uint16("clock-id", 0, "clock identifier embedded in record keys (0-1023)")
	flags.String("log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewCIDCommand(opts))
	cmd.AddCommand(NewBlobCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewTIDCommand(opts))

	return cmd
}

// prepare loads configuration and builds the logger, once.
func (o *RootOptions) prepare(cmd *cobra.Command) error {
	if o.Config == nil {
		vip := config.New()
		if err := config.BindFlags(vip, cmd.Flags(), flagKeys); err != nil {
			return err
		}
		cfg, err := config.Load(vip, o.ConfigFile)
		if err != nil {
			return err
		}
		o.Config = &cfg
	}
	if o.Logger == nil {
		logCfg := o.Config.Log
		if o.Verbose {
			logCfg.Level = "debug"
		}
		logger, err := config.NewLogger(logCfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		o.Logger = logger
	}
	return nil
}

// settings returns the loaded configuration, or the defaults when a command
// runs without its root.
func (o *RootOptions) settings() config.Config {
	if o.Config == nil {
		return config.DefaultConfig()
	}
	return *o.Config
}

func (o *RootOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o *RootOptions) clock() clockwork.Clock {
	if o.Clock == nil {
		return clockwork.NewRealClock()
	}
	return o.Clock
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) openStore() (*store.Store, error) {
	return store.Open(o.settings().Database, store.WithLogger(o.logger()))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
