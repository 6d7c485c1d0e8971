// Package cli implements the inventory command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vyrodovalexey/inventory/internal/config"
	"github.com/vyrodovalexey/inventory/internal/store"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ValidFormats lists the accepted --output values.
var ValidFormats = []string{FormatTable, FormatJSON, FormatYAML}

// Flag names.
const (
	flagDriver  = "driver"
	flagDB      = "db"
	flagDSN     = "dsn"
	flagOutput  = "output"
	flagVerbose = "verbose"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
	Output      string
	Verbose     bool
}

// StoreOptions returns the store selection for the resolved flags.
func (o *RootOptions) StoreOptions() store.Options {
	return store.Options{
		Driver:      o.Driver,
		SQLitePath:  o.SQLitePath,
		PostgresDSN: o.PostgresDSN,
	}
}

// NewRootCommand creates the root command for the inventory CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Inventory keeps track of stocked items",
		Long: "Inventory keeps track of stocked items: their name, unit price " +
			"and the quantity on hand.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Output) {
				return userError(fmt.Sprintf("invalid output %q: must be one of %v", opts.Output, ValidFormats), nil)
			}
			return opts.resolve(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.Driver, flagDriver, config.DefaultStoreDriver, "store driver (memory|sqlite|postgres)")
	flags.StringVar(&opts.SQLitePath, flagDB, config.DefaultSQLitePath, "SQLite database file")
	flags.StringVar(&opts.PostgresDSN, flagDSN, "", "PostgreSQL connection string")
	flags.StringVarP(&opts.Output, flagOutput, "o", FormatTable, "output format (table|json|yaml)")
	flags.BoolVarP(&opts.Verbose, flagVerbose, "v", false, "log store activity to stderr")

	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newAddCommand(opts))
	cmd.AddCommand(newUpdateCommand(opts))
	cmd.AddCommand(newSellCommand(opts))
	cmd.AddCommand(newDeleteCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newTUICommand(opts))

	return cmd
}

// resolve fills store settings that were not given as flags from the
// APP_* environment, the same variables the server reads.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()

	bindings := map[string]string{
		config.KeyStoreDriver: flagDriver,
		config.KeySQLitePath:  flagDB,
		config.KeyPostgresDSN: flagDSN,
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}

	o.Driver = v.GetString(config.KeyStoreDriver)
	o.SQLitePath = v.GetString(config.KeySQLitePath)
	o.PostgresDSN = v.GetString(config.KeyPostgresDSN)

	return nil
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, errorStyle.Render("Error: "+err.Error()))
	}
	return ExitCode(err)
}
