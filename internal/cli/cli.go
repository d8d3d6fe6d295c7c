// Package cli implements the ridat command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/nmrtools/ridat/internal/catalog"
	"github.com/nmrtools/ridat/internal/config"
	"github.com/nmrtools/ridat/internal/fs"
	"github.com/nmrtools/ridat/internal/ridat"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const Version = "0.3.0"

// Process exit codes. Decode failures map to one code per error kind.
const (
	ExitOK                 = 0
	ExitFailure            = 1
	ExitStreamUnavailable  = 2
	ExitBadMagic           = 3
	ExitUnsupportedVariant = 4
	ExitUnknownVersion     = 5
	ExitTruncatedSection   = 6
)

// ErrCatalogDisabled is returned by commands that need the catalog when it is turned off.
var ErrCatalogDisabled = errors.New("decode catalog is disabled")

// CLI represents the command-line interface
type CLI struct {
	rootCmd          *cobra.Command
	configManager    *config.ConfigManager
	fsFactory        fs.Factory
	fs               afero.Fs
	terminalDetector TerminalDetector
	catalog          *catalog.Catalog // opened on first use
	cfg              *config.Config
	now              func() time.Time
}

// NewCLI creates a new CLI instance on the OS filesystem
func NewCLI() *CLI {
	factory := fs.NewDefaultFactory()
	return newCLI(factory, factory.Production(), config.NewConfigManager())
}

// NewCLIWithFilesystem creates a CLI that reads and writes files on fsys.
func NewCLIWithFilesystem(fsys afero.Fs) *CLI {
	return newCLI(fs.NewDefaultFactory(), fsys, config.NewConfigManagerWithFilesystem(fsys))
}

func newCLI(factory fs.Factory, fsys afero.Fs, cm *config.ConfigManager) *CLI {
	slog.Debug("creating new CLI instance")

	rootCmd := &cobra.Command{
		Use:   "ridat",
		Short: "Inspect and convert RiDat NMR acquisition files",
		Long: `ridat decodes .RiDat acquisition files written by RINMR spectrometer software.

It prints acquisition parameters, exports the signal trace to text or audio
formats, scans directories of acquisitions and keeps a history of every decode.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: persistentPreRunE,
		RunE: func(cmd *cobra.Command, args []string) error {
			if handled, err := handleVersionFlag(cmd); handled {
				return err
			}
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newInfoCommand())
	rootCmd.AddCommand(newExportCommand())
	rootCmd.AddCommand(newScanCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newConfigCommand())

	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("no-catalog", false, "Do not record decodes in the catalog")

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	return &CLI{
		rootCmd:       rootCmd,
		configManager: cm,
		fsFactory:     factory,
		fs:            fsys,
		now:           time.Now,
	}
}

type cliContextKey struct{}

// contextWithCLI stores CLI instance in context for command handlers
func contextWithCLI(ctx context.Context, cli *CLI) context.Context {
	return context.WithValue(ctx, cliContextKey{}, cli)
}

// cliFromContext extracts CLI instance from context
func cliFromContext(ctx context.Context) *CLI {
	if cli, ok := ctx.Value(cliContextKey{}).(*CLI); ok {
		return cli
	}
	return nil
}

// handleVersionFlag checks and handles the version flag
// Returns true if version was handled and processing should stop
func handleVersionFlag(cmd *cobra.Command) (bool, error) {
	version, _ := cmd.Flags().GetBool("version")
	if version {
		printVersion(cmd.OutOrStdout())
		return true, nil
	}
	return false, nil
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "ridat version %s\n", Version)
}

// persistentPreRunE loads configuration and sets up logging before any command runs.
func persistentPreRunE(cmd *cobra.Command, args []string) error {
	return prepareCommand(cmd, true)
}

func prepareCommand(cmd *cobra.Command, fromFile bool) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI instance not found in context")
	}

	cfg, err := loadAndValidateConfig(cmd, cli, fromFile)
	if err != nil {
		return err
	}
	cli.cfg = cfg

	setupLogging(cfg, cli.configManager, cmd.ErrOrStderr())
	return nil
}

// loadAndValidateConfig loads configuration from flags and, when fromFile is
// set, config files, then applies overrides and validates.
func loadAndValidateConfig(cmd *cobra.Command, cli *CLI, fromFile bool) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	logLevel, _ := cmd.Flags().GetString("log-level")
	noCatalog, _ := cmd.Flags().GetBool("no-catalog")

	var cfg *config.Config
	var err error
	switch {
	case !fromFile:
		cfg = cli.configManager.GetDefaultConfig()
	case configFile != "":
		cfg, err = cli.configManager.LoadFromFile(configFile)
	default:
		cfg, err = cli.configManager.LoadConfig()
	}
	if err != nil {
		slog.Error("config load failed", "error", err)
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	cfg = cli.configManager.ApplyEnvironmentOverrides(cfg)

	if logLevel != "" {
		// Same normalization as RIDAT_LOG_LEVEL.
		logLevel = strings.ToLower(logLevel)
		cfg.LogLevel = logLevel
		slog.Debug("log level override applied", "value", logLevel)
	}
	if noCatalog {
		cfg.Catalog = &config.CatalogConfig{Enabled: false}
		slog.Debug("catalog disabled by flag")
	}

	if err := cli.configManager.ValidateConfig(cfg); err != nil {
		slog.Error("config validation failed", "error", err)
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Run executes the CLI with the given arguments and I/O streams and returns
// the process exit code.
func (c *CLI) Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	slog.Debug("CLI run started", "args", args)

	if len(args) > 1 && (args[1] == "--version" || args[1] == "-v") {
		printVersion(stdout)
		return ExitOK
	}

	defer c.closeCatalog()

	c.rootCmd.SetArgs(args[1:])
	c.rootCmd.SetIn(stdin)
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)
	c.rootCmd.SetContext(contextWithCLI(context.Background(), c))

	if err := c.rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCodeFor(err)
	}

	return ExitOK
}

// exitCodeFor maps an error to the process exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	switch ridat.KindOf(err) {
	case ridat.KindStreamUnavailable:
		return ExitStreamUnavailable
	case ridat.KindBadMagic:
		return ExitBadMagic
	case ridat.KindUnsupportedVariant:
		return ExitUnsupportedVariant
	case ridat.KindUnknownVersion:
		return ExitUnknownVersion
	case ridat.KindTruncatedSection:
		return ExitTruncatedSection
	default:
		return ExitFailure
	}
}

// openCatalog opens the catalog on first use. It returns nil when the
// catalog is disabled.
func (c *CLI) openCatalog() (*catalog.Catalog, error) {
	if c.catalog != nil {
		return c.catalog, nil
	}
	if c.cfg == nil || c.cfg.Catalog == nil || !c.cfg.Catalog.Enabled {
		return nil, nil
	}

	path, err := c.configManager.ResolveCatalogPath(c.cfg.Catalog.DatabasePath)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Open(path)
	if err != nil {
		return nil, err
	}
	c.catalog = cat
	return cat, nil
}

func (c *CLI) closeCatalog() {
	if c.catalog == nil {
		return
	}
	if err := c.catalog.Close(); err != nil {
		slog.Error("error closing decode catalog", "error", err)
	}
	c.catalog = nil
}

// recordDecodes stores entries in the catalog. Catalog problems are logged
// and never fail the command.
func (c *CLI) recordDecodes(ctx context.Context, entries ...catalog.Entry) {
	cat, err := c.openCatalog()
	if err != nil {
		slog.Warn("decode catalog unavailable, not recording", "error", err)
		return
	}
	if cat == nil {
		return
	}
	for _, e := range entries {
		e.Timestamp = c.now()
		if _, err := cat.Record(ctx, e); err != nil {
			slog.Warn("failed to record decode", "path", e.Path, "error", err)
			return
		}
	}
}
