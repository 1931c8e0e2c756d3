package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/s0up4200/testrail-mcp/config"
	"github.com/s0up4200/testrail-mcp/filter"
	"github.com/s0up4200/testrail-mcp/testrail"
	"github.com/s0up4200/testrail-mcp/tools"
)

var (
	cfgFile        string
	logLevel       string
	cfg            *config.Config
	logger         zerolog.Logger
	testrailClient *testrail.Client
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "testrail-mcp",
	Short: "MCP server exposing TestRail to AI assistants",
	Long: `testrail-mcp serves TestRail test cases, sections, runs and results as
Model Context Protocol tools over stdio.

Credentials are read from TESTRAIL_INSTANCE_URL, TESTRAIL_USERNAME and
TESTRAIL_API_KEY, or from a config file.`,
	SilenceUsage: true,
	PreRunE:      initializeApp,
	RunE:         runServe,
}

// serveCmd runs the MCP server; it is also what the bare command does.
var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the MCP server on stdio",
	PreRunE: initializeApp,
	RunE:    runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
}

// initializeApp initializes the configuration and the TestRail client
func initializeApp(cmd *cobra.Command, args []string) error {
	// Load configuration
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	// Setup logger
	logger = setupLogger(cfg.Logging)

	testrailClient, err = newTestRailClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create TestRail client: %w", err)
	}

	return nil
}

func newTestRailClient(cfg *config.Config, logger zerolog.Logger) (*testrail.Client, error) {
	return testrail.NewClient(cfg.TestRail.URL, cfg.TestRail.Username, cfg.TestRail.APIKey,
		testrail.WithLogger(logger.With().Str("component", "testrail").Logger()),
		testrail.WithTimeout(cfg.TestRail.Timeout),
		testrail.WithMaxConcurrency(cfg.TestRail.MaxConcurrency),
	)
}

// newToolset wires the filter presets and upload limit from cfg into the
// MCP tools over api.
func newToolset(cfg *config.Config, api testrail.API, logger zerolog.Logger) (*tools.Toolset, error) {
	filters := filter.NewManager()
	if err := filters.RegisterFilters(cfg.Filter.Presets); err != nil {
		return nil, fmt.Errorf("invalid filter preset: %w", err)
	}
	if names := filters.ListFilters(); len(names) > 0 {
		logger.Info().Strs("presets", names).Msg("Loaded filter presets")
	}

	return tools.New(api,
		tools.WithFilterManager(filters),
		tools.WithMaxUploadBytes(cfg.Attachments.MaxBytes()),
		tools.WithLogger(logger.With().Str("component", "tools").Logger()),
	), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ts, err := newToolset(cfg, testrailClient, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("version", version).
		Str("url", testrailClient.BaseURL()).
		Int("tools", len(ts.Tools())).
		Msg("Starting TestRail MCP server")

	err = tools.ServeStdio(ctx, tools.NewServer(ts, version), os.Stdin, os.Stdout, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info().Msg("MCP server stopped")
	return nil
}

// setupLogger configures the zerolog logger. Everything goes to stderr;
// stdout belongs to the MCP protocol.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !cfg.Color,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
