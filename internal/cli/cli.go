package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"locale-tool/internal/config"
	"locale-tool/internal/locale"
	"locale-tool/internal/store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "locale-tool",
		Short: "Find Korean text in TSX files and wrap it in bt() localization calls",
		Long: `locale-tool scans TSX/JSX sources for Korean text that is not yet localized
and rewrites it as {bt("W#", "<text>")} calls, ready for key assignment.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(applyCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(inventoryCmd())
	rootCmd.AddCommand(historyCmd())

	return rootCmd
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// loadConfig reads the configuration and applies its log level.
func loadConfig() *config.Config {
	cfg := config.Load()
	if cfg.Development() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	return cfg
}

// openRecorder connects the run history when DATABASE_URL is set. The
// returned close func is always safe to call.
func openRecorder(ctx context.Context, cfg *config.Config) (store.Recorder, func(), error) {
	if !cfg.HistoryEnabled() {
		return store.Discard, func() {}, nil
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	runs := store.NewRunStore(pool)
	if err := runs.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return runs, pool.Close, nil
}

func newService(cfg *config.Config) *locale.Service {
	return locale.NewService(cfg.MaxDocumentBytes)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
