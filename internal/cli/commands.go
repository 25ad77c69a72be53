package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"locale-tool/internal/api"
	"locale-tool/internal/config"
	"locale-tool/internal/filewalker"
	"locale-tool/internal/graph"
	"locale-tool/internal/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	errHistoryDisabled   = errors.New("run history is disabled: set DATABASE_URL")
	errInventoryDisabled = errors.New("phrase inventory is disabled: set NEO4J_URI")
)

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := loadConfig()
			if port > 0 {
				cfg.Port = port
			}

			recorder, closeRecorder, err := openRecorder(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeRecorder()

			srv := api.NewServer(newService(cfg), api.Options{
				MaxDocumentBytes:   cfg.MaxDocumentBytes,
				CORSAllowedOrigins: cfg.CORSAllowedOrigins,
				Recorder:           recorder,
				FileRoot:           cfg.FileRoot,
			})
			if cfg.FileRoot == "" {
				log.Warn().Msg("FILE_ROOT not set, /api/file can rewrite any path the server can reach")
			}
			return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", cfg.Port))
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from PORT)")

	return cmd
}

func openGraph(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	if !cfg.InventoryEnabled() {
		return nil, errInventoryDisabled
	}
	return graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
}

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <file-or-directory>",
		Short: "Record the untemplated phrases of each file in the Neo4j inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := loadConfig()
			driver, err := openGraph(ctx, cfg)
			if err != nil {
				return err
			}
			defer driver.Close(ctx)

			builder := graph.NewGraphBuilder(driver)
			if err := builder.EnsureSchema(ctx); err != nil {
				return err
			}

			root, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			svc := newService(cfg)
			reports, err := processFiles(ctx, cfg, root, func(ctx context.Context, entry filewalker.FileEntry) (fileReport, error) {
				content, err := readDocument(entry.Path)
				if err != nil {
					return fileReport{}, err
				}
				res := svc.Search(content)
				if !res.Success {
					return fileReport{}, res.Err
				}
				if err := builder.IndexFile(ctx, entry.Path, graph.CountPhrases(res.Elements)); err != nil {
					return fileReport{}, err
				}
				return fileReport{Path: entry.Path, Search: &res}, nil
			})
			if err != nil {
				return err
			}

			phrases := 0
			for _, r := range reports {
				phrases += r.Search.Count
			}
			log.Info().
				Int("files", len(reports)).
				Int("spans", phrases).
				Msg("Inventory indexed")
			return nil
		},
	}
}

func inventoryCmd() *cobra.Command {
	var (
		minFiles int
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "List phrases shared by several files",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := loadConfig()
			driver, err := openGraph(ctx, cfg)
			if err != nil {
				return err
			}
			defer driver.Close(ctx)

			shared, err := graph.NewGraphQuerier(driver).SharedPhrases(ctx, minFiles)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(shared)
			}
			for _, sp := range shared {
				fmt.Printf("%s\t%d files\t%d occurrences\n\t%s\n",
					sp.Text, len(sp.Files), sp.Occurrences, strings.Join(sp.Files, "\n\t"))
			}
			log.Info().Int("phrases", len(shared)).Msg("Inventory listed")
			return nil
		},
	}
	cmd.Flags().IntVar(&minFiles, "min-files", 2, "Minimum number of files sharing a phrase")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}

func historyCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent search and apply runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			cfg := loadConfig()
			if !cfg.HistoryEnabled() {
				return errHistoryDisabled
			}

			pool, err := store.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			runs := store.NewRunStore(pool)
			if err := runs.EnsureSchema(ctx); err != nil {
				return err
			}
			recent, err := runs.Recent(ctx, limit)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(recent)
			}
			for _, r := range recent {
				status := "ok"
				if !r.Success {
					status = "failed: " + r.Error
				}
				fmt.Printf("%s\t%s\t%s\treplacements=%d untemplated=%d\t%s\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					r.Operation, r.FilePath, r.Replacements, r.Untemplated, status)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}
