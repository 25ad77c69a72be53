package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"locale-tool/internal/config"
	"locale-tool/internal/filewalker"
	"locale-tool/internal/locale"
	"locale-tool/internal/store"
	"locale-tool/internal/template"
	"locale-tool/internal/textutil"
	"locale-tool/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// fileReport is the per-file output of scan and apply.
type fileReport struct {
	Path   string                `json:"path"`
	Lines  []int                 `json:"lines,omitempty"`
	Search *locale.SearchResult  `json:"search,omitempty"`
	Apply  *locale.RewriteResult `json:"apply,omitempty"`
}

func scanCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan <file-or-directory>",
		Short: "List elements and attributes with untemplated Korean text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(args[0], asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}

func applyCmd() *cobra.Command {
	var (
		templateType string
		dryRun       bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "apply <file-or-directory>",
		Short: "Wrap untemplated Korean text in bt() calls, keeping a .backup of each file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(args[0], templateType, dryRun, asJSON)
		},
	}
	cmd.Flags().StringVarP(&templateType, "template", "t", "bt", "Template type: bt (bvt is disabled)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report replacements without writing files")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	return cmd
}

// processFiles walks root and runs fn over every file with the worker pool.
func processFiles(ctx context.Context, cfg *config.Config, root string, fn worker.ProcessFunc[filewalker.FileEntry, fileReport]) ([]fileReport, error) {
	entries, err := filewalker.NewWalker().Walk(root)
	if err != nil {
		return nil, fmt.Errorf("walk input: %w", err)
	}

	pool := worker.NewPool(cfg.WorkerCount, fn)
	outcomes := pool.Execute(ctx, entries)

	reports := make([]fileReport, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			log.Error().Err(o.Err).Str("file", o.Input.Path).Msg("File skipped")
			continue
		}
		reports = append(reports, o.Result)
	}
	return reports, ctx.Err()
}

func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s", locale.ErrNotUTF8, path)
	}
	return string(data), nil
}

func runScan(root string, asJSON bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := loadConfig()
	svc := newService(cfg)

	recorder, closeRecorder, err := openRecorder(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRecorder()

	reports, err := processFiles(ctx, cfg, root, func(ctx context.Context, entry filewalker.FileEntry) (fileReport, error) {
		content, err := readDocument(entry.Path)
		if err != nil {
			return fileReport{}, err
		}
		res := svc.Search(content)

		run := store.NewRun(entry.Path, string(locale.OpSearch), content)
		run.Untemplated = res.Count
		run.Success = res.Success
		run.Error = res.Error
		if err := recorder.Record(ctx, run); err != nil {
			log.Warn().Err(err).Str("file", entry.Path).Msg("Failed to record run")
		}

		if !res.Success {
			return fileReport{}, res.Err
		}

		lines := make([]int, len(res.Elements))
		for i, el := range res.Elements {
			lines[i] = textutil.LineAt(content, el.Start)
		}
		return fileReport{Path: entry.Path, Lines: lines, Search: &res}, nil
	})
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(reports)
	}

	total := 0
	for _, r := range reports {
		total += r.Search.Count
		for i, el := range r.Search.Elements {
			fmt.Printf("%s:%d\t%s\t%s\t%s\n",
				r.Path, r.Lines[i], el.Kind, el.TagName, strings.Join(el.KoreanPhrases, " | "))
		}
	}

	log.Info().
		Int("files", len(reports)).
		Int("untemplated", total).
		Msg("Scan complete")
	return nil
}

func runApply(root, templateType string, dryRun, asJSON bool) error {
	if _, err := template.ParseKind(templateType); err != nil {
		return err
	}

	ctx, cancel := setupContext()
	defer cancel()

	cfg := loadConfig()
	svc := newService(cfg)

	recorder, closeRecorder, err := openRecorder(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRecorder()

	reports, err := processFiles(ctx, cfg, root, func(ctx context.Context, entry filewalker.FileEntry) (fileReport, error) {
		content, err := readDocument(entry.Path)
		if err != nil {
			return fileReport{}, err
		}

		res := svc.Apply(content, templateType)
		if res.Success && !dryRun && res.ReplacementsCount > 0 {
			backup, err := locale.WriteWithBackup(entry.Path, content, res.UpdatedContent)
			if err != nil {
				return fileReport{}, err
			}
			res.BackupCreated = backup
		}

		run := store.NewRun(entry.Path, string(locale.OpApply), content)
		run.TemplateKind = templateType
		run.Replacements = res.ReplacementsCount
		run.Success = res.Success
		run.Error = res.Error
		if err := recorder.Record(ctx, run); err != nil {
			log.Warn().Err(err).Str("file", entry.Path).Msg("Failed to record run")
		}

		if !res.Success {
			return fileReport{}, res.Err
		}
		res.UpdatedContent = ""
		log.Debug().
			Str("file", entry.Path).
			Int("replacements", res.ReplacementsCount).
			Str("backup", res.BackupCreated).
			Msg("File processed")
		return fileReport{Path: entry.Path, Apply: &res}, nil
	})
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(reports)
	}

	total := 0
	changed := 0
	for _, r := range reports {
		total += r.Apply.ReplacementsCount
		if r.Apply.ReplacementsCount > 0 {
			changed++
			fmt.Printf("%s\t%d replacements\n", r.Path, r.Apply.ReplacementsCount)
		}
	}

	log.Info().
		Int("files", len(reports)).
		Int("changed", changed).
		Int("replacements", total).
		Bool("dry_run", dryRun).
		Msg("Apply complete")
	return nil
}
