package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/gradadmin-api/internal/app"
	"github.com/noah-isme/gradadmin-api/internal/dto"
	"github.com/noah-isme/gradadmin-api/internal/models"
	"github.com/noah-isme/gradadmin-api/internal/service"
	"github.com/noah-isme/gradadmin-api/pkg/config"
	"github.com/noah-isme/gradadmin-api/pkg/database"
	"github.com/noah-isme/gradadmin-api/pkg/logger"
	"github.com/noah-isme/gradadmin-api/pkg/sheet"
)

type runOptions struct {
	kind    string
	file    string
	jsonOut bool
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gradadmin-import",
		Short:         "Import department spreadsheets into the graduate administration database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newTemplateCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import one xlsx or csv sheet and print the row report",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(opts.kind)
			if err != nil {
				return err
			}
			report, err := runImport(cmd.Context(), kind, opts.file)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(cmd.OutOrStdout(), report)
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d rows failed", report.Failed, report.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.kind, "kind", "", "Entity kind: course, job, faculty, semester or student (required)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Path to the sheet (required)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the report as JSON")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newTemplateCmd() *cobra.Command {
	var kindFlag, out string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty import sheet for a kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(kindFlag)
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("%s-import.xlsx", kind)
			}
			data, err := templateFor(kind)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "", "Entity kind (required)")
	cmd.Flags().StringVar(&out, "out", "", "Output path (default <kind>-import.xlsx)")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func parseKind(raw string) (models.EntityKind, error) {
	kind, ok := models.ParseKind(raw)
	if !ok {
		return "", fmt.Errorf("unknown kind %q", raw)
	}
	return kind, nil
}

func runImport(ctx context.Context, kind models.EntityKind, path string) (*dto.ImportReport, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close() //nolint:errcheck
	rows, err := sheet.Read(file, filepath.Base(path))
	if err != nil {
		return nil, err
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	application, err := app.New(cfg, db, nil, logr)
	if err != nil {
		return nil, err
	}
	defer application.Close()

	logr.Info("importing sheet", zap.String("kind", string(kind)), zap.String("file", path), zap.Int("rows", len(rows)))
	return application.Imports.ImportRows(ctx, kind, rows)
}

func templateFor(kind models.EntityKind) ([]byte, error) {
	switch kind {
	case models.KindCourse, models.KindJob, models.KindFaculty, models.KindSemester, models.KindStudent:
		return service.ImportTemplate(kind)
	default:
		return nil, fmt.Errorf("%s cannot be imported", kind)
	}
}

func printReport(w io.Writer, report *dto.ImportReport) {
	fmt.Fprintf(w, "%s import: %d rows, %d created, %d skipped, %d failed (%s)\n",
		report.Kind, report.Total, report.Created, report.Skipped, report.Failed, report.Duration)
	for _, msg := range report.Errors {
		fmt.Fprintln(w, "  "+msg)
	}
}
