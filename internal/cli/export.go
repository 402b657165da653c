package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"persona-quiz-service/internal/config"
	"persona-quiz-service/internal/export"
	pginfra "persona-quiz-service/internal/infra/postgres"
)

// NewExportCmd writes all finalized leads as CSV.
func NewExportCmd(configPath *string) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export finalized leads to CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), *configPath, outPath)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")
	return cmd
}

func runExport(ctx context.Context, configPath, outPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	db, err := openBunDB(cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	store := pginfra.NewLeadStore(db, cfg.Widget.CollectContact)
	return export.WriteCSV(ctx, store, out)
}
