package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/fairscrape/export"
	"github.com/use-agent/fairscrape/store"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the records of a checkpoint store",
		Long: `Export writes every record held in a SQLite checkpoint store to a table,
in the order the records were first scraped. No pages are loaded.

Examples:
  fairscrape export --db progress.db
  fairscrape export --db progress.db --out exhibitors.csv`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().String("db", "", "SQLite checkpoint store path")
	cmd.Flags().StringP("out", "o", "", "Output file (.xlsx, .csv or .md)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dbPath, _ := cmd.Flags().GetString("db")
	out := cfg.Fair.OutputPath
	if cmd.Flags().Changed("out") {
		out, _ = cmd.Flags().GetString("out")
	}

	// store.Open would create a missing database.
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("checkpoint store: %w", err)
	}

	ctx := cmd.Context()
	st, err := store.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.Records(ctx)
	if err != nil {
		return err
	}
	if err := export.Write(out, records); err != nil {
		return err
	}

	slog.Info("checkpoint exported", "db", dbPath, "records", len(records), "output", out)
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d records to %s\n", len(records), out)
	return nil
}
