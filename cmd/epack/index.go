package main

import (
	"fmt"
	"log/slog"

	"github.com/jchantrell/epack/internal/database"
	"github.com/jchantrell/epack/internal/utils"
	"github.com/spf13/cobra"
)

var indexDatabase string

var indexCmd = &cobra.Command{
	Use:   "index <package>",
	Short: "Mirror a package catalog into a SQLite database",
	Long: `Index copies the catalog of a package into the "assets" table of a SQLite
database, replacing whatever was indexed before, so it can be explored with
epack query.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]

		dbPath := cfg.Database
		if cmd.Flags().Changed("database") {
			dbPath = indexDatabase
		}

		p, err := store.Open(name)
		if err != nil {
			return err
		}

		db, err := database.NewDatabase(database.DefaultDatabaseOptions(dbPath))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		if err := database.NewDDLManager(db).CreateSchema(ctx, nil); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}

		entries := p.Entries()
		info := database.PackageInfo{
			Base:        p.BaseFilename(),
			FileVersion: p.FileVersion(),
			Assets:      len(entries),
		}

		progress := utils.NewProgress(len(entries), "indexing", showProgress())
		inserter := database.NewBulkInserter(db, &database.BulkInsertOptions{BatchSize: cfg.BatchSize})
		err = inserter.InsertCatalog(ctx, info, entries, progress.Callback())
		progress.Finish()
		if err != nil {
			return fmt.Errorf("indexing %s: %w", name, err)
		}

		slog.Info("Catalog indexed", "package", name, "assets", len(entries), "database", dbPath)
		fmt.Println("Try running: epack query \"SELECT name, org_size FROM assets ORDER BY org_size DESC LIMIT 10\"")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().StringVarP(&indexDatabase, "database", "d", "", "database file path (default from config)")
}
