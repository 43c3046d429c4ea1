package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jchantrell/epack/internal/database"
	"github.com/spf13/cobra"
)

var queryDatabase string

var queryCmd = &cobra.Command{
	Use:   "query [sql]",
	Short: "Query the catalog index from the command line",
	Long: `Query executes SQL against a catalog index built by epack index, lists
the available tables, or shows a table's schema.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		listTables, err := cmd.Flags().GetBool("tables")
		if err != nil {
			return fmt.Errorf("failed to get tables flag: %w", err)
		}
		schemaTable, err := cmd.Flags().GetString("schema")
		if err != nil {
			return fmt.Errorf("failed to get schema flag: %w", err)
		}

		dbPath := cfg.Database
		if cmd.Flags().Changed("database") {
			dbPath = queryDatabase
		}

		slog.Debug("Query parameters",
			"database", dbPath,
			"list-tables", listTables,
			"schema", schemaTable)

		db, err := database.NewDatabase(database.DefaultDatabaseOptions(dbPath))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()

		if listTables {
			tables, err := db.Tables(ctx)
			if err != nil {
				return err
			}

			fmt.Println("Available tables:")
			for _, table := range tables {
				fmt.Printf("  %s\n", table)
			}
			return nil
		}

		if schemaTable != "" {
			columns, err := database.NewDDLManager(db).TableColumns(ctx, schemaTable)
			if err != nil {
				return err
			}

			fmt.Printf("Schema for table '%s':\n", schemaTable)
			fmt.Printf("%-20s %-15s %-10s %-10s %-10s\n", "Column", "Type", "NotNull", "Default", "Primary")
			fmt.Println(strings.Repeat("-", 70))

			yesNo := map[bool]string{false: "NO", true: "YES"}
			for _, col := range columns {
				defaultStr := "NULL"
				if col.Default != nil {
					defaultStr = fmt.Sprintf("%v", col.Default)
				}
				fmt.Printf("%-20s %-15s %-10s %-10s %-10s\n",
					col.Name, col.Type, yesNo[col.NotNull], defaultStr, yesNo[col.PrimaryKey])
			}
			return nil
		}

		if len(args) == 0 {
			return fmt.Errorf("no query provided, use --tables to list tables or --schema <table> to show schema")
		}

		query := args[0]
		slog.Debug("Executing SQL query", "query", query)

		rows, err := db.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			return fmt.Errorf("getting column names: %w", err)
		}

		fmt.Println(strings.Join(columns, "\t"))
		separators := make([]string, len(columns))
		for i, col := range columns {
			separators[i] = strings.Repeat("-", len(col))
		}
		fmt.Println(strings.Join(separators, "\t"))

		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		for rows.Next() {
			if err := rows.Scan(valuePtrs...); err != nil {
				return fmt.Errorf("scanning row: %w", err)
			}

			cells := make([]string, len(values))
			for i, val := range values {
				switch v := val.(type) {
				case nil:
					cells[i] = "NULL"
				case []byte:
					cells[i] = string(v)
				default:
					cells[i] = fmt.Sprint(v)
				}
			}
			fmt.Println(strings.Join(cells, "\t"))
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterating rows: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().Bool("tables", false, "List available tables")
	queryCmd.Flags().String("schema", "", "Show schema for specified table")
	queryCmd.Flags().StringVarP(&queryDatabase, "database", "d", "", "database file path (default from config)")
}
