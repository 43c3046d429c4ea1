package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var forceCreate bool

var createCmd = &cobra.Command{
	Use:   "create <package>",
	Short: "Create an empty package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if store.Exists(name) && !forceCreate {
			return fmt.Errorf("package %s already exists, use --force to truncate it", name)
		}

		p, err := store.Create(name)
		if err != nil {
			return err
		}

		slog.Info("Package created", "package", name, "path", p.BaseFilename())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().BoolVarP(&forceCreate, "force", "f", false, "truncate the package if it already exists")
}
