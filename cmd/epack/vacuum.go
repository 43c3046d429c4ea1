package main

import (
	"log/slog"

	"github.com/jchantrell/epack/internal/utils"
	"github.com/spf13/cobra"
)

var vacuumCmd = &cobra.Command{
	Use:   "vacuum <package>",
	Short: "Reclaim bundle bytes no asset refers to",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := store.Open(args[0])
		if err != nil {
			return err
		}

		reclaimed, err := p.Vacuum()
		if err != nil {
			return err
		}

		slog.Info("Package vacuumed", "package", args[0], "reclaimed", utils.Bytes(reclaimed))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(vacuumCmd)
}
