package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <package> <key>...",
	Short: "Remove assets and compact the bundle file",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, keys := args[0], args[1:]

		p, err := store.Open(name)
		if err != nil {
			return err
		}

		for _, key := range keys {
			if err := p.Remove(key); err != nil {
				return err
			}
			slog.Info("Asset removed", "package", name, "key", key)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
