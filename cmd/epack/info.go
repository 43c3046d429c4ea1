package main

import (
	"fmt"

	"github.com/jchantrell/epack/internal/utils"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <package>",
	Short: "Show package statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := store.Open(args[0])
		if err != nil {
			return err
		}

		stats, err := p.Stats()
		if err != nil {
			return err
		}

		fmt.Printf("Package: %s\n", p.BaseFilename())
		fmt.Printf("File version: %d\n", p.FileVersion())
		fmt.Printf("Assets: %s\n", utils.Number(int64(stats.Assets)))
		fmt.Printf("Original size: %s\n", utils.Bytes(int64(stats.OriginalBytes)))
		fmt.Printf("Compressed size: %s (%s)\n", utils.Bytes(int64(stats.CompressedBytes)), utils.Percent(stats.Ratio()))
		fmt.Printf("Header file: %s\n", utils.Bytes(stats.HeaderBytes))
		fmt.Printf("Bundle file: %s\n", utils.Bytes(stats.BundleBytes))
		if stats.OrphanedBytes != 0 {
			fmt.Printf("Orphaned bytes: %s, run: epack vacuum %s\n", utils.Bytes(stats.OrphanedBytes), args[0])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
