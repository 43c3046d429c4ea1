package main

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/jchantrell/epack/internal/export"
	"github.com/jchantrell/epack/internal/utils"
	"github.com/spf13/cobra"
)

type ExtractionStats struct {
	StartTime time.Time
	EndTime   time.Time
	Requested int
	Extracted int
	Bytes     int64
}

var extractFlatten bool

var extractCmd = &cobra.Command{
	Use:   "extract <package> <dir> [keys...]",
	Short: "Extract assets from a package into a directory",
	Long: `Extract writes assets to a directory, all of them when no keys are given.
Slash-separated keys become subdirectories unless --flatten is set, in which
case slashes are replaced with @ and every file lands directly in <dir>.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, outputDir, keys := args[0], args[1], args[2:]

		stats := &ExtractionStats{
			StartTime: time.Now(),
		}

		p, err := store.Open(name)
		if err != nil {
			return err
		}

		if len(keys) == 0 {
			keys = p.Names()
		}
		stats.Requested = len(keys)

		if len(keys) == 0 {
			slog.Info("Package is empty", "package", name)
			return nil
		}

		slog.Info("Extracting assets", "package", name, "count", len(keys), "output", outputDir)

		exporter := export.NewExporter(p, outputDir)
		exporter.SetFlatten(extractFlatten)

		progress := utils.NewProgress(len(keys), "extracting", showProgress())
		result, err := exporter.ExportAssets(cmd.Context(), keys, progress.Callback())
		progress.Finish()

		stats.Extracted = result.Assets
		stats.Bytes = result.Bytes
		stats.EndTime = time.Now()
		if err != nil {
			return err
		}

		duration := stats.EndTime.Sub(stats.StartTime)
		var rate float64
		if duration.Seconds() > 0 {
			rate = float64(stats.Extracted) / duration.Seconds()
		}

		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		fmt.Printf("Assets extracted: %d/%d\n", stats.Extracted, stats.Requested)
		fmt.Printf("Bytes written: %s\n", utils.Bytes(stats.Bytes))
		fmt.Printf("Total duration: %.1fms\n", float64(duration.Nanoseconds())/1000000.0)
		fmt.Printf("Extraction rate: %s assets/sec\n", utils.Rate(rate))
		fmt.Printf("Memory usage: %s\n", utils.Bytes(int64(memStats.Alloc)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&extractFlatten, "flatten", false, "write every asset directly into <dir>")
}
