package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jchantrell/epack/internal/ingest"
	"github.com/jchantrell/epack/internal/pack"
	"github.com/jchantrell/epack/internal/utils"
	"github.com/spf13/cobra"
)

var (
	addKey     string
	addVersion uint32
	addReplace bool
	addWorkers int
)

var addCmd = &cobra.Command{
	Use:   "add <package> <file|dir>...",
	Short: "Add files or directory trees to a package",
	Long: `Add compresses files into a package, creating the package if it does not
exist yet.

A file is stored under its base name, or under --key. A directory is walked
and every regular file is stored under its slash-separated path relative to
the directory, prefixed with --key when given.

Without --version each asset's version is its file's modification time.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, paths := args[0], args[1:]

		if addKey != "" && len(paths) > 1 {
			return fmt.Errorf("--key needs exactly one file or directory")
		}

		version := pack.VersionFromModTime
		if cmd.Flags().Changed("version") {
			version = addVersion
		}
		workers := cfg.Workers
		if cmd.Flags().Changed("workers") {
			workers = addWorkers
		}

		var p *pack.Package
		var err error
		if store.Exists(name) {
			p, err = store.Open(name)
		} else {
			slog.Info("Creating package", "package", name)
			p, err = store.Create(name)
		}
		if err != nil {
			return err
		}

		var files []ingest.File
		for _, path := range paths {
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			if !info.IsDir() {
				key := addKey
				if key == "" {
					key = filepath.Base(path)
				}
				files = append(files, ingest.File{Path: path, Key: key})
				continue
			}

			collected, err := ingest.NewImporter(p, ingest.WithPrefix(addKey)).Collect(path)
			if err != nil {
				return err
			}
			files = append(files, collected...)
		}

		if len(files) == 0 {
			slog.Info("No files to add")
			return nil
		}

		progress := utils.NewProgress(len(files), "adding", showProgress())
		importer := ingest.NewImporter(p,
			ingest.WithWorkers(workers),
			ingest.WithVersion(version),
			ingest.WithReplace(addReplace),
			ingest.WithProgress(progress.Callback()),
		)

		start := time.Now()
		result, err := importer.Import(cmd.Context(), files)
		progress.Finish()
		if err != nil {
			return err
		}

		duration := time.Since(start)
		var rate float64
		if duration.Seconds() > 0 {
			rate = float64(result.Added+result.Replaced) / duration.Seconds()
		}

		fmt.Printf("Added: %s\n", utils.Number(int64(result.Added)))
		fmt.Printf("Replaced: %s\n", utils.Number(int64(result.Replaced)))
		fmt.Printf("Skipped: %s\n", utils.Number(int64(result.Skipped)))
		fmt.Printf("Bytes: %s\n", utils.Bytes(result.Bytes))
		fmt.Printf("Duration: %s\n", utils.Duration(duration))
		fmt.Printf("Rate: %s assets/sec\n", utils.Rate(rate))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addKey, "key", "k", "", "key for a single file, or key prefix for a directory")
	addCmd.Flags().Uint32Var(&addVersion, "version", 0, "version stored for every asset (default file modification time)")
	addCmd.Flags().BoolVar(&addReplace, "replace", false, "replace assets that already exist instead of skipping them")
	addCmd.Flags().IntVarP(&addWorkers, "workers", "w", 0, "files compressed at once (default from config, 0 = CPUs)")
}
