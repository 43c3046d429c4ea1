package main

import (
	"fmt"

	"github.com/jchantrell/epack/internal/pack"
	"github.com/jchantrell/epack/internal/utils"
	"github.com/spf13/cobra"
)

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "List the packages under the root directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := store.List()
		if err != nil {
			return err
		}

		if len(names) == 0 {
			fmt.Printf("No packages in %s\n", store.Root())
			return nil
		}

		for _, name := range names {
			base, err := store.PackageBase(name)
			if err != nil {
				return err
			}
			size := store.FileSize(pack.HeaderPath(base)) + store.FileSize(pack.BundlePath(base))
			fmt.Printf("%-40s %s\n", name, utils.Bytes(size))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(packagesCmd)
}
