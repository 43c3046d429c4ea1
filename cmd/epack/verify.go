package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var verifyDeep bool

var verifyCmd = &cobra.Command{
	Use:   "verify <package>",
	Short: "Check package consistency",
	Long: `Verify checks that the name list, the catalog and the asset count agree,
that every payload lies within the bundle file without overlapping another,
and that the header file on disk matches. With --deep every asset is also
decompressed and checked against its stored checksum.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := store.Open(args[0])
		if err != nil {
			return err
		}

		if err := p.Verify(verifyDeep); err != nil {
			return err
		}

		slog.Info("Package verified", "package", args[0], "assets", p.AssetCount(), "deep", verifyDeep)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolVar(&verifyDeep, "deep", false, "decompress and checksum every asset")
}
