package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var getOutput string

var getCmd = &cobra.Command{
	Use:   "get <package> <key>",
	Short: "Write one asset to a file or stdout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, key := args[0], args[1]

		if getOutput != "" {
			p, err := store.Open(name)
			if err != nil {
				return err
			}
			return p.RetrieveToFile(getOutput, key)
		}

		data, err := store.ReadAsset(name, key)
		if err != nil {
			return err
		}
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("writing to stdout: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().StringVarP(&getOutput, "output", "o", "", "output file (default stdout)")
}
