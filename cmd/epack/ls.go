package main

import (
	"fmt"
	"strings"

	"github.com/jchantrell/epack/internal/pack"
	"github.com/jchantrell/epack/internal/utils"
	"github.com/spf13/cobra"
)

var lsLong bool

var lsCmd = &cobra.Command{
	Use:   "ls <package>",
	Short: "List the assets of a package in name list order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := store.Open(args[0])
		if err != nil {
			return err
		}

		if !lsLong {
			for _, name := range p.Names() {
				fmt.Println(name)
			}
			return nil
		}

		fmt.Printf("%-12s %-12s %-10s %-10s %-16s %s\n",
			"Size", "Stored", "Offset", "CRC", "Version", "Name")
		fmt.Println(strings.Repeat("-", 80))

		return p.Walk(func(entry pack.HeaderEntry) error {
			crc := "-"
			if entry.CRC != 0 {
				crc = fmt.Sprintf("%08x", entry.CRC)
			}
			fmt.Printf("%-12s %-12s %-10d %-10s %-16s %s\n",
				utils.Bytes(int64(entry.OrgSize)),
				utils.Bytes(int64(entry.Size)),
				entry.Offset,
				crc,
				formatVersion(entry.Version),
				entry.Name)
			return nil
		})
	},
}

// formatVersion shows packed timestamps as dates and anything else as a number
func formatVersion(v uint32) string {
	if pack.IsPackedTime(v) {
		return pack.UnpackTime(v).Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("%d", v)
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "show sizes, offsets, checksums and versions")
}
