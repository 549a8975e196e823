package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ilexum-group/amcache/internal/amcache"
	"github.com/ilexum-group/amcache/internal/export"
)

// NewSearchCmd filters a CSV export by hash or path substring.
func NewSearchCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "search <export.csv|-> [needle]",
		Short: "Search a CSV export by SHA1 or path, case-insensitively",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open export: %w", err)
				}
				defer file.Close()
				in = file
			}

			entries, err := export.ReadCSV(in)
			if err != nil {
				return err
			}

			needle := ""
			if len(args) == 2 {
				needle = args[1]
			}
			return export.Write(cmd.OutOrStdout(), f, amcache.Search(entries, needle))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatTable), "output format (table|csv|jsonl)")
	return cmd
}
