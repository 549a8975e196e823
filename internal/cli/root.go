// Package cli implements the amcache command line.
package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ilexum-group/amcache/internal/version"
)

// NewRootCmd builds the amcache command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "amcache",
		Short:         "Extract execution history from a Windows Amcache hive",
		Long:          "Reads Root\\File and Root\\InventoryApplicationFile records from an offline Amcache.hve, flags executions from low-trust locations and exports the timeline with a custody record.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewVersionCmd())

	cmd.SetVersionTemplate(fmt.Sprintf("%s (%s/%s)\n", version.Version, runtime.GOOS, runtime.GOARCH))
	cmd.Version = version.Version

	return cmd
}
