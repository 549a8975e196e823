// Package main is the amcache command: offline Amcache hive extraction with
// custody records.
package main

import (
	"os"

	"github.com/ilexum-group/amcache/internal/cli"
	"github.com/ilexum-group/amcache/internal/utils"
)

func main() {
	if err := utils.InitDefaultLogger(os.Getenv("AMCACHE_LOG_LEVEL")); err != nil {
		_, _ = os.Stderr.WriteString("invalid AMCACHE_LOG_LEVEL: " + err.Error() + "\n")
		os.Exit(2)
	}
	if err := cli.NewRootCmd().Execute(); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
