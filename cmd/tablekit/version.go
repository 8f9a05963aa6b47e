package main

import (
	"github.com/spf13/cobra"
)

// version is stamped at release time via -ldflags "-X main.version=v1.2.3".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tablekit version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("tablekit %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
