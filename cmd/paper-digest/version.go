package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of paper-digest",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("paper-digest %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
