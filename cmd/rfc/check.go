package main

import (
	"github.com/spf13/cobra"
)

var checkFlags unitFlags

var checkCmd = &cobra.Command{
	Use:   "check [tree.rfast]",
	Short: "Analyse a unit and print diagnostics",
	Long: `check runs semantic analysis over a single syntax tree, or over the
project described by rfc.toml when no tree is given`,
	Args: atMostOneTree,
	RunE: func(cmd *cobra.Command, args []string) error {
		timer := newTimer(cmd)
		defer printTimings(cmd, timer)
		_, err := analyzeUnit(cmd, args, &checkFlags, timer)
		return err
	},
}

func init() {
	checkFlags.register(checkCmd)
}
