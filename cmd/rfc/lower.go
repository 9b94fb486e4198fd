package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refu-lang/refu-sub002/internal/driver"
	"github.com/refu-lang/refu-sub002/internal/project"
)

var (
	lowerFlags  unitFlags
	lowerOut    string
	lowerFormat string
)

var lowerCmd = &cobra.Command{
	Use:   "lower [tree.rfast]",
	Short: "Analyse a unit and write its RIR",
	Long: `lower checks the unit like check does, lowers it to RIR and writes
<out>/<unit>.rir and/or <out>/<unit>.rirb`,
	Args: atMostOneTree,
	RunE: func(cmd *cobra.Command, args []string) error {
		timer := newTimer(cmd)
		defer printTimings(cmd, timer)

		c, err := analyzeUnit(cmd, args, &lowerFlags, timer)
		if err != nil {
			return err
		}
		dir, format := "build", project.OutputText
		if c.manifest != nil {
			dir, format = c.manifest.OutputDir(), c.manifest.Config.Output.Format
		}
		if cmd.Flags().Changed("out") {
			dir = lowerOut
		}
		if cmd.Flags().Changed("format") {
			format = project.OutputFormat(lowerFormat)
			if !format.Text() && !format.Binary() {
				return fmt.Errorf("invalid --format %q (expected text|binary|both)", lowerFormat)
			}
		}

		ctx := cmd.Context()
		if err := driver.Lower(ctx, c.result, c.opts); err != nil {
			return fmt.Errorf("lower %s: %w", c.result.Name, err)
		}
		written, err := driver.Emit(ctx, c.result, dir, format, c.opts)
		if err != nil {
			return err
		}
		for _, p := range written {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}

func init() {
	lowerFlags.register(lowerCmd)
	lowerCmd.Flags().StringVar(&lowerOut, "out", "build", "artifact directory (overrides [output].dir)")
	lowerCmd.Flags().StringVar(&lowerFormat, "format", "text", "artifacts to write: text|binary|both (overrides [output].format)")
}
