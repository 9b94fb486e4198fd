package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/diagfmt"
	"github.com/refu-lang/refu-sub002/internal/observ"
	"github.com/refu-lang/refu-sub002/internal/source"
)

// errDiagnostics fails a command whose diagnostics were already printed.
var errDiagnostics = errors.New("compilation failed")

// useColor resolves --color against the stdout terminal. It also sets the
// fatih/color default so every coloured writer agrees.
func useColor(cmd *cobra.Command) (bool, error) {
	flag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, err
	}
	var on bool
	switch flag {
	case "on":
		on = true
	case "off":
		on = false
	case "auto":
		on = isTerminal(os.Stdout)
	default:
		return false, fmt.Errorf("invalid --color %q (expected auto|on|off)", flag)
	}
	color.NoColor = !on
	return on, nil
}

func maxDiagnostics(cmd *cobra.Command) int {
	n, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return 0
	}
	return n
}

// newTimer returns a timer when --timings is set.
func newTimer(cmd *cobra.Command) *observ.Timer {
	on, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil || !on {
		return nil
	}
	return observ.NewTimer()
}

func printTimings(cmd *cobra.Command, t *observ.Timer) {
	if t == nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), t.Report().Table())
}

// printDiagnostics writes bag in the short or the pretty format.
func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet, short bool) error {
	if bag.Len() == 0 {
		return nil
	}
	out := cmd.OutOrStdout()
	if short {
		_, err := fmt.Fprintln(out, diag.FormatShort(bag.Items(), fs, true))
		return err
	}
	colored, err := useColor(cmd)
	if err != nil {
		return err
	}
	if err := diagfmt.Pretty(out, bag, fs, diagfmt.PrettyOpts{
		Color:     colored,
		PathMode:  diagfmt.PathModeAsIs,
		ShowNotes: true,
	}); err != nil {
		return err
	}
	if n := bag.Dropped(); n > 0 {
		_, err = fmt.Fprintf(out, "... %d more diagnostics not shown\n", n)
	}
	return err
}
