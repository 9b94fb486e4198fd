package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refu-lang/refu-sub002/internal/prof"
)

var activeProfile *prof.Session

func setupProfiling(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return err
	}
	if opts.Mem, err = flags.GetString("mem-profile"); err != nil {
		return err
	}
	if opts.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return err
	}
	if !opts.Enabled() {
		return nil
	}
	s, err := prof.Start(opts)
	if err != nil {
		return fmt.Errorf("profiling: %w", err)
	}
	activeProfile = s
	return nil
}

func stopProfiling(cmd *cobra.Command) {
	s := activeProfile
	activeProfile = nil
	if err := s.Stop(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "profiling: %v\n", err)
	}
}
