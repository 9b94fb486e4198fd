package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/refu-lang/refu-sub002/internal/driver"
	"github.com/refu-lang/refu-sub002/internal/observ"
	"github.com/refu-lang/refu-sub002/internal/project"
	"github.com/refu-lang/refu-sub002/internal/source"
)

// unitFlags are shared by check and lower.
type unitFlags struct {
	manifest         string
	source           string
	name             string
	short            bool
	warningsAsErrors bool
}

func (f *unitFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.manifest, "manifest", "", "path to rfc.toml (default: search upwards)")
	cmd.Flags().StringVar(&f.source, "source", "", "source text of a single tree, for diagnostics")
	cmd.Flags().StringVar(&f.name, "name", "", "unit name of a single tree (default: file name)")
	cmd.Flags().BoolVar(&f.short, "short", false, "one line per diagnostic")
	cmd.Flags().BoolVar(&f.warningsAsErrors, "warnings-as-errors", false, "treat warnings as errors")
}

// compiled is an analysed unit plus where it came from.
type compiled struct {
	result   *driver.Result
	manifest *project.Manifest // nil for a single tree
	opts     driver.Options
}

// analyzeUnit checks the tree given as argument or, without one, the
// project of the manifest. Diagnostics are printed; errDiagnostics is
// returned when the unit failed.
func analyzeUnit(cmd *cobra.Command, args []string, flags *unitFlags, timer *observ.Timer) (*compiled, error) {
	opts := driver.Options{
		MaxDiagnostics:   maxDiagnostics(cmd),
		WarningsAsErrors: flags.warningsAsErrors,
		Timer:            timer,
	}
	ctx := cmd.Context()

	var c compiled
	if len(args) == 1 {
		name := flags.name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		r, err := driver.CheckFile(ctx, name, args[0], flags.source, opts)
		if r == nil {
			return nil, err
		}
		c = compiled{result: r, opts: opts}
		if perr := printDiagnostics(cmd, r.Bag, r.Files, flags.short); perr != nil {
			return nil, perr
		}
		if err != nil {
			return nil, err
		}
	} else {
		path := flags.manifest
		if path == "" {
			found, ok, err := project.FindManifest(".")
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("%w; pass a tree file or --manifest", project.ErrNoManifest)
			}
			path = found
		}
		fs := source.NewFileSet()
		m, err := project.LoadManifest(path, fs)
		if err != nil {
			return nil, err
		}
		r, err := driver.CheckProject(ctx, m, fs, opts)
		if r == nil {
			return nil, err
		}
		c = compiled{result: r, manifest: m, opts: opts}
		if perr := printDiagnostics(cmd, r.Bag, r.Files, flags.short); perr != nil {
			return nil, perr
		}
		if err != nil {
			return nil, err
		}
	}
	if c.result.Failed() {
		return &c, errDiagnostics
	}
	return &c, nil
}

var errArgs = errors.New("expected at most one syntax tree")

func atMostOneTree(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errArgs
	}
	return nil
}
