package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"fortio.org/safecast"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/driver"
	"github.com/refu-lang/refu-sub002/internal/ir"
	"github.com/refu-lang/refu-sub002/internal/source"
	"github.com/refu-lang/refu-sub002/internal/trace"
)

var rirCmd = &cobra.Command{
	Use:   "rir",
	Short: "Work with textual and binary RIR files",
}

var (
	rirJobs     int
	rirShort    bool
	fmtWrite    bool
	fmtCheck    bool
	codecOut    string
	statsFormat string
)

func init() {
	rirCmd.PersistentFlags().IntVarP(&rirJobs, "jobs", "j", 0, "files processed concurrently (0 = GOMAXPROCS)")
	rirCmd.PersistentFlags().BoolVar(&rirShort, "short", false, "one line per diagnostic")

	rirFmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "rewrite files in place")
	rirFmtCmd.Flags().BoolVar(&fmtCheck, "check", false, "list files that are not canonical and fail")
	rirEncodeCmd.Flags().StringVarP(&codecOut, "output", "o", "", "output path (default: input with "+driver.BinaryExt+")")
	rirDecodeCmd.Flags().StringVarP(&codecOut, "output", "o", "", "output path (default: input with "+driver.TextExt+")")
	rirStatsCmd.Flags().StringVar(&statsFormat, "format", "text", "output format (text|yaml|json)")

	rirCmd.AddCommand(rirFmtCmd, rirVerifyCmd, rirEncodeCmd, rirDecodeCmd, rirStatsCmd)
}

// rirFile is one input of fmt or verify.
type rirFile struct {
	path string
	id   source.FileID
	mod  *ir.Module
	err  error
}

// parseRIRFiles parses paths concurrently. Per-file failures are kept in
// rirFile.err; the returned error is reserved for I/O and cancellation.
func parseRIRFiles(ctx context.Context, paths []string, validate bool) (*source.FileSet, []*rirFile, error) {
	fs := source.NewFileSet()
	files := make([]*rirFile, len(paths))
	for i, p := range paths {
		id, err := fs.Load(p)
		if err != nil {
			return nil, nil, err
		}
		files[i] = &rirFile{path: p, id: id}
	}

	g, ctx := errgroup.WithContext(ctx)
	limit := rirJobs
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)
	for _, f := range files {
		content := fs.Get(f.id).Content
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, span := trace.Start(ctx, trace.ScopeModule, "rir.parse")
			f.mod, f.err = ir.Parse(moduleName(f.path), bytes.NewReader(content))
			if f.err == nil && validate {
				f.err = ir.Validate(f.mod)
			}
			detail := f.path
			if f.err != nil {
				detail += ": failed"
			}
			span.End(detail)
			return nil
		})
	}
	return fs, files, g.Wait()
}

func moduleName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// reportRIR turns a parse or validation failure into diagnostics.
func reportRIR(bag *diag.Bag, fs *source.FileSet, f *rirFile) {
	if f.err == nil {
		return
	}
	var pe *ir.ParseError
	if errors.As(f.err, &pe) {
		bag.Add(diag.New(diag.SevError, rirCode(pe.Err), lineSpan(fs.Get(f.id), pe.Line), pe.Err.Error()))
		return
	}
	errs := []error{f.err}
	if joined, ok := f.err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, err := range errs {
		bag.Add(diag.New(diag.SevError, diag.RIRInvalid, source.Span{File: f.id}, err.Error()))
	}
}

func rirCode(err error) diag.Code {
	switch {
	case errors.Is(err, ir.ErrSyntax):
		return diag.RIRSyntax
	case errors.Is(err, ir.ErrUnresolved):
		return diag.RIRUnknownValue
	case errors.Is(err, ir.ErrDuplicateObject):
		return diag.RIRDuplicate
	default:
		return diag.RIRInvalid
	}
}

// lineSpan covers the 1-based line n of f.
func lineSpan(f *source.File, n int) source.Span {
	sp := source.Span{File: f.ID}
	if n <= 0 {
		return sp
	}
	if n > 1 && n-2 < len(f.LineIdx) {
		sp.Start = f.LineIdx[n-2] + 1
	}
	sp.End = sp.Start
	if n-1 < len(f.LineIdx) {
		sp.End = f.LineIdx[n-1]
	} else if end, err := safecast.Conv[uint32](len(f.Content)); err == nil && end > sp.Start {
		sp.End = end
	}
	return sp
}

// finishRIR prints the collected diagnostics and fails when there are any.
func finishRIR(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) error {
	bag.Sort()
	if err := printDiagnostics(cmd, bag, fs, rirShort); err != nil {
		return err
	}
	if bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}

var rirVerifyCmd = &cobra.Command{
	Use:   "verify file.rir...",
	Short: "Parse and validate RIR files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, files, err := parseRIRFiles(cmd.Context(), args, true)
		if err != nil {
			return err
		}
		bag := diag.NewBag(maxOrDefault(cmd))
		for _, f := range files {
			reportRIR(bag, fs, f)
		}
		if err := finishRIR(cmd, bag, fs); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) ok\n", len(files))
		return nil
	},
}

var rirFmtCmd = &cobra.Command{
	Use:   "fmt file.rir...",
	Short: "Print RIR files in canonical form",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, files, err := parseRIRFiles(cmd.Context(), args, false)
		if err != nil {
			return err
		}
		bag := diag.NewBag(maxOrDefault(cmd))
		out := cmd.OutOrStdout()
		unformatted := 0
		for _, f := range files {
			if f.err != nil {
				reportRIR(bag, fs, f)
				continue
			}
			canonical := ir.String(f.mod)
			same := canonical == string(fs.Get(f.id).Content)
			switch {
			case fmtCheck:
				if !same {
					unformatted++
					fmt.Fprintln(out, f.path)
				}
			case fmtWrite:
				if same {
					continue
				}
				if err := driver.WriteAtomic(f.path, func(w io.Writer) error {
					_, err := io.WriteString(w, canonical)
					return err
				}); err != nil {
					return err
				}
			default:
				if _, err := io.WriteString(out, canonical); err != nil {
					return err
				}
			}
		}
		if err := finishRIR(cmd, bag, fs); err != nil {
			return err
		}
		if unformatted > 0 {
			return fmt.Errorf("%d file(s) not in canonical form", unformatted)
		}
		return nil
	},
}

var rirEncodeCmd = &cobra.Command{
	Use:   "encode file.rir",
	Short: "Convert textual RIR to the binary form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs, files, err := parseRIRFiles(cmd.Context(), args, true)
		if err != nil {
			return err
		}
		if f := files[0]; f.err != nil {
			bag := diag.NewBag(maxOrDefault(cmd))
			reportRIR(bag, fs, f)
			return finishRIR(cmd, bag, fs)
		}
		out := codecOutput(args[0], driver.BinaryExt)
		return driver.WriteAtomic(out, func(w io.Writer) error { return ir.EncodeModule(w, files[0].mod) })
	},
}

var rirDecodeCmd = &cobra.Command{
	Use:   "decode file.rirb",
	Short: "Convert binary RIR to the textual form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := readModule(args[0])
		if err != nil {
			return err
		}
		out := codecOutput(args[0], driver.TextExt)
		if out == "-" {
			return ir.Print(cmd.OutOrStdout(), m)
		}
		return driver.WriteAtomic(out, func(w io.Writer) error { return ir.Print(w, m) })
	},
}

func codecOutput(in, ext string) string {
	if codecOut != "" {
		return codecOut
	}
	return strings.TrimSuffix(in, filepath.Ext(in)) + ext
}

// readModule loads binary RIR, or textual RIR for any other extension.
func readModule(path string) (*ir.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if filepath.Ext(path) == driver.BinaryExt {
		return ir.DecodeModule(f)
	}
	return ir.Parse(moduleName(path), f)
}

var rirStatsCmd = &cobra.Command{
	Use:   "stats file",
	Short: "Summarize the typedefs and functions of a RIR module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := readModule(args[0])
		if err != nil {
			return err
		}
		stats := ir.Summarize(m)
		out := cmd.OutOrStdout()
		switch statsFormat {
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(stats); err != nil {
				return err
			}
			return enc.Close()
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		case "text":
			return renderStats(out, stats)
		default:
			return fmt.Errorf("unsupported format %q (must be text, yaml or json)", statsFormat)
		}
	},
}

func renderStats(w io.Writer, s ir.Stats) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "module %s: %d objects, %d globals, %d blocks, %d instructions\n",
		s.Module, s.Objects, s.Globals, s.Blocks, s.Instructions)
	for _, td := range s.Typedefs {
		kind := "typedef"
		if td.Union {
			kind = "uniondef"
		}
		fmt.Fprintf(&sb, "  %-8s %-28s %6d bytes\n", kind, td.Name, td.Bytes)
	}
	for _, f := range s.Functions {
		if f.Foreign {
			fmt.Fprintf(&sb, "  fndecl   %s\n", f.Name)
			continue
		}
		fmt.Fprintf(&sb, "  fndef    %-28s %3d blocks %5d instructions\n", f.Name, f.Blocks, f.Instructions)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func maxOrDefault(cmd *cobra.Command) int {
	if n := maxDiagnostics(cmd); n > 0 {
		return n
	}
	return 100
}
