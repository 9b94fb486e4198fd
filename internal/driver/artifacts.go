package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/refu-lang/refu-sub002/internal/ir"
	"github.com/refu-lang/refu-sub002/internal/project"
	"github.com/refu-lang/refu-sub002/internal/version"
)

const (
	TextExt   = ".rir"
	BinaryExt = ".rirb"
)

// Emit writes the lowered module of r into dir and returns the written
// paths. Every file is replaced atomically.
func Emit(ctx context.Context, r *Result, dir string, format project.OutputFormat, opts Options) ([]string, error) {
	if r.Module == nil {
		return nil, fmt.Errorf("%s: nothing to emit: %w", r.Name, ir.ErrFailedUnit)
	}
	var written []string
	err := opts.phase(ctx, "emit", func(context.Context) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		if format.Text() {
			p := filepath.Join(dir, r.Name+TextExt)
			err := WriteAtomic(p, func(w io.Writer) error {
				if _, err := fmt.Fprintf(w, "// rfc %s unit %s hash %s\n", version.Version, r.Name, r.Hash.Short()); err != nil {
					return err
				}
				return ir.Print(w, r.Module)
			})
			if err != nil {
				return err
			}
			written = append(written, p)
		}
		if format.Binary() {
			p := filepath.Join(dir, r.Name+BinaryExt)
			if err := WriteAtomic(p, func(w io.Writer) error { return ir.EncodeModule(w, r.Module) }); err != nil {
				return err
			}
			written = append(written, p)
		}
		return nil
	})
	return written, err
}

// WriteAtomic writes through a temporary file in the target directory and
// renames it over path once fill succeeds.
func WriteAtomic(path string, fill func(io.Writer) error) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if err = fill(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
