package fuzztests

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/refu-lang/refu-sub002/internal/ir"
)

const maxSeedBytes = 64 << 10

var textSeeds = []string{
	"",
	"fndecl(print; string; nil)\n",
	`$gstr_3784272022 = global(string, "foo")
$internal_struct_4260204557 = uniondef(i64, u64, string)
fndecl(print; string; nil)
fndef(main; nil; u32)
{
%function_start
    call(print, foreign, $gstr_3784272022)
    $1 = convert(0, u32)
    write(u32*, $0, $1)
    branch(%function_end)
%function_end
    $2 = read($0)
    return($2)
}
`,
	`$Point = typedef(i32, i32)
fndef(origin; nil; Point)
{
%function_start
    $1 = objmemberat($0, 0)
    $2 = convert(0, i32)
    write(i32*, $1, $2)
    branch(%function_end)
%function_end
    return()
}
`,
}

// addTextSeeds adds the inline samples plus every .rir file under testdata.
func addTextSeeds(f *testing.F) {
	for _, s := range textSeeds {
		f.Add([]byte(s))
	}
	root := "testdata"
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".rir" {
			return nil
		}
		// #nosec G304 -- path comes from the testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

// addBinarySeeds encodes every text seed that parses.
func addBinarySeeds(f *testing.F) {
	f.Add([]byte{})
	for _, s := range textSeeds {
		m, err := ir.Parse("seed", bytes.NewReader([]byte(s)))
		if err != nil {
			continue
		}
		var buf bytes.Buffer
		if err := ir.EncodeModule(&buf, m); err != nil {
			continue
		}
		f.Add(buf.Bytes())
	}
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
