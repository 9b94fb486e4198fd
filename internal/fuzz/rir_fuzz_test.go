package fuzztests

import (
	"bytes"
	"strings"
	"testing"

	"github.com/refu-lang/refu-sub002/internal/ir"
)

func FuzzParseRIR(f *testing.F) {
	addTextSeeds(f)
	f.Fuzz(func(t *testing.T, data []byte) {
		m, err := ir.Parse("fuzz", bytes.NewReader(data))
		if err != nil {
			return
		}
		text := ir.String(m)
		back, err := ir.Parse("fuzz", strings.NewReader(text))
		if err != nil {
			t.Fatalf("printed module does not parse: %v\n%s", err, text)
		}
		if diff := ir.Diff(m, back); len(diff) != 0 {
			t.Fatalf("text round trip differs:\n%s", strings.Join(diff, "\n"))
		}
	})
}

func FuzzDecodeRIR(f *testing.F) {
	addBinarySeeds(f)
	f.Fuzz(func(t *testing.T, data []byte) {
		m, err := ir.DecodeModule(bytes.NewReader(data))
		if err != nil {
			return
		}
		var buf bytes.Buffer
		if err := ir.EncodeModule(&buf, m); err != nil {
			t.Fatalf("EncodeModule: %v", err)
		}
		back, err := ir.DecodeModule(&buf)
		if err != nil {
			t.Fatalf("re-encoded module does not decode: %v", err)
		}
		if diff := ir.Diff(m, back); len(diff) != 0 {
			t.Fatalf("binary round trip differs:\n%s", strings.Join(diff, "\n"))
		}
	})
}
