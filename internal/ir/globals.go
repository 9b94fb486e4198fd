package ir

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/refu-lang/refu-sub002/internal/types"
)

// StringGlobal returns the global holding lit, creating it on first use.
// Literals are NFC-normalized first so canonically equivalent spellings
// share one global named gstr_<hash>.
func (m *Module) StringGlobal(lit string) (Value, error) {
	key := norm.NFC.String(lit)
	if g, ok := m.strings[key]; ok {
		return g.Value(), nil
	}
	base := fmt.Sprintf("gstr_%d", types.UID(key))
	name := base
	for i := 2; ; i++ {
		if _, taken := m.globals[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
	g, err := m.AddGlobal(name, Scalar(types.ElemString), key)
	if err != nil {
		return Value{}, err
	}
	return g.Value(), nil
}
