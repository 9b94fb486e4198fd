package ir

import (
	"strconv"

	"fortio.org/safecast"
)

const (
	StartLabel = "function_start"
	EndLabel   = "function_end"
)

// Function is a defined function (fndef) or a foreign declaration (fndecl).
type Function struct {
	Name    string
	Args    []Type
	Ret     Type
	Foreign bool
	// Params are the argument variables $0..$n-1. RetSlot is the pointer
	// the function stores its result through; it is numbered right after
	// the arguments and is never printed.
	Params  []*Object
	RetSlot *Object
	Blocks  []*Block

	byLabel   map[string]*Block
	nextVar   uint32
	nextLabel uint32
}

func newFunction(name string, args []Type, ret Type, foreign bool) *Function {
	return &Function{
		Name:    name,
		Args:    args,
		Ret:     ret,
		Foreign: foreign,
		byLabel: make(map[string]*Block),
	}
}

// Block looks a placed block up by label.
func (f *Function) Block(label string) (*Block, bool) {
	b, ok := f.byLabel[label]
	return b, ok
}

func (f *Function) varName() string {
	n := f.nextVar
	f.nextVar++
	return strconv.FormatUint(uint64(n), 10)
}

func (f *Function) labelName() string {
	f.nextLabel++
	return "label_" + strconv.FormatUint(uint64(f.nextLabel), 10)
}

// reserveVar keeps generated names clear of a parsed numeric name.
func (f *Function) reserveVar(name string) {
	n, err := strconv.ParseUint(name, 10, 32)
	if err != nil {
		return
	}
	next, err := safecast.Conv[uint32](n + 1)
	if err == nil && next > f.nextVar {
		f.nextVar = next
	}
}

// InstructionCount is the number of expressions over all blocks.
func (f *Function) InstructionCount() int {
	n := 0
	for _, b := range f.Blocks {
		n += len(b.Exprs)
	}
	return n
}
