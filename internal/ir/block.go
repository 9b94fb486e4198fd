package ir

import "fmt"

// ExitKind is how control leaves a block.
type ExitKind uint8

const (
	ExitNone ExitKind = iota
	ExitBranch
	ExitCondBranch
	ExitReturn
)

func (k ExitKind) String() string {
	switch k {
	case ExitNone:
		return "none"
	case ExitBranch:
		return "branch"
	case ExitCondBranch:
		return "condbranch"
	case ExitReturn:
		return "return"
	default:
		return fmt.Sprintf("ExitKind(%d)", k)
	}
}

type Exit struct {
	Kind ExitKind `msgpack:"k"`
	// Target is the branch destination, or the taken label of a condbranch.
	Target      string `msgpack:"t,omitempty"`
	Fallthrough string `msgpack:"f,omitempty"`
	Cond        Value  `msgpack:"c,omitempty"`
	// Value is the returned value; Nil for a bare return.
	Value Value `msgpack:"v,omitempty"`
}

// Block is a basic block: a label, ordered expressions and one exit.
type Block struct {
	Label  string
	Object ObjectID
	Exprs  []*Object
	Exit   Exit
	// Scope is the lexical scope that was active when the block was placed.
	Scope *Scope
}

func (b *Block) Terminated() bool { return b.Exit.Kind != ExitNone }

// Emit appends an expression object.
func (b *Block) Emit(o *Object) error {
	if b.Terminated() {
		return fmt.Errorf("%%%s: %w", b.Label, ErrBlockTerminated)
	}
	if o == nil || o.Kind != ObjExpression {
		return fmt.Errorf("%%%s: only expressions can be emitted", b.Label)
	}
	b.Exprs = append(b.Exprs, o)
	return nil
}

func (b *Block) setExit(e Exit) error {
	if b.Terminated() {
		return fmt.Errorf("%%%s: %w", b.Label, ErrBlockTerminated)
	}
	b.Exit = e
	return nil
}

func (b *Block) Branch(target *Block) error {
	return b.setExit(Exit{Kind: ExitBranch, Target: target.Label})
}

func (b *Block) CondBranch(cond Value, taken, next *Block) error {
	return b.setExit(Exit{Kind: ExitCondBranch, Cond: cond, Target: taken.Label, Fallthrough: next.Label})
}

// Return ends the function; v is Nil for a bare return.
func (b *Block) Return(v Value) error {
	return b.setExit(Exit{Kind: ExitReturn, Value: v})
}

// Successors lists the labels control may reach from b.
func (b *Block) Successors() []string {
	switch b.Exit.Kind {
	case ExitBranch:
		return []string{b.Exit.Target}
	case ExitCondBranch:
		return []string{b.Exit.Target, b.Exit.Fallthrough}
	default:
		return nil
	}
}
