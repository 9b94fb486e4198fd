package ir

import "fmt"

// Builder appends instructions to the current block of one function.
type Builder struct {
	m   *Module
	fn  *Function
	cur *Block
}

func NewBuilder(m *Module, fn *Function) *Builder {
	return &Builder{m: m, fn: fn}
}

func (b *Builder) Module() *Module     { return b.m }
func (b *Builder) Function() *Function { return b.fn }
func (b *Builder) Current() *Block     { return b.cur }

// NewBlock creates a block with a fresh label. It is not placed yet.
func (b *Builder) NewBlock() *Block { return b.m.NewBlock(b.fn, "") }

// Place appends blk to the function and makes it current.
func (b *Builder) Place(blk *Block) error {
	if err := b.m.Place(b.fn, blk); err != nil {
		return err
	}
	b.cur = blk
	return nil
}

// Terminated reports whether the current block already has its exit.
func (b *Builder) Terminated() bool { return b.cur == nil || b.cur.Terminated() }

// Emit types e, numbers its result and appends it to the current block.
func (b *Builder) Emit(e *Expr) (Value, error) {
	if b.cur == nil {
		return Value{}, fmt.Errorf("%s: no current block", b.fn.Name)
	}
	return b.m.emit(b.fn, b.cur, e, "")
}

// emit appends e to blk. A defined result is called name, or the next
// free number of f when name is empty.
func (m *Module) emit(f *Function, blk *Block, e *Expr, name string) (Value, error) {
	if blk.Terminated() {
		return Value{}, fmt.Errorf("%s: %%%s: %w", f.Name, blk.Label, ErrBlockTerminated)
	}
	t, has, err := m.resultType(e)
	if err != nil {
		return Value{}, fmt.Errorf("%s: %w", f.Name, err)
	}
	if !has && name != "" {
		return Value{}, fmt.Errorf("%s: %s defines no value but is assigned to $%s", f.Name, e.Op, name)
	}
	o := m.Objects.New(ObjExpression)
	o.Expr = e
	e.Val = Nil
	if has {
		if name == "" {
			name = f.varName()
		} else {
			f.reserveVar(name)
		}
		e.Val = Value{Category: ValVariable, Type: t, Name: name, Object: o.ID}
	}
	if err := blk.Emit(o); err != nil {
		m.Objects.Destroy(o.ID, m.Resolver)
		return Value{}, err
	}
	return e.Val, nil
}

func (b *Builder) Convert(v Value, t Type) (Value, error) {
	return b.Emit(&Expr{Op: OpConvert, Args: []Value{v}, Type: t})
}

func (b *Builder) Alloca(t Type) (Value, error) {
	return b.Emit(&Expr{Op: OpAlloca, Type: t})
}

func (b *Builder) Read(ptr Value) (Value, error) {
	return b.Emit(&Expr{Op: OpRead, Args: []Value{ptr}})
}

func (b *Builder) Write(ptr, v Value) error {
	if !ptr.Type.Pointer {
		return fmt.Errorf("%s: write through non-pointer %s", b.fn.Name, ptr)
	}
	_, err := b.Emit(&Expr{Op: OpWrite, Args: []Value{ptr, v}, Type: ptr.Type})
	return err
}

func (b *Builder) Call(f *Function, args ...Value) (Value, error) {
	return b.Emit(&Expr{Op: OpCall, Callee: f.Name, Foreign: f.Foreign, Args: args})
}

// Binary emits an arithmetic, comparison or logic instruction. When both
// operands are constants the left one is materialized so the result type
// stays recoverable from the operands.
func (b *Builder) Binary(op Op, l, r Value) (Value, error) {
	if !op.IsBinary() {
		return Value{}, fmt.Errorf("%s is not a binary operator", op)
	}
	if l.IsConstant() && r.IsConstant() {
		var err error
		if l, err = b.Convert(l, l.Type); err != nil {
			return Value{}, err
		}
	}
	return b.Emit(&Expr{Op: op, Args: []Value{l, r}})
}

func (b *Builder) FixedArrSize(arr Value) (Value, error) {
	return b.Emit(&Expr{Op: OpFixedArrSize, Args: []Value{arr}})
}

func (b *Builder) ObjIdx(arr, idx Value) (Value, error) {
	return b.Emit(&Expr{Op: OpObjIdx, Args: []Value{arr, idx}})
}

func (b *Builder) ObjMemberAt(obj Value, idx uint32) (Value, error) {
	return b.Emit(&Expr{Op: OpObjMemberAt, Args: []Value{obj}, Index: idx})
}

func (b *Builder) UnionMemberAt(obj Value, idx uint32) (Value, error) {
	return b.Emit(&Expr{Op: OpUnionMemberAt, Args: []Value{obj}, Index: idx})
}

func (b *Builder) GetUnionIdx(obj Value) (Value, error) {
	return b.Emit(&Expr{Op: OpGetUnionIdx, Args: []Value{obj}})
}

func (b *Builder) SetUnionIdx(obj Value, idx uint32) error {
	_, err := b.Emit(&Expr{Op: OpSetUnionIdx, Args: []Value{obj}, Index: idx})
	return err
}

func (b *Builder) Branch(target *Block) error { return b.cur.Branch(target) }

func (b *Builder) CondBranch(cond Value, taken, next *Block) error {
	return b.cur.CondBranch(cond, taken, next)
}

func (b *Builder) Return(v Value) error { return b.cur.Return(v) }
