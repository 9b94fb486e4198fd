package ast

import (
	"github.com/refu-lang/refu-sub002/internal/source"
	"github.com/refu-lang/refu-sub002/internal/types"
)

// Builder assembles trees programmatically. Every node gets the builder's
// current span, which callers may move with At.
type Builder struct {
	Tree *Tree
	span source.Span
}

func NewBuilder(capHint uint) *Builder {
	return &Builder{Tree: NewTree(capHint)}
}

// At sets the span attached to subsequently created nodes.
func (b *Builder) At(sp source.Span) *Builder {
	b.span = sp
	return b
}

func (b *Builder) node(kind Kind, name string, children ...NodeID) NodeID {
	n := Node{Kind: kind, Span: b.span, Children: children}
	if name != "" {
		n.Name = b.Tree.Strings.Intern(name)
	}
	return b.Tree.New(n)
}

// Structure ------------------------------------------------------------------

func (b *Builder) Root(name string, items ...NodeID) NodeID {
	id := b.node(KindRoot, name, items...)
	b.Tree.Root = id
	return id
}

func (b *Builder) Module(name string, items ...NodeID) NodeID {
	return b.node(KindModule, name, items...)
}

func (b *Builder) Import(module string) NodeID {
	return b.node(KindImport, module)
}

func (b *Builder) TypeDecl(name string, desc NodeID, generics ...NodeID) NodeID {
	return b.node(KindTypeDecl, name, append([]NodeID{desc}, generics...)...)
}

// FnDecl declares a function. args and ret may be NoNodeID.
func (b *Builder) FnDecl(name string, args, ret NodeID, generics ...NodeID) NodeID {
	return b.node(KindFnDecl, name, append([]NodeID{args, ret}, generics...)...)
}

func (b *Builder) FnImpl(decl, body NodeID) NodeID {
	return b.node(KindFnImpl, "", decl, body)
}

func (b *Builder) Block(stmts ...NodeID) NodeID {
	return b.node(KindBlock, "", stmts...)
}

// Var declares a variable. typ and init may be NoNodeID.
func (b *Builder) Var(name string, typ, init NodeID) NodeID {
	return b.node(KindVarDecl, name, typ, init)
}

func (b *Builder) Return(value NodeID) NodeID {
	return b.node(KindReturn, "", value)
}

// Type descriptions ------------------------------------------------------------

func (b *Builder) TypeDesc(expr NodeID) NodeID {
	return b.node(KindTypeDesc, "", expr)
}

func (b *Builder) TypeOp(op types.Op, operands ...NodeID) NodeID {
	id := b.node(KindTypeOp, "", operands...)
	b.Tree.Get(id).TypeOp = op
	return id
}

func (b *Builder) Sum(operands ...NodeID) NodeID { return b.TypeOp(types.OpSum, operands...) }

func (b *Builder) Product(operands ...NodeID) NodeID {
	return b.TypeOp(types.OpProduct, operands...)
}

func (b *Builder) Implication(args, ret NodeID) NodeID {
	return b.TypeOp(types.OpImplication, args, ret)
}

func (b *Builder) Leaf(name string, typ NodeID) NodeID {
	return b.node(KindTypeLeaf, name, typ)
}

func (b *Builder) TypeRef(name string) NodeID {
	return b.node(KindTypeRef, name)
}

func (b *Builder) ArraySpec(member NodeID, dims ...uint64) NodeID {
	id := b.node(KindArraySpec, "", member)
	b.Tree.Get(id).Dims = append([]uint64(nil), dims...)
	return id
}

// Expressions ------------------------------------------------------------------

func (b *Builder) Ident(name string) NodeID {
	return b.node(KindIdentifier, name)
}

func (b *Builder) Int(v uint64) NodeID {
	id := b.node(KindIntConst, "")
	b.Tree.Get(id).Int = v
	return id
}

func (b *Builder) Float(v float64) NodeID {
	id := b.node(KindFloatConst, "")
	b.Tree.Get(id).Float = v
	return id
}

func (b *Builder) Bool(v bool) NodeID {
	id := b.node(KindBoolConst, "")
	b.Tree.Get(id).Bool = v
	return id
}

func (b *Builder) String(v string) NodeID {
	id := b.node(KindStringLit, "")
	b.Tree.Get(id).Str = v
	return id
}

func (b *Builder) Binary(op BinaryOp, lhs, rhs NodeID) NodeID {
	id := b.node(KindBinary, "", lhs, rhs)
	b.Tree.Get(id).Bin = op
	return id
}

func (b *Builder) Unary(op UnaryOp, operand NodeID) NodeID {
	id := b.node(KindUnary, "", operand)
	b.Tree.Get(id).Un = op
	return id
}

func (b *Builder) Call(callee string, args ...NodeID) NodeID {
	return b.node(KindCall, callee, args...)
}

func (b *Builder) Index(arr, idx NodeID) NodeID {
	return b.node(KindIndex, "", arr, idx)
}

func (b *Builder) Member(obj NodeID, name string) NodeID {
	return b.node(KindMember, name, obj)
}

// Control flow ---------------------------------------------------------------

// If builds an if statement; tails are Elif nodes optionally followed by an Else.
func (b *Builder) If(cond, body NodeID, tails ...NodeID) NodeID {
	return b.node(KindIf, "", append([]NodeID{cond, body}, tails...)...)
}

func (b *Builder) Elif(cond, body NodeID) NodeID {
	return b.node(KindElif, "", cond, body)
}

func (b *Builder) Else(body NodeID) NodeID {
	return b.node(KindElse, "", body)
}

func (b *Builder) For(loopVar string, iterable, body NodeID) NodeID {
	return b.node(KindFor, loopVar, iterable, body)
}

func (b *Builder) Match(scrutinee NodeID, cases ...NodeID) NodeID {
	return b.node(KindMatch, "", append([]NodeID{scrutinee}, cases...)...)
}

// Case builds a match arm. binding may be empty.
func (b *Builder) Case(pattern NodeID, binding string, body NodeID) NodeID {
	return b.node(KindMatchCase, binding, pattern, body)
}

// Generics and typeclasses -----------------------------------------------------

func (b *Builder) Generic(name string) NodeID {
	return b.node(KindGeneric, name)
}

func (b *Builder) Typeclass(name string, members ...NodeID) NodeID {
	return b.node(KindTypeclass, name, members...)
}

func (b *Builder) Instance(class string, target NodeID, impls ...NodeID) NodeID {
	return b.node(KindTypeInstance, class, append([]NodeID{target}, impls...)...)
}
