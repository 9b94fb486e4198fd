package ir

import (
	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/types"
)

// lowerIf chains one conditional branch per if/elif arm. The last arm
// without an else falls through to the continuation block, which is only
// placed when some arm reaches it.
func (l *lowerer) lowerIf(stmt ast.NodeID) error {
	n := l.tree.Get(stmt)
	type arm struct{ cond, body ast.NodeID }
	arms := []arm{{n.Children[0], n.Children[1]}}
	elseBody := ast.NoNodeID
	for _, tail := range n.Children[2:] {
		switch l.tree.Kind(tail) {
		case ast.KindElif:
			arms = append(arms, arm{l.tree.Child(tail, 0), l.tree.Child(tail, 1)})
		case ast.KindElse:
			elseBody = l.tree.Child(tail, 0)
		}
		l.tree.Advance(tail, ast.StateLowered)
	}

	var after *Block
	continuation := func() *Block {
		if after == nil {
			after = l.b.NewBlock()
		}
		return after
	}
	join := func() error {
		if l.b.Terminated() {
			return nil
		}
		return l.b.Branch(continuation())
	}
	boolT := l.set.Elementary(types.ElemBool)

	for i, a := range arms {
		cond, err := l.lowerExpr(a.cond)
		if err != nil {
			return err
		}
		if cond, err = l.coerce(cond, l.tree.TypeOf(a.cond), boolT); err != nil {
			return err
		}
		then := l.b.NewBlock()
		var next *Block
		if i < len(arms)-1 || elseBody.IsValid() {
			next = l.b.NewBlock()
		} else {
			next = continuation()
		}
		if err := l.b.CondBranch(cond, then, next); err != nil {
			return err
		}
		if err := l.b.Place(then); err != nil {
			return err
		}
		if err := l.lowerBlock(a.body); err != nil {
			return err
		}
		if err := join(); err != nil {
			return err
		}
		if next != after {
			if err := l.b.Place(next); err != nil {
				return err
			}
		}
	}
	if elseBody.IsValid() {
		if err := l.lowerBlock(elseBody); err != nil {
			return err
		}
		if err := join(); err != nil {
			return err
		}
	}
	if after == nil {
		return nil
	}
	return l.b.Place(after)
}
