package ir

import "github.com/refu-lang/refu-sub002/internal/ast"

// lowerFor walks a fixed size array with a u64 index slot:
//
//	cond:  $i = read(idx); $done = cmpeq($i, size); condbranch($done, after, body)
//	body:  $k = read(idx); bind objidx(arr, $k), run the block,
//	       write(idx, add($k, 1)), branch(cond)
func (l *lowerer) lowerFor(stmt ast.NodeID) error {
	iter, body := l.tree.Child(stmt, 0), l.tree.Child(stmt, 1)
	arr, ok, err := l.lowerPlace(iter)
	if err != nil {
		return err
	}
	if !ok {
		if arr, err = l.lowerExpr(iter); err != nil {
			return err
		}
	}
	l.tree.Advance(iter, ast.StateLowered)
	size, err := l.b.FixedArrSize(arr)
	if err != nil {
		return err
	}
	idx, err := l.b.Alloca(U64Type)
	if err != nil {
		return err
	}
	if err := l.b.Write(idx, IntConst(0, U64Type)); err != nil {
		return err
	}

	cond, loop, after := l.b.NewBlock(), l.b.NewBlock(), l.b.NewBlock()
	if err := l.b.Branch(cond); err != nil {
		return err
	}
	if err := l.b.Place(cond); err != nil {
		return err
	}
	i, err := l.b.Read(idx)
	if err != nil {
		return err
	}
	done, err := l.b.Binary(OpCmpEQ, i, size)
	if err != nil {
		return err
	}
	if err := l.b.CondBranch(done, after, loop); err != nil {
		return err
	}

	if err := l.b.Place(loop); err != nil {
		return err
	}
	k, err := l.b.Read(idx)
	if err != nil {
		return err
	}
	l.m.Resolver.Push()
	elem, err := l.b.ObjIdx(arr, k)
	if err == nil {
		err = l.m.Resolver.AddObject(l.tree.Name(stmt), elem.Object)
	}
	if err == nil {
		err = l.lowerBlock(body)
	}
	l.m.Resolver.Pop()
	if err != nil {
		return err
	}
	if !l.b.Terminated() {
		// the index slot is private to the loop, so $k is still current
		next, err := l.b.Binary(OpAdd, k, IntConst(1, U64Type))
		if err != nil {
			return err
		}
		if err := l.b.Write(idx, next); err != nil {
			return err
		}
		if err := l.b.Branch(cond); err != nil {
			return err
		}
	}
	return l.b.Place(after)
}
