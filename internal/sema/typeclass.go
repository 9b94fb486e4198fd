package sema

import (
	"github.com/refu-lang/refu-sub002/internal/ast"
	"github.com/refu-lang/refu-sub002/internal/diag"
	"github.com/refu-lang/refu-sub002/internal/types"
)

// checkInstances validates each typeclass instance against its class and
// checks the bodies of its methods.
func (c *checker) checkInstances() Result {
	res := Continue
	for _, inst := range c.unit.Instances {
		if res = res.Join(c.checkInstance(inst)); res == Fatal {
			return res
		}
	}
	return res
}

func (c *checker) checkInstance(inst *Instance) Result {
	global := c.unit.Symbols.Global
	target, res := c.resolveType(global, c.tree.Child(inst.Decl, 0))
	if res.Failed() {
		return res
	}
	inst.Target = target

	impls := make(map[string]*Func)
	for _, impl := range c.tree.ChildrenOf(inst.Decl, ast.KindFnImpl) {
		decl := c.tree.Child(impl, 0)
		f := &Func{Name: c.tree.Name(decl), Decl: decl, Impl: impl}
		if _, dup := impls[f.Name]; dup {
			res = res.Join(c.errorf(diag.SemaDuplicateDecl, impl, "method %q is implemented twice", f.Name))
			continue
		}
		if res = res.Join(c.resolveFunc(f)); res == Fatal {
			return res
		}
		impls[f.Name] = f
		inst.Impls = append(inst.Impls, f)
		if f.Type != types.NoTypeID {
			if res = res.Join(c.checkFuncBody(f)); res == Fatal {
				return res
			}
		}
	}

	class, ok := c.unit.Classes[inst.Class]
	if !ok {
		return res.Join(c.errorf(diag.SemaMissingTypeclass, inst.Decl, "unknown typeclass %q", inst.Class))
	}
	// the class parameter stands for the instance target
	bound := c.unit.Symbols.Open(ScopeGenerics, global, inst.Decl)
	if class.Param != "" {
		if err := bound.Declare(&Symbol{Name: class.Param, Kind: SymType, Type: target, Decl: class.Decl}); err != nil {
			return c.fatal(err)
		}
	}
	declared := make(map[string]bool, len(class.Methods))
	for _, m := range class.Methods {
		name := c.tree.Name(m)
		declared[name] = true
		f, ok := impls[name]
		if !ok {
			res = res.Join(c.errorNote(diag.SemaTypeclassMismatch, inst.Decl, "declared here", c.tree.Span(m),
				"instance of %s for %s does not implement %q", class.Name, c.typeName(target), name))
			continue
		}
		params, ret, _, r := c.resolveSignature(bound, m)
		if res = res.Join(r); r.Failed() || f.Type == types.NoTypeID {
			continue
		}
		if !c.sameSignature(f, params, ret) {
			res = res.Join(c.errorNote(diag.SemaTypeclassMismatch, f.Decl, "declared here", c.tree.Span(m),
				"method %q of instance %s for %s does not match the typeclass signature",
				name, class.Name, c.typeName(target)))
		}
	}
	for _, f := range inst.Impls {
		if !declared[f.Name] {
			res = res.Join(c.errorf(diag.SemaTypeclassMismatch, f.Decl, "%q is not a method of typeclass %s", f.Name, class.Name))
		}
	}
	c.tree.Advance(inst.Decl, ast.StateTypeChecked)
	return res
}

func (c *checker) sameSignature(f *Func, params []Param, ret types.TypeID) bool {
	if len(f.Params) != len(params) {
		return false
	}
	for i, p := range params {
		if c.set.Unleaf(f.Params[i].Type) != c.set.Unleaf(p.Type) {
			return false
		}
	}
	return c.set.Unleaf(f.Ret) == c.set.Unleaf(ret)
}
