package ir

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const indent = "    "

// Print writes m in the textual IR form that Parse reads back. Globals come
// first, then typedefs in dependency order, foreign declarations and
// function definitions.
func Print(w io.Writer, m *Module) error {
	if w == nil || m == nil {
		return nil
	}
	for _, g := range m.Globals {
		if _, err := fmt.Fprintf(w, "$%s = global(%s, %s)\n", g.Name, g.Type, strconv.Quote(g.Literal)); err != nil {
			return err
		}
	}
	for _, td := range m.Typedefs {
		kw := "typedef"
		if td.Union {
			kw = "uniondef"
		}
		if _, err := fmt.Fprintf(w, "$%s = %s(%s)\n", td.Name, kw, joinTypes(td.Fields)); err != nil {
			return err
		}
	}
	for _, f := range m.Decls {
		if _, err := fmt.Fprintf(w, "fndecl(%s)\n", signature(f)); err != nil {
			return err
		}
	}
	for _, f := range m.Funcs {
		if err := printFunc(w, f); err != nil {
			return err
		}
	}
	return nil
}

// String renders m with Print.
func String(m *Module) string {
	var sb strings.Builder
	_ = Print(&sb, m)
	return sb.String()
}

func joinTypes(ts []Type) string {
	if len(ts) == 0 {
		return "nil"
	}
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func signature(f *Function) string {
	return f.Name + "; " + joinTypes(f.Args) + "; " + f.Ret.String()
}

func printFunc(w io.Writer, f *Function) error {
	if _, err := fmt.Fprintf(w, "fndef(%s)\n{\n", signature(f)); err != nil {
		return err
	}
	for _, b := range f.Blocks {
		if _, err := fmt.Fprintf(w, "%%%s\n", b.Label); err != nil {
			return err
		}
		for _, o := range b.Exprs {
			if _, err := fmt.Fprintf(w, "%s%s\n", indent, FormatExpr(o.Expr)); err != nil {
				return err
			}
		}
		if b.Terminated() {
			if _, err := fmt.Fprintf(w, "%s%s\n", indent, FormatExit(b.Exit)); err != nil {
				return err
			}
		}
	}
	_, err := io.WriteString(w, "}\n")
	return err
}

// FormatExpr renders one instruction without indentation.
func FormatExpr(e *Expr) string {
	var sb strings.Builder
	if e.HasValue() {
		sb.WriteString(e.Val.String())
		sb.WriteString(" = ")
	}
	sb.WriteString(e.Op.String())
	sb.WriteByte('(')
	args := make([]string, 0, len(e.Args)+3)
	arg := func(i int) string {
		if i < len(e.Args) {
			return e.Args[i].String()
		}
		return "nil"
	}
	index := strconv.FormatUint(uint64(e.Index), 10)
	switch e.Op {
	case OpConvert:
		args = append(args, arg(0), e.Type.String())
	case OpWrite:
		args = append(args, e.Type.String(), arg(0), arg(1))
	case OpAlloca:
		args = append(args, e.Type.String())
	case OpCall:
		kind := "defined"
		if e.Foreign {
			kind = "foreign"
		}
		args = append(args, e.Callee, kind)
		for _, a := range e.Args {
			args = append(args, a.String())
		}
	case OpObjMemberAt, OpSetUnionIdx:
		args = append(args, arg(0), index)
	case OpUnionMemberAt:
		args = append(args, argType(e), arg(0), index)
	case OpGetUnionIdx:
		args = append(args, argType(e), arg(0))
	default:
		for _, a := range e.Args {
			args = append(args, a.String())
		}
	}
	sb.WriteString(strings.Join(args, ", "))
	sb.WriteByte(')')
	return sb.String()
}

func argType(e *Expr) string {
	if len(e.Args) == 0 {
		return "nil"
	}
	return e.Args[0].Type.String()
}

// FormatExit renders a block exit.
func FormatExit(x Exit) string {
	switch x.Kind {
	case ExitBranch:
		return "branch(%" + x.Target + ")"
	case ExitCondBranch:
		return fmt.Sprintf("condbranch(%s, %%%s, %%%s)", x.Cond, x.Target, x.Fallthrough)
	case ExitReturn:
		if x.Value.Category == ValNil {
			return "return()"
		}
		return "return(" + x.Value.String() + ")"
	default:
		return ""
	}
}
