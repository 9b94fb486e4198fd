package ir

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/refu-lang/refu-sub002/internal/types"
)

// ErrSyntax marks malformed textual IR.
var ErrSyntax = errors.New("malformed IR")

// ParseError locates a failure in textual IR.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

type line struct {
	no   int
	text string
}

type fnBody struct {
	fn    *Function
	lines []line
}

type parser struct {
	m      *Module
	bodies []fnBody
}

// Parse reads a module printed by Print. Signatures, globals and typedefs
// are collected first so bodies may call functions defined further down.
func Parse(name string, r io.Reader) (*Module, error) {
	var lines []line
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for n := 1; sc.Scan(); n++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "//") {
			continue
		}
		lines = append(lines, line{no: n, text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	p := &parser{m: NewModule(name)}
	if err := p.header(lines); err != nil {
		return nil, err
	}
	for _, b := range p.bodies {
		if err := p.body(b); err != nil {
			return nil, err
		}
	}
	return p.m, nil
}

func syntaxErr(no int, format string, args ...any) error {
	return &ParseError{Line: no, Err: fmt.Errorf("%w: "+format, append([]any{ErrSyntax}, args...)...)}
}

func wrapErr(no int, err error) error {
	if err == nil {
		return nil
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	return &ParseError{Line: no, Err: err}
}

func (p *parser) header(lines []line) error {
	for i := 0; i < len(lines); i++ {
		ln := lines[i]
		switch {
		case strings.HasPrefix(ln.text, "fndecl("), strings.HasPrefix(ln.text, "fndef("):
			defined := strings.HasPrefix(ln.text, "fndef(")
			name, args, ret, err := parseSignature(ln.text)
			if err != nil {
				return wrapErr(ln.no, err)
			}
			if !defined {
				if _, err := p.m.DeclareFunction(name, args, ret); err != nil {
					return wrapErr(ln.no, err)
				}
				continue
			}
			f, err := p.m.DefineFunction(name, args, ret)
			if err != nil {
				return wrapErr(ln.no, err)
			}
			if i+1 >= len(lines) || lines[i+1].text != "{" {
				return syntaxErr(ln.no, "fndef %s without a body", name)
			}
			end := i + 2
			for end < len(lines) && lines[end].text != "}" {
				end++
			}
			if end == len(lines) {
				return syntaxErr(ln.no, "unterminated body of %s", name)
			}
			p.bodies = append(p.bodies, fnBody{fn: f, lines: lines[i+2 : end]})
			i = end
		case strings.HasPrefix(ln.text, "$"):
			if err := p.definition(ln); err != nil {
				return err
			}
		default:
			return syntaxErr(ln.no, "unexpected %q at module level", ln.text)
		}
	}
	return nil
}

// definition reads a global or a typedef.
func (p *parser) definition(ln line) error {
	name, rhs, ok := strings.Cut(ln.text[1:], " = ")
	if !ok || !isIdent(name) {
		return syntaxErr(ln.no, "bad definition %q", ln.text)
	}
	if strings.HasPrefix(rhs, "global(") && strings.HasSuffix(rhs, ")") {
		inner := rhs[len("global(") : len(rhs)-1]
		ts, lit, ok := strings.Cut(inner, ", ")
		if !ok {
			return syntaxErr(ln.no, "global %s needs a type and a value", name)
		}
		t, ok := ParseType(ts)
		if !ok {
			return syntaxErr(ln.no, "bad type %q", ts)
		}
		s, err := strconv.Unquote(lit)
		if err != nil {
			return syntaxErr(ln.no, "bad literal %s: %v", lit, err)
		}
		_, err = p.m.AddGlobal(name, t, s)
		return wrapErr(ln.no, err)
	}
	op, args, ok := splitCall(rhs)
	if !ok || (op != "typedef" && op != "uniondef") {
		return syntaxErr(ln.no, "unknown definition %q", rhs)
	}
	fields, err := parseTypes(args)
	if err != nil {
		return wrapErr(ln.no, err)
	}
	if _, err := p.m.AddTypedef(name, op == "uniondef", fields); err != nil {
		return wrapErr(ln.no, err)
	}
	return nil
}

func parseSignature(text string) (string, []Type, Type, error) {
	open := strings.IndexByte(text, '(')
	if !strings.HasSuffix(text, ")") {
		return "", nil, Type{}, fmt.Errorf("%w: %q", ErrSyntax, text)
	}
	parts := strings.Split(text[open+1:len(text)-1], ";")
	if len(parts) != 3 {
		return "", nil, Type{}, fmt.Errorf("%w: signature needs name; args; return", ErrSyntax)
	}
	name := strings.TrimSpace(parts[0])
	if !isIdent(name) {
		return "", nil, Type{}, fmt.Errorf("%w: bad function name %q", ErrSyntax, name)
	}
	args, err := parseTypes(splitArgs(parts[1]))
	if err != nil {
		return "", nil, Type{}, err
	}
	ret, ok := ParseType(parts[2])
	if !ok {
		return "", nil, Type{}, fmt.Errorf("%w: bad return type %q", ErrSyntax, parts[2])
	}
	return name, args, ret, nil
}

// parseTypes reads a type list where a lone nil means empty.
func parseTypes(ss []string) ([]Type, error) {
	if len(ss) == 1 && ss[0] == "nil" {
		return nil, nil
	}
	out := make([]Type, 0, len(ss))
	for _, s := range ss {
		t, ok := ParseType(s)
		if !ok {
			return nil, fmt.Errorf("%w: bad type %q", ErrSyntax, s)
		}
		out = append(out, t)
	}
	return out, nil
}

func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// splitCall splits "name(a, b)" into its name and arguments.
func splitCall(s string) (string, []string, bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", nil, false
	}
	return s[:open], splitArgs(s[open+1 : len(s)-1]), true
}

// bodyState holds the names visible while one function body is parsed.
type bodyState struct {
	fn     *Function
	vars   map[string]Value
	blocks map[string]*Block
	cur    *Block
}

func (p *parser) body(fb fnBody) error {
	st := &bodyState{fn: fb.fn, vars: make(map[string]Value), blocks: make(map[string]*Block)}
	for _, o := range fb.fn.Params {
		st.vars[o.Var.Name] = *o.Var
	}
	if fb.fn.RetSlot != nil {
		st.vars[fb.fn.RetSlot.Var.Name] = *fb.fn.RetSlot.Var
	}
	for _, ln := range fb.lines {
		if label, ok := strings.CutPrefix(ln.text, "%"); ok {
			if !isIdent(label) {
				return syntaxErr(ln.no, "bad label %q", ln.text)
			}
			if _, dup := st.blocks[label]; dup {
				return wrapErr(ln.no, fmt.Errorf("label %%%s: %w", label, ErrDuplicateObject))
			}
			st.blocks[label] = p.m.NewBlock(fb.fn, label)
		}
	}
	for _, ln := range fb.lines {
		if label, ok := strings.CutPrefix(ln.text, "%"); ok {
			st.cur = st.blocks[label]
			if err := p.m.Place(fb.fn, st.cur); err != nil {
				return wrapErr(ln.no, err)
			}
			continue
		}
		if st.cur == nil {
			return syntaxErr(ln.no, "instruction outside a block")
		}
		if err := p.instruction(st, ln); err != nil {
			return wrapErr(ln.no, err)
		}
	}
	return nil
}

func (p *parser) operand(st *bodyState, s string, hint Type) (Value, error) {
	if name, ok := strings.CutPrefix(s, "$"); ok {
		if v, ok := st.vars[name]; ok {
			return v, nil
		}
		if g, ok := p.m.Global(name); ok {
			return g.Value(), nil
		}
		return Value{}, fmt.Errorf("$%s: %w", name, ErrUnresolved)
	}
	if s == "nil" {
		return Nil, nil
	}
	c, ok := parseConstant(s)
	if !ok {
		return Value{}, fmt.Errorf("%w: bad operand %q", ErrSyntax, s)
	}
	v := Value{Category: ValConstant, Const: c}
	switch {
	case c.Kind == ConstBool:
		v.Type = BoolType
	case hint.IsScalar() && (hint.Elem.IsNumeric() || hint.Elem == types.ElemBool):
		v.Type = hint
	case c.Kind == ConstFloat:
		v.Type = Scalar(types.ElemF64)
	default:
		v.Type = Scalar(types.ElemI64)
	}
	return v, nil
}

func (p *parser) label(st *bodyState, s string) (*Block, error) {
	name, ok := strings.CutPrefix(s, "%")
	if !ok {
		return nil, fmt.Errorf("%w: expected a label, got %q", ErrSyntax, s)
	}
	b, ok := st.blocks[name]
	if !ok {
		return nil, fmt.Errorf("label %%%s: %w", name, ErrUnresolved)
	}
	return b, nil
}

func (p *parser) instruction(st *bodyState, ln line) error {
	text, result := ln.text, ""
	if strings.HasPrefix(text, "$") {
		lhs, rhs, ok := strings.Cut(text, " = ")
		if !ok {
			return fmt.Errorf("%w: %q", ErrSyntax, text)
		}
		result, text = lhs[1:], rhs
		if !isVarName(result) {
			return fmt.Errorf("%w: bad result name %q", ErrSyntax, lhs)
		}
		if _, dup := st.vars[result]; dup {
			return fmt.Errorf("$%s: %w", result, ErrDuplicateObject)
		}
	}
	name, args, ok := splitCall(text)
	if !ok {
		return fmt.Errorf("%w: %q", ErrSyntax, text)
	}
	if result == "" {
		if done, err := p.exit(st, name, args); done || err != nil {
			return err
		}
	}
	op, ok := opByName[name]
	if !ok {
		return fmt.Errorf("%w: unknown instruction %q", ErrSyntax, name)
	}
	e, err := p.expr(st, op, args)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	v, err := p.m.emit(st.fn, st.cur, e, result)
	if err != nil {
		return err
	}
	if v.IsVariable() {
		st.vars[v.Name] = v
	}
	return nil
}

// exit handles block terminators. The first result is false when name is
// not a terminator.
func (p *parser) exit(st *bodyState, name string, args []string) (bool, error) {
	switch name {
	case "branch":
		if len(args) != 1 {
			return true, fmt.Errorf("%w: branch takes one label", ErrSyntax)
		}
		dst, err := p.label(st, args[0])
		if err != nil {
			return true, err
		}
		return true, st.cur.Branch(dst)
	case "condbranch":
		if len(args) != 3 {
			return true, fmt.Errorf("%w: condbranch takes a condition and two labels", ErrSyntax)
		}
		cond, err := p.operand(st, args[0], BoolType)
		if err != nil {
			return true, err
		}
		taken, err := p.label(st, args[1])
		if err != nil {
			return true, err
		}
		fall, err := p.label(st, args[2])
		if err != nil {
			return true, err
		}
		return true, st.cur.CondBranch(cond, taken, fall)
	case "return":
		v := Nil
		switch len(args) {
		case 0:
		case 1:
			var err error
			if v, err = p.operand(st, args[0], st.fn.Ret); err != nil {
				return true, err
			}
		default:
			return true, fmt.Errorf("%w: return takes at most one value", ErrSyntax)
		}
		return true, st.cur.Return(v)
	default:
		return false, nil
	}
}

func (p *parser) expr(st *bodyState, op Op, args []string) (*Expr, error) {
	want := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%w: want %d operands, got %d", ErrSyntax, n, len(args))
		}
		return nil
	}
	typ := func(s string) (Type, error) {
		t, ok := ParseType(s)
		if !ok {
			return Type{}, fmt.Errorf("%w: bad type %q", ErrSyntax, s)
		}
		return t, nil
	}
	index := func(s string) (uint32, error) {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: bad index %q", ErrSyntax, s)
		}
		return uint32(n), nil
	}
	e := &Expr{Op: op}
	var err error
	switch {
	case op == OpConvert:
		if err = want(2); err != nil {
			return nil, err
		}
		if e.Type, err = typ(args[1]); err != nil {
			return nil, err
		}
		v, err := p.operand(st, args[0], Type{})
		if err != nil {
			return nil, err
		}
		e.Args = []Value{v}
	case op == OpAlloca:
		if err = want(1); err != nil {
			return nil, err
		}
		e.Type, err = typ(args[0])
	case op == OpWrite:
		if err = want(3); err != nil {
			return nil, err
		}
		if e.Type, err = typ(args[0]); err != nil {
			return nil, err
		}
		ptr, err := p.operand(st, args[1], Type{})
		if err != nil {
			return nil, err
		}
		v, err := p.operand(st, args[2], e.Type.Deref())
		if err != nil {
			return nil, err
		}
		e.Args = []Value{ptr, v}
	case op == OpCall:
		if len(args) < 2 || (args[1] != "foreign" && args[1] != "defined") {
			return nil, fmt.Errorf("%w: call needs a callee and foreign or defined", ErrSyntax)
		}
		f, ok := p.m.Function(args[0])
		if !ok {
			return nil, fmt.Errorf("function %q: %w", args[0], ErrUnresolved)
		}
		e.Callee, e.Foreign = args[0], args[1] == "foreign"
		for i, a := range args[2:] {
			var hint Type
			if i < len(f.Args) {
				hint = f.Args[i]
			}
			v, err := p.operand(st, a, hint)
			if err != nil {
				return nil, err
			}
			e.Args = append(e.Args, v)
		}
	case op.IsBinary():
		if err = want(2); err != nil {
			return nil, err
		}
		l, err := p.operand(st, args[0], Type{})
		if err != nil {
			return nil, err
		}
		r, err := p.operand(st, args[1], l.Type)
		if err != nil {
			return nil, err
		}
		if l.IsConstant() && r.IsVariable() && r.Type.IsScalar() {
			l.Type = r.Type
		}
		e.Args = []Value{l, r}
	case op == OpFixedArrSize, op == OpRead:
		if err = want(1); err != nil {
			return nil, err
		}
		v, err := p.operand(st, args[0], Type{})
		if err != nil {
			return nil, err
		}
		e.Args = []Value{v}
	case op == OpObjIdx:
		if err = want(2); err != nil {
			return nil, err
		}
		a, err := p.operand(st, args[0], Type{})
		if err != nil {
			return nil, err
		}
		i, err := p.operand(st, args[1], U64Type)
		if err != nil {
			return nil, err
		}
		e.Args = []Value{a, i}
	case op == OpObjMemberAt, op == OpSetUnionIdx:
		if err = want(2); err != nil {
			return nil, err
		}
		v, err := p.operand(st, args[0], Type{})
		if err != nil {
			return nil, err
		}
		if e.Index, err = index(args[1]); err != nil {
			return nil, err
		}
		e.Args = []Value{v}
	case op == OpUnionMemberAt, op == OpGetUnionIdx:
		n := 2
		if op == OpUnionMemberAt {
			n = 3
		}
		if err = want(n); err != nil {
			return nil, err
		}
		t, err := typ(args[0])
		if err != nil {
			return nil, err
		}
		v, err := p.operand(st, args[1], Type{})
		if err != nil {
			return nil, err
		}
		if !v.Type.Equal(t) {
			return nil, fmt.Errorf("%s is %s, not %s: %w", v, v.Type, t, ErrTypeMismatch)
		}
		if n == 3 {
			if e.Index, err = index(args[2]); err != nil {
				return nil, err
			}
		}
		e.Args = []Value{v}
	default:
		return nil, fmt.Errorf("%w: %s cannot appear here", ErrSyntax, op)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}
