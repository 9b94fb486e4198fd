package ir

import (
	"fmt"
	"iter"

	"fortio.org/safecast"
)

// ObjectID addresses an object in a module arena. 0 means "no object".
type ObjectID uint32

const NoObjectID ObjectID = 0

// ObjectKind tags what an Object holds.
type ObjectKind uint8

const (
	ObjInvalid ObjectKind = iota
	ObjExpression
	ObjBlock
	ObjTypeDef
	ObjGlobal
	ObjVariable
)

func (k ObjectKind) String() string {
	switch k {
	case ObjExpression:
		return "expression"
	case ObjBlock:
		return "block"
	case ObjTypeDef:
		return "typedef"
	case ObjGlobal:
		return "global"
	case ObjVariable:
		return "variable"
	default:
		return fmt.Sprintf("ObjectKind(%d)", k)
	}
}

// Object is a tagged IR entity. Exactly one payload matches Kind.
type Object struct {
	ID      ObjectID
	Kind    ObjectKind
	Expr    *Expr
	Block   *Block
	Typedef *Typedef
	Global  *Global
	Var     *Value // function arguments and the return slot
}

// Name is the textual identity the object is bound under.
func (o *Object) Name() string {
	switch o.Kind {
	case ObjExpression:
		if o.Expr != nil {
			return o.Expr.Val.Name
		}
	case ObjBlock:
		if o.Block != nil {
			return o.Block.Label
		}
	case ObjTypeDef:
		if o.Typedef != nil {
			return o.Typedef.Name
		}
	case ObjGlobal:
		if o.Global != nil {
			return o.Global.Name
		}
	case ObjVariable:
		if o.Var != nil {
			return o.Var.Name
		}
	}
	return ""
}

// Objects is a module's object arena. Removed slots stay tombstoned so ids
// are never reused.
type Objects struct {
	slots []*Object
	live  int
}

func NewObjects(capHint uint) *Objects {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Objects{slots: make([]*Object, 1, capHint+1)}
}

// New allocates an object of kind.
func (a *Objects) New(kind ObjectKind) *Object {
	id, err := safecast.Conv[uint32](len(a.slots))
	if err != nil {
		panic(fmt.Errorf("ir object arena overflow: %w", err))
	}
	o := &Object{ID: ObjectID(id), Kind: kind}
	a.slots = append(a.slots, o)
	a.live++
	return o
}

// Get returns a live object.
func (a *Objects) Get(id ObjectID) (*Object, bool) {
	if id == NoObjectID || int(id) >= len(a.slots) || a.slots[id] == nil {
		return nil, false
	}
	return a.slots[id], true
}

// Value returns the value an object produces. Blocks and typedefs have none.
func (a *Objects) Value(id ObjectID) (Value, error) {
	o, ok := a.Get(id)
	if !ok {
		return Value{}, fmt.Errorf("object %d: %w", id, ErrNoValue)
	}
	switch o.Kind {
	case ObjExpression:
		if o.Expr != nil && o.Expr.HasValue() {
			return o.Expr.Val, nil
		}
	case ObjGlobal:
		if o.Global != nil {
			return o.Global.Value(), nil
		}
	case ObjVariable:
		if o.Var != nil {
			return *o.Var, nil
		}
	}
	return Value{}, fmt.Errorf("%s object %d: %w", o.Kind, id, ErrNoValue)
}

// Remove tombstones id and unbinds it from whichever resolver map holds
// it. r may be nil.
func (a *Objects) Remove(id ObjectID, r *Resolver) bool {
	if _, ok := a.Get(id); !ok {
		return false
	}
	if r != nil {
		r.forget(id)
	}
	a.slots[id] = nil
	a.live--
	return true
}

// Destroy removes id and clears its payload.
func (a *Objects) Destroy(id ObjectID, r *Resolver) bool {
	o, ok := a.Get(id)
	if !ok {
		return false
	}
	a.Remove(id, r)
	o.Expr, o.Block, o.Typedef, o.Global, o.Var = nil, nil, nil, nil, nil
	return true
}

// Teardown drops every object regardless of scope bindings and returns
// how many were live.
func (a *Objects) Teardown() int {
	n := a.live
	for i := range a.slots {
		a.slots[i] = nil
	}
	a.slots = a.slots[:1]
	a.live = 0
	return n
}

// Len is the number of live objects.
func (a *Objects) Len() int { return a.live }

// Live iterates live objects in allocation order.
func (a *Objects) Live() iter.Seq[*Object] {
	return func(yield func(*Object) bool) {
		for _, o := range a.slots {
			if o != nil && !yield(o) {
				return
			}
		}
	}
}
