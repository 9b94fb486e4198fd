package ir

import "fmt"

// Scope is one lexical level of name bindings.
type Scope struct {
	names map[string]ObjectID
}

func newScope() *Scope { return &Scope{names: make(map[string]ObjectID)} }

func (s *Scope) Lookup(name string) (ObjectID, bool) {
	id, ok := s.names[name]
	return id, ok
}

func (s *Scope) Len() int { return len(s.names) }

// Resolver maps source names to IR objects at two levels: the active
// function (a stack of lexical scopes) and the module.
type Resolver struct {
	global *Scope
	local  []*Scope // nil outside functions
}

func NewResolver() *Resolver {
	return &Resolver{global: newScope()}
}

// EnterFunction starts a fresh function level.
func (r *Resolver) EnterFunction() {
	r.local = []*Scope{newScope()}
}

// LeaveFunction drops every local binding.
func (r *Resolver) LeaveFunction() {
	r.local = nil
}

func (r *Resolver) InFunction() bool { return r.local != nil }

// Push opens a nested lexical scope inside the active function.
func (r *Resolver) Push() *Scope {
	if r.local == nil {
		return r.global
	}
	s := newScope()
	r.local = append(r.local, s)
	return s
}

// Pop closes the innermost nested scope. The function scope stays.
func (r *Resolver) Pop() {
	if len(r.local) > 1 {
		r.local = r.local[:len(r.local)-1]
	}
}

// Current is the scope AddObject writes to.
func (r *Resolver) Current() *Scope {
	if len(r.local) == 0 {
		return r.global
	}
	return r.local[len(r.local)-1]
}

// AddObject binds name in the current scope.
func (r *Resolver) AddObject(name string, id ObjectID) error {
	s := r.Current()
	if _, ok := s.names[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrDuplicateObject)
	}
	s.names[name] = id
	return nil
}

// GetObject resolves name through the function scopes, innermost first,
// then the module.
func (r *Resolver) GetObject(name string) (ObjectID, error) {
	for i := len(r.local) - 1; i >= 0; i-- {
		if id, ok := r.local[i].names[name]; ok {
			return id, nil
		}
	}
	if id, ok := r.global.names[name]; ok {
		return id, nil
	}
	return NoObjectID, fmt.Errorf("%q: %w", name, ErrUnresolved)
}

// forget drops every binding that refers to id.
func (r *Resolver) forget(id ObjectID) {
	for _, s := range append([]*Scope{r.global}, r.local...) {
		for name, got := range s.names {
			if got == id {
				delete(s.names, name)
			}
		}
	}
}
