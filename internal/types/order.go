package types

// OrderDependencies returns ts with every type placed after the other inputs
// it directly contains. Duplicates are dropped. Inputs are expected to be
// acyclic; a cycle is cut at the node where it is detected.
func OrderDependencies(s *Set, ts []TypeID) []TypeID {
	inputs := make(map[TypeID]struct{}, len(ts))
	for _, t := range ts {
		inputs[t] = struct{}{}
	}
	out := make([]TypeID, 0, len(inputs))
	placed := make(map[TypeID]bool, len(inputs))
	visiting := make(map[TypeID]bool)

	var visit func(t TypeID)
	visit = func(t TypeID) {
		if placed[t] || visiting[t] {
			return
		}
		visiting[t] = true
		for _, dep := range ts {
			if dep == t {
				continue
			}
			if _, ok := s.DirectChildIndex(dep, t); ok {
				visit(dep)
			}
		}
		visiting[t] = false
		placed[t] = true
		out = append(out, t)
	}
	for _, t := range ts {
		visit(t)
	}
	return out
}
