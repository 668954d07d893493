package supervisor

// entry pairs a declared spec with its current runtime ref. The registry
// is internal to the supervisor actor and single-writer, so it carries no
// locking of its own - callers (the supervisor's message loop) already
// serialize access.
type entry struct {
	spec ChildSpec
	ref  ChildRef
}

// childRegistry is the ordered key -> (spec, ref) map described in
// spec §4.1: insertion order is preserved for RestartAll iteration, and
// key uniqueness is enforced on insert.
type childRegistry struct {
	order []string
	byKey map[string]*entry
}

func newChildRegistry() *childRegistry {
	return &childRegistry{byKey: make(map[string]*entry)}
}

func (r *childRegistry) insert(spec ChildSpec, ref ChildRef) error {
	if existing, ok := r.byKey[spec.Key]; ok {
		return &DuplicateKeyError{Existing: existing.ref}
	}
	r.byKey[spec.Key] = &entry{spec: spec, ref: ref}
	r.order = append(r.order, spec.Key)
	return nil
}

func (r *childRegistry) remove(key string) {
	if _, ok := r.byKey[key]; !ok {
		return
	}
	delete(r.byKey, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *childRegistry) updateSpec(key string, spec ChildSpec) bool {
	e, ok := r.byKey[key]
	if !ok {
		return false
	}
	e.spec = spec
	return true
}

func (r *childRegistry) updateRef(key string, ref ChildRef) bool {
	e, ok := r.byKey[key]
	if !ok {
		return false
	}
	e.ref = ref
	return true
}

func (r *childRegistry) get(key string) (entry, bool) {
	e, ok := r.byKey[key]
	if !ok {
		return entry{}, false
	}
	return *e, true
}

// list returns every entry in insertion order.
func (r *childRegistry) list() []entry {
	out := make([]entry, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, *r.byKey[k])
	}
	return out
}

// keysDirected returns every key, LeftToRight (insertion order) or
// RightToLeft (reverse insertion order).
func (r *childRegistry) keysDirected(dir Direction) []string {
	keys := make([]string, len(r.order))
	copy(keys, r.order)
	if dir == RightToLeft {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	return keys
}

func (r *childRegistry) len() int { return len(r.order) }
