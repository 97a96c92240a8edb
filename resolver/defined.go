package resolver

// DefinedSet records every symbol already emitted. It only grows.
type DefinedSet struct {
	names map[string]struct{}
	order []string
}

func NewDefinedSet() *DefinedSet {
	return &DefinedSet{names: make(map[string]struct{})}
}

func (s *DefinedSet) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Add marks name as defined and reports whether it was new.
func (s *DefinedSet) Add(name string) bool {
	if s.Has(name) {
		return false
	}
	s.names[name] = struct{}{}
	s.order = append(s.order, name)
	return true
}

func (s *DefinedSet) Len() int {
	return len(s.order)
}

// Names returns the defined symbols in the order they were first added.
func (s *DefinedSet) Names() []string {
	return append([]string(nil), s.order...)
}
