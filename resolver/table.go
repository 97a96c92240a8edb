package resolver

// Function is one function-pointer slot: the pointer typedef name and the
// command it is resolved from.
type Function struct {
	Proc   string
	Name   string
	Result string
	Params []string
}

// Storage is the name of the variable holding the resolved pointer.
func (f Function) Storage() string {
	return "__" + f.Name
}

type VersionFunctions struct {
	Number    string
	Guard     string
	Macro     string
	Functions []Function
}

// FunctionTable lists the functions introduced by each version, in ascending
// version order and registry order within a version.
type FunctionTable []VersionFunctions

// Each visits every function with the version that introduced it.
func (t FunctionTable) Each(fn func(VersionFunctions, Function)) {
	for _, v := range t {
		for _, f := range v.Functions {
			fn(v, f)
		}
	}
}

func (t FunctionTable) Len() int {
	var n int
	for _, v := range t {
		n += len(v.Functions)
	}
	return n
}

// Names returns every command name in table order.
func (t FunctionTable) Names() []string {
	names := make([]string, 0, t.Len())
	t.Each(func(_ VersionFunctions, f Function) {
		names = append(names, f.Name)
	})
	return names
}
