package ir

// ValueType is a WebAssembly primitive value type.
type ValueType uint8

const (
	I32 ValueType = iota
	I64
	F32
	F64
)

func (t ValueType) String() string {
	switch t {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "unknown"
	}
}

// FunctionType is the signature of a function: ordered parameter types
// followed by ordered result types.
//
// Non-goal: multi-value returns are not modeled; Results longer than one
// element is rejected by the driver (driver.validate), not here, so that FunctionType
// stays a plain structural value usable for CallIndirect equality checks.
type FunctionType struct {
	Params  []ValueType `yaml:"params,omitempty"`
	Results []ValueType `yaml:"results,omitempty"`
}

// Equal performs strict structural equality, as required when resolving
// call_indirect targets against a type index.
func (f FunctionType) Equal(o FunctionType) bool {
	if len(f.Params) != len(o.Params) || len(f.Results) != len(o.Results) {
		return false
	}
	for i := range f.Params {
		if f.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range f.Results {
		if f.Results[i] != o.Results[i] {
			return false
		}
	}
	return true
}
