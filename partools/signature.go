// Package partools binds positional and keyword call arguments to named
// function parameters, and splits them into the partitioned and
// non-partitioned subsets a splitter needs.
//
// Go has no native *args/**kwargs calling convention, so NamedArguments
// models it explicitly: a fixed ordered mapping from declared parameter
// name to value, plus a tail of variadic positional values and a map of
// variadic named ("keyword") extras.
package partools

import "fmt"

// ArgKind identifies the role a declared parameter plays in a call.
type ArgKind int

const (
	// KindPositionalOrNamed parameters may be supplied positionally or by
	// name.
	KindPositionalOrNamed ArgKind = iota
	// KindNamedOnly parameters may only be supplied by name.
	KindNamedOnly
	// KindPositionalOnly parameters may only be supplied positionally.
	// FunctionSignature construction rejects any parameter of this kind;
	// it exists so callers can describe why a candidate signature was
	// rejected.
	KindPositionalOnly
	// KindVarPositional marks the (at most one) trailing variadic
	// positional parameter.
	KindVarPositional
	// KindVarNamed marks the (at most one) variadic named-extras
	// parameter.
	KindVarNamed
)

// Parameter describes one declared parameter of a target function.
type Parameter struct {
	Name       string
	Kind       ArgKind
	Default    any
	HasDefault bool
}

// FunctionSignature is the ordered parameter list of a target function.
type FunctionSignature struct {
	Parameters       []Parameter
	HasVarPositional bool
	HasVarNamed      bool

	index map[string]int
}

// NewSignature builds a FunctionSignature from its parameters, in
// declaration order. It rejects positional-only parameters with a
// descriptive error, and rejects more than one variadic parameter of the
// same kind.
func NewSignature(params ...Parameter) (*FunctionSignature, error) {
	sig := &FunctionSignature{
		Parameters: params,
		index:      make(map[string]int, len(params)),
	}
	for i, p := range params {
		switch p.Kind {
		case KindPositionalOnly:
			return nil, fmt.Errorf("partools: parameter %q is positional-only, which parfun does not support: %w", p.Name, ErrPositionalOnly)
		case KindVarPositional:
			if sig.HasVarPositional {
				return nil, fmt.Errorf("partools: signature declares more than one variadic positional parameter")
			}
			sig.HasVarPositional = true
		case KindVarNamed:
			if sig.HasVarNamed {
				return nil, fmt.Errorf("partools: signature declares more than one variadic named parameter")
			}
			sig.HasVarNamed = true
		}
		if _, exists := sig.index[p.Name]; exists {
			return nil, fmt.Errorf("partools: duplicate parameter name %q", p.Name)
		}
		sig.index[p.Name] = i
	}
	return sig, nil
}

// ErrPositionalOnly is returned (wrapped) by NewSignature when a
// positional-only parameter is declared.
var ErrPositionalOnly = fmt.Errorf("positional-only parameters are not supported")

// HasParameter reports whether name is a declared, non-variadic
// parameter of the signature.
func (s *FunctionSignature) HasParameter(name string) bool {
	i, ok := s.index[name]
	if !ok {
		return false
	}
	kind := s.Parameters[i].Kind
	return kind != KindVarPositional && kind != KindVarNamed
}

// Assign binds positional and named call arguments to the declared
// parameters, filling defaults, detecting positional/named conflicts, and
// collecting variadic tail/extras when the signature allows them.
func (s *FunctionSignature) Assign(positional []any, named map[string]any) (NamedArguments, error) {
	args := NamedArguments{
		Values:    make(map[string]any, len(s.Parameters)),
		signature: s,
	}

	namedParams := 0
	for _, p := range s.Parameters {
		if p.Kind != KindVarPositional && p.Kind != KindVarNamed {
			namedParams++
		}
	}

	consumed := 0
	for _, p := range s.Parameters {
		switch p.Kind {
		case KindVarPositional, KindVarNamed:
			continue
		}
		var value any
		haveValue := false

		if p.Kind != KindNamedOnly && consumed < len(positional) {
			value = positional[consumed]
			haveValue = true
			consumed++
			if _, clash := named[p.Name]; clash {
				return NamedArguments{}, fmt.Errorf("partools: parameter %q given both positionally and by name", p.Name)
			}
		} else if v, ok := named[p.Name]; ok {
			value = v
			haveValue = true
		} else if p.HasDefault {
			value = p.Default
			haveValue = true
		}

		if !haveValue {
			return NamedArguments{}, fmt.Errorf("partools: missing required parameter %q", p.Name)
		}
		args.Values[p.Name] = value
	}

	if consumed < len(positional) {
		if !s.HasVarPositional {
			return NamedArguments{}, fmt.Errorf("partools: too many positional arguments: %d declared, %d given", namedParams, len(positional))
		}
		args.PositionalTail = append([]any(nil), positional[consumed:]...)
	}

	for name, v := range named {
		if s.HasParameter(name) {
			continue
		}
		if !s.HasVarNamed {
			return NamedArguments{}, fmt.Errorf("partools: unexpected named argument %q", name)
		}
		if args.NamedExtras == nil {
			args.NamedExtras = make(map[string]any)
		}
		args.NamedExtras[name] = v
	}

	return args, nil
}
