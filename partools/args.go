package partools

import "fmt"

// NamedArguments is an ordered mapping from parameter name to value, plus
// a tail of variadic positional values and a map of variadic named
// extras. Every name in Values is a declared parameter of the target
// signature; values outside the declared parameters live in
// PositionalTail / NamedExtras instead.
type NamedArguments struct {
	Values         map[string]any
	PositionalTail []any
	NamedExtras    map[string]any

	signature *FunctionSignature
}

// Signature returns the FunctionSignature these arguments were bound
// against, or nil if they were constructed directly (e.g. by a
// splitter emitting a partition payload).
func (a NamedArguments) Signature() *FunctionSignature {
	return a.signature
}

// Merge returns the disjoint union of a and other. Overlapping names in
// either Values or NamedExtras are a ConfigurationError-shaped error;
// PositionalTail is concatenated (a and then other).
func (a NamedArguments) Merge(other NamedArguments) (NamedArguments, error) {
	out := NamedArguments{
		Values:    make(map[string]any, len(a.Values)+len(other.Values)),
		signature: a.signature,
	}
	if out.signature == nil {
		out.signature = other.signature
	}
	for k, v := range a.Values {
		out.Values[k] = v
	}
	for k, v := range other.Values {
		if _, exists := out.Values[k]; exists {
			return NamedArguments{}, fmt.Errorf("partools: merge conflict on parameter %q", k)
		}
		out.Values[k] = v
	}

	if len(a.PositionalTail) > 0 || len(other.PositionalTail) > 0 {
		out.PositionalTail = append(append([]any(nil), a.PositionalTail...), other.PositionalTail...)
	}

	if len(a.NamedExtras) > 0 || len(other.NamedExtras) > 0 {
		out.NamedExtras = make(map[string]any, len(a.NamedExtras)+len(other.NamedExtras))
		for k, v := range a.NamedExtras {
			out.NamedExtras[k] = v
		}
		for k, v := range other.NamedExtras {
			if _, exists := out.NamedExtras[k]; exists {
				return NamedArguments{}, fmt.Errorf("partools: merge conflict on named extra %q", k)
			}
			out.NamedExtras[k] = v
		}
	}

	return out, nil
}

// AsCallArgs splits the bound arguments back into positional and named
// form, respecting the declaration order of the signature they were
// bound against. Parameters with KindPositionalOrNamed are emitted
// positionally; KindNamedOnly parameters are emitted in the named map.
// PositionalTail and NamedExtras are appended/merged in.
func (a NamedArguments) AsCallArgs() ([]any, map[string]any) {
	named := make(map[string]any, len(a.NamedExtras))
	for k, v := range a.NamedExtras {
		named[k] = v
	}

	if a.signature == nil {
		// No declared order to respect: everything goes through
		// NamedExtras-equivalent named form.
		for k, v := range a.Values {
			named[k] = v
		}
		return append([]any(nil), a.PositionalTail...), named
	}

	positional := make([]any, 0, len(a.signature.Parameters))
	for _, p := range a.signature.Parameters {
		v, ok := a.Values[p.Name]
		if !ok {
			continue
		}
		switch p.Kind {
		case KindNamedOnly:
			named[p.Name] = v
		default:
			positional = append(positional, v)
		}
	}
	positional = append(positional, a.PositionalTail...)

	return positional, named
}
