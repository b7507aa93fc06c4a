package params

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/YuminosukeSato/skbatch/pkg/errors"
)

// Kind is the Go type a hyperparameter value is coerced to.
type Kind int

const (
	Float Kind = iota
	Int
	Bool
	String
	FloatSlice
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float64"
	case Int:
		return "int"
	case Bool:
		return "bool"
	case String:
		return "string"
	case FloatSlice:
		return "[]float64"
	default:
		return "unknown"
	}
}

// Spec declares one hyperparameter of a learner.
type Spec struct {
	// Name is the canonical key passed to SetParams.
	Name string
	// Kind is the type values are coerced to.
	Kind Kind
	// Aliases are alternative external names (e.g. camelCase spellings).
	Aliases []string
	// Default is the value the learner starts with; informational.
	Default interface{}
	// Nullable allows a nil value (e.g. "no class prior").
	Nullable bool
}

// Described is implemented by learners that publish their hyperparameters.
type Described interface {
	ParamSpecs() []Spec
}

// Mapper resolves external parameter names to canonical names and coerces
// values to the declared kinds.
type Mapper struct {
	specs   map[string]Spec
	aliases map[string]string
	folded  map[string]string
}

// NewMapper builds a mapper from specs.
func NewMapper(specs ...Spec) *Mapper {
	m := &Mapper{
		specs:   make(map[string]Spec, len(specs)),
		aliases: make(map[string]string),
		folded:  make(map[string]string),
	}
	for _, s := range specs {
		m.specs[s.Name] = s
		m.add(s.Name, s.Name)
		for _, alias := range s.Aliases {
			m.add(alias, s.Name)
		}
	}
	return m
}

func (m *Mapper) add(name, canonical string) {
	m.aliases[name] = canonical
	m.folded[strings.ToLower(name)] = canonical
}

// Resolve returns the spec for name or one of its aliases. An exact match
// wins; otherwise names are compared case-insensitively, since config
// loaders such as viper lowercase map keys.
func (m *Mapper) Resolve(name string) (Spec, bool) {
	canonical, ok := m.aliases[name]
	if !ok {
		if canonical, ok = m.folded[strings.ToLower(name)]; !ok {
			return Spec{}, false
		}
	}
	return m.specs[canonical], true
}

// Default returns the declared default for name or one of its aliases.
func (m *Mapper) Default(name string) (interface{}, bool) {
	s, ok := m.Resolve(name)
	if !ok {
		return nil, false
	}
	return s.Default, true
}

// Names returns the canonical parameter names in sorted order.
func (m *Mapper) Names() []string {
	names := make([]string, 0, len(m.specs))
	for name := range m.specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Canonicalize maps every key of values to its canonical name and coerces
// the value. Unknown names, uncoercible values and a parameter given twice
// under different spellings are ConfigurationErrors.
func (m *Mapper) Canonicalize(values map[string]interface{}) (map[string]interface{}, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]interface{}, len(values))
	seenAs := make(map[string]string, len(values))
	for _, key := range keys {
		spec, ok := m.Resolve(key)
		if !ok {
			return nil, errors.NewConfigurationError(key, fmt.Sprintf("unknown parameter (known: %s)", strings.Join(m.Names(), ", ")), nil)
		}
		if prev, dup := seenAs[spec.Name]; dup {
			return nil, errors.NewConfigurationError(key, fmt.Sprintf("already set as %q", prev), values[key])
		}
		v, err := spec.coerce(values[key])
		if err != nil {
			return nil, errors.NewConfigurationError(key, err.Error(), values[key])
		}
		seenAs[spec.Name] = key
		out[spec.Name] = v
	}
	return out, nil
}

func (s Spec) coerce(v interface{}) (interface{}, error) {
	if v == nil {
		if s.Nullable {
			return nil, nil
		}
		return nil, errors.Newf("value must not be null")
	}
	var (
		out interface{}
		err error
	)
	switch s.Kind {
	case Float:
		out, err = cast.ToFloat64E(v)
	case Int:
		out, err = cast.ToIntE(v)
	case Bool:
		out, err = cast.ToBoolE(v)
	case String:
		out, err = cast.ToStringE(v)
	case FloatSlice:
		out, err = toFloat64Slice(v)
	default:
		err = errors.Newf("unsupported kind %d", s.Kind)
	}
	if err != nil {
		return nil, errors.Newf("cannot convert to %s", s.Kind)
	}
	return out, nil
}

// toFloat64Slice accepts a slice of numbers, or a comma separated string as
// produced by flags and environment variables.
func toFloat64Slice(v interface{}) ([]float64, error) {
	var items []interface{}
	switch x := v.(type) {
	case []float64:
		return append([]float64(nil), x...), nil
	case []int:
		out := make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
		return out, nil
	case string:
		for _, part := range strings.Split(strings.Trim(x, "[] "), ",") {
			if p := strings.TrimSpace(part); p != "" {
				items = append(items, p)
			}
		}
	default:
		var err error
		items, err = cast.ToSliceE(v)
		if err != nil {
			return nil, err
		}
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, err := cast.ToFloat64E(item)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}
