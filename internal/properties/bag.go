package properties

import (
	"strconv"
	"strings"
)

// Defaults maps dotted paths, relative to the bag root, to the value used when
// the property is absent.
type Defaults map[string]Value

// Optional is the result of an optional lookup. Set is false when the property
// is absent and has no default.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Or returns the looked up value, or def when it was not set.
func (o Optional[T]) Or(def T) T {
	if !o.Set {
		return def
	}
	return o.Value
}

// Bag is a read-only view over a property tree. Views created with Sub share
// the tree and keep reporting full dotted paths in errors.
type Bag struct {
	root      Value
	namespace string
	base      string
	defaults  Defaults
}

// NewBag wraps root. namespace is only used to prefix paths in error messages.
func NewBag(namespace string, root Value, defaults Defaults) Bag {
	if root.IsNull() {
		root = MapValue(nil)
	}
	return Bag{
		root:      root,
		namespace: namespace,
		defaults:  defaults,
	}
}

// Sub returns a view rooted at path.
func (b Bag) Sub(path string) Bag {
	sub := b
	sub.base = join(b.base, path)
	return sub
}

// Path returns the full dotted path that errors would report for path.
func (b Bag) Path(path string) string {
	return join(b.namespace, join(b.base, path))
}

// Lookup returns the raw value at path. Explicit nulls count as absent and
// table defaults are applied.
func (b Bag) Lookup(path string) (Value, bool) {
	full := join(b.base, path)

	node := b.root
	found := true
	for _, segment := range strings.Split(full, ".") {
		if segment == "" {
			continue
		}
		child, ok := node.Get(segment)
		if !ok {
			found = false
			break
		}
		node = child
	}

	if found && !node.IsNull() {
		return node, true
	}

	if def, ok := b.defaults[full]; ok {
		return def, true
	}

	return Value{}, false
}

func (b Bag) Has(path string) bool {
	_, ok := b.Lookup(path)
	return ok
}

func (b Bag) String(path string) (string, error) {
	opt, err := b.OptionalString(path)
	if err != nil {
		return "", err
	}
	if !opt.Set {
		return "", &MissingPropertyError{Path: b.Path(path)}
	}
	return opt.Value, nil
}

// NonEmptyString is String for key material and secrets: an empty value is
// reported as missing.
func (b Bag) NonEmptyString(path string) (string, error) {
	s, err := b.String(path)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &MissingPropertyError{Path: b.Path(path)}
	}
	return s, nil
}

func (b Bag) OptionalString(path string) (Optional[string], error) {
	v, ok := b.Lookup(path)
	if !ok {
		return Optional[string]{}, nil
	}
	s, ok := v.AsString()
	if !ok {
		return Optional[string]{}, b.mismatch(path, KindString, v)
	}
	return Optional[string]{Value: s, Set: true}, nil
}

func (b Bag) Bool(path string) (bool, error) {
	opt, err := b.OptionalBool(path)
	if err != nil {
		return false, err
	}
	if !opt.Set {
		return false, &MissingPropertyError{Path: b.Path(path)}
	}
	return opt.Value, nil
}

func (b Bag) OptionalBool(path string) (Optional[bool], error) {
	v, ok := b.Lookup(path)
	if !ok {
		return Optional[bool]{}, nil
	}
	flag, ok := v.AsBool()
	if !ok {
		return Optional[bool]{}, b.mismatch(path, KindBool, v)
	}
	return Optional[bool]{Value: flag, Set: true}, nil
}

func (b Bag) Int(path string) (int, error) {
	opt, err := b.OptionalInt(path)
	if err != nil {
		return 0, err
	}
	if !opt.Set {
		return 0, &MissingPropertyError{Path: b.Path(path)}
	}
	return opt.Value, nil
}

func (b Bag) OptionalInt(path string) (Optional[int], error) {
	v, ok := b.Lookup(path)
	if !ok {
		return Optional[int]{}, nil
	}
	n, ok := v.AsInt()
	if !ok {
		return Optional[int]{}, b.mismatch(path, KindInt, v)
	}
	return Optional[int]{Value: n, Set: true}, nil
}

func (b Bag) StringList(path string) ([]string, error) {
	opt, err := b.OptionalStringList(path)
	if err != nil {
		return nil, err
	}
	if !opt.Set {
		return nil, &MissingPropertyError{Path: b.Path(path)}
	}
	return opt.Value, nil
}

func (b Bag) OptionalStringList(path string) (Optional[[]string], error) {
	v, ok := b.Lookup(path)
	if !ok {
		return Optional[[]string]{}, nil
	}
	items, ok := v.AsList()
	if !ok {
		return Optional[[]string]{}, b.mismatch(path, KindList, v)
	}

	out := make([]string, 0, len(items))
	for idx, item := range items {
		s, ok := item.AsString()
		if !ok {
			return Optional[[]string]{}, &TypeMismatchError{
				Path: b.Path(path) + "[" + strconv.Itoa(idx) + "]",
				Want: KindString,
				Got:  item.Kind(),
			}
		}
		out = append(out, s)
	}
	return Optional[[]string]{Value: out, Set: true}, nil
}

func (b Bag) mismatch(path string, want Kind, got Value) error {
	return &TypeMismatchError{Path: b.Path(path), Want: want, Got: got.Kind()}
}

func join(prefix, path string) string {
	switch {
	case prefix == "":
		return path
	case path == "":
		return prefix
	default:
		return prefix + "." + path
	}
}
