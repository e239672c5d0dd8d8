package properties

import (
	"fmt"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Parse decodes a single YAML (or JSON) document into a raw property map.
// An empty document yields an empty map.
func Parse(data []byte) (map[string]any, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing properties: %w", err)
	}
	return raw, nil
}

// Merge layers overlays on top of base. Later overlays win, nested maps are
// merged key by key and lists are replaced. base is modified in place and
// returned.
func Merge(base map[string]any, overlays ...map[string]any) (map[string]any, error) {
	if base == nil {
		base = map[string]any{}
	}
	for idx, overlay := range overlays {
		if err := mergo.Merge(&base, overlay, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merging properties overlay %d: %w", idx, err)
		}
	}
	return base, nil
}

// ParseBag parses data and wraps the document found under namespace.
func ParseBag(data []byte, namespace string, defaults Defaults) (Bag, error) {
	raw, err := Parse(data)
	if err != nil {
		return Bag{}, err
	}
	return FromMap(raw, namespace, defaults)
}

// FromMap wraps the document found under namespace in raw. A missing
// namespace yields an empty bag.
func FromMap(raw map[string]any, namespace string, defaults Defaults) (Bag, error) {
	root, err := FromAny(raw)
	if err != nil {
		return Bag{}, fmt.Errorf("converting properties: %w", err)
	}

	if namespace != "" {
		scoped, ok := root.Get(namespace)
		if !ok {
			scoped = MapValue(nil)
		}
		if scoped.Kind() != KindMap && !scoped.IsNull() {
			return Bag{}, &TypeMismatchError{Path: namespace, Want: KindMap, Got: scoped.Kind()}
		}
		root = scoped
	}

	return NewBag(namespace, root, defaults), nil
}
