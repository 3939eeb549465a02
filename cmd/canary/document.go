package main

import (
	"errors"
	"fmt"
	"io"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

type document = orderedmap.OrderedMap[any, any]

// entry is a value to render under an identifier.
type entry struct {
	identifier string
	value      any
}

// decodeDocument reads a YAML or JSON document. Mappings keep the order of
// the document.
func decodeDocument(r io.Reader) (any, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("error decoding document: %w", err)
	}
	return fromNode(&node)
}

func fromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return fromNode(n.Content[0])

	case yaml.AliasNode:
		return fromNode(n.Alias)

	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := fromNode(c)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil

	case yaml.MappingNode:
		m := orderedmap.New[any, any]()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, value := n.Content[i], n.Content[i+1]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: only scalar keys are supported", key.Line)
			}
			k, err := fromNode(key)
			if err != nil {
				return nil, err
			}
			v, err := fromNode(value)
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("line %d: unexpected node kind %d", n.Line, n.Kind)
}

// entries splits a top-level mapping into one entry per key.
func entries(doc any) []entry {
	m, ok := doc.(*document)
	if !ok {
		return []entry{{identifier: "value", value: doc}}
	}
	out := make([]entry, 0, m.Len())
	for k, v := range m.FromOldest() {
		out = append(out, entry{identifier: fmt.Sprint(k), value: v})
	}
	return out
}
