package builtins

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/opa-wasm-runtime/errors"
	"github.com/wippyai/opa-wasm-runtime/value"
)

func yamlBuiltins() []*Builtin {
	return []*Builtin{
		{Name: "yaml.marshal", Arity: 1, Fn: builtinYAMLMarshal},
		{Name: "yaml.unmarshal", Arity: 1, Fn: builtinYAMLUnmarshal},
		{Name: "yaml.is_valid", Arity: 1, Fn: builtinYAMLIsValid},
	}
}

func builtinYAMLMarshal(_ *Context, args []value.Value) (value.Value, error) {
	node, err := valueToYAMLNode("yaml.marshal", args[0])
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if encErr := enc.Encode(node); encErr != nil {
		return nil, errors.TypeMismatch("yaml.marshal", "%v", encErr)
	}
	if closeErr := enc.Close(); closeErr != nil {
		return nil, errors.TypeMismatch("yaml.marshal", "%v", closeErr)
	}
	return value.String(b.String()), nil
}

func builtinYAMLUnmarshal(_ *Context, args []value.Value) (value.Value, error) {
	s, err := stringOperand("yaml.unmarshal", args, 0)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if parseErr := yaml.Unmarshal([]byte(s), &node); parseErr != nil {
		return nil, errors.Parse("yaml.unmarshal", "invalid YAML: %v", parseErr)
	}
	if node.Kind == 0 {
		// Empty document.
		return value.Null{}, nil
	}
	return yamlNodeToValue("yaml.unmarshal", &node)
}

func builtinYAMLIsValid(_ *Context, args []value.Value) (value.Value, error) {
	// Total: any non-string input is simply not a valid document.
	s, ok := args[0].(value.String)
	if !ok {
		return value.Bool(false), nil
	}
	var node yaml.Node
	return value.Bool(yaml.Unmarshal([]byte(s), &node) == nil), nil
}

// valueToYAMLNode builds a yaml.Node tree so object insertion order
// survives marshalling; mappings render in block style.
func valueToYAMLNode(name string, v value.Value) (*yaml.Node, error) {
	switch t := v.(type) {
	case value.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case value.Bool:
		s := "false"
		if t {
			s = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: s}, nil
	case value.Number:
		tag := "!!float"
		if _, ok := t.Int(); ok {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(t)}, nil
	case value.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(t)}, nil
	case *value.Array:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range t.Elems() {
			child, err := valueToYAMLNode(name, e)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case *value.Set:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range t.Elems() {
			child, err := valueToYAMLNode(name, e)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	case *value.Object:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		err := t.Iter(func(k, val value.Value) error {
			kn, err := valueToYAMLNode(name, k)
			if err != nil {
				return err
			}
			vn, err := valueToYAMLNode(name, val)
			if err != nil {
				return err
			}
			node.Content = append(node.Content, kn, vn)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return node, nil
	}
	return nil, errors.TypeMismatch(name, "cannot marshal %s", v.Kind())
}

func yamlNodeToValue(name string, node *yaml.Node) (value.Value, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return value.Null{}, nil
		}
		// A single document is accepted; additional documents are ignored.
		return yamlNodeToValue(name, node.Content[0])

	case yaml.AliasNode:
		return yamlNodeToValue(name, node.Alias)

	case yaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			return value.Null{}, nil
		case "!!bool":
			return value.Bool(node.Value == "true" || node.Value == "True" || node.Value == "TRUE"), nil
		case "!!int", "!!float":
			if _, err := value.Number(node.Value).Decimal(); err != nil {
				return nil, errors.Parse(name, "invalid number %q", node.Value)
			}
			return value.Number(node.Value), nil
		default:
			return value.String(node.Value), nil
		}

	case yaml.SequenceNode:
		out := value.NewArray()
		for _, child := range node.Content {
			v, err := yamlNodeToValue(name, child)
			if err != nil {
				return nil, err
			}
			out.Append(v)
		}
		return out, nil

	case yaml.MappingNode:
		out := value.NewObject()
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, err := yamlNodeToValue(name, node.Content[i])
			if err != nil {
				return nil, err
			}
			v, err := yamlNodeToValue(name, node.Content[i+1])
			if err != nil {
				return nil, err
			}
			out.Put(k, v)
		}
		return out, nil
	}
	return nil, errors.Parse(name, "unsupported YAML node kind %d", node.Kind)
}
