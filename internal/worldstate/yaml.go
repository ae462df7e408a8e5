package worldstate

import (
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a mapping of fact names to values:
//
//	HasTool: true       # boolean
//	Money: 3            # integer
//	Speed: 2.5          # float
//	Home: [0, 0, 10]    # vector3
func (ws *WorldState) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("worldstate: line %d: expected mapping, got %s", value.Line, nodeKind(value))
	}
	out := make(WorldState, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		var name string
		if err := keyNode.Decode(&name); err != nil {
			return fmt.Errorf("worldstate: line %d: fact name: %w", keyNode.Line, err)
		}
		f, err := decodeFact(name, valNode)
		if err != nil {
			return err
		}
		out[name] = f
	}
	*ws = out
	return nil
}

// MarshalYAML encodes ws as the mapping accepted by UnmarshalYAML.
func (ws WorldState) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range ws.Names() {
		f := ws[name]
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
		var val *yaml.Node
		switch f.Kind() {
		case KindVector3:
			n, _ := f.Vec().MarshalYAML()
			val = n.(*yaml.Node)
		case KindBoolean:
			val = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(f.Bool())}
		case KindFloat:
			val = floatNode(f.Float())
		default:
			val = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(f.Int())}
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

func decodeFact(name string, n *yaml.Node) (Fact, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return Fact{}, fmt.Errorf("worldstate: fact %q: %w", name, err)
			}
			return Bool(name, b), nil
		case "!!int":
			var i int
			if err := n.Decode(&i); err != nil {
				return Fact{}, fmt.Errorf("worldstate: fact %q: %w", name, err)
			}
			return Int(name, i), nil
		case "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return Fact{}, fmt.Errorf("worldstate: fact %q: %w", name, err)
			}
			return Float(name, f), nil
		}
		return Fact{}, fmt.Errorf("worldstate: line %d: fact %q: unsupported value %q", n.Line, name, n.Value)
	case yaml.SequenceNode:
		var v Vec3
		if err := v.UnmarshalYAML(n); err != nil {
			return Fact{}, fmt.Errorf("worldstate: fact %q: %w", name, err)
		}
		return Vec(name, v), nil
	}
	return Fact{}, fmt.Errorf("worldstate: line %d: fact %q: unsupported %s", n.Line, name, nodeKind(n))
}

// UnmarshalYAML decodes a [x, y, z] sequence.
func (v *Vec3) UnmarshalYAML(n *yaml.Node) error {
	var xyz []float64
	if err := n.Decode(&xyz); err != nil {
		return err
	}
	if len(xyz) != 3 {
		return fmt.Errorf("line %d: vector needs 3 components, got %d", n.Line, len(xyz))
	}
	*v = Vec3{xyz[0], xyz[1], xyz[2]}
	return nil
}

func (v Vec3) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle, Content: []*yaml.Node{
		floatNode(v.X), floatNode(v.Y), floatNode(v.Z),
	}}, nil
}

func floatNode(f float64) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(f)}
}

// formatScalar renders non-vector values; floats always keep a decimal point
// so that they read back as floats.
func formatScalar(f Fact) string {
	switch f.Kind() {
	case KindBoolean:
		return strconv.FormatBool(f.Bool())
	case KindFloat:
		return formatFloat(f.Float())
	default:
		return strconv.Itoa(f.Int())
	}
}

// formatFloat uses the YAML spellings for NaN and the infinities.
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ".nan"
	case math.IsInf(v, 1):
		return ".inf"
	case math.IsInf(v, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	for _, c := range s {
		if c == '.' || c == 'e' {
			return s
		}
	}
	return s + ".0"
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "node"
	}
}
