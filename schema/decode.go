package schema

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teranos/notion-schema/errors"
)

// Decode parses a retrieve-database response. JSON input (the API body, a
// cached body or a .json snapshot) is read token by token with encoding/json;
// anything else is treated as a YAML snapshot. Both end up as a yaml.Node tree
// so the properties keep their catalogue order.
//
// A response without a "properties" object fails with errors.ErrSchemaShape.
func Decode(data []byte) (*Database, error) {
	var (
		root *yaml.Node
		err  error
	)
	if json.Valid(data) {
		root, err = jsonNode(data)
	} else {
		root, err = yamlNode(data)
	}
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to parse schema response"), errors.ErrSchemaShape)
	}
	if root == nil {
		return nil, errors.NewSchemaShapeError("empty schema response")
	}
	return decodeDatabase(root)
}

func yamlNode(data []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	return doc.Content[0], nil
}

// jsonNode converts JSON into the yaml.Node shape decodeDatabase walks.
// Object keys stay in document order, which a map would lose.
func jsonNode(data []byte) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return readJSONValue(dec)
}

func readJSONValue(dec *json.Decoder) (*yaml.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				value, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				node.Content = append(node.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
			}
			_, err := dec.Token() // '}'
			return node, err
		case '[':
			node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			for dec.More() {
				item, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				node.Content = append(node.Content, item)
			}
			_, err := dec.Token() // ']'
			return node, err
		}
		return nil, errors.Newf("unexpected delimiter %q", v)
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}, nil
	case json.Number:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: v.String()}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	return nil, errors.Newf("unexpected JSON token %v", tok)
}

// DecodeFile reads and decodes a schema snapshot file.
func DecodeFile(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read schema snapshot %s", path)
	}
	db, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot %s", path)
	}
	return db, nil
}

func decodeDatabase(root *yaml.Node) (*Database, error) {
	if root.Kind != yaml.MappingNode {
		return nil, errors.NewSchemaShapeError("schema response is not an object")
	}

	db := &Database{
		ID:    scalar(lookup(root, "id")),
		Title: plainText(lookup(root, "title")),
	}

	props := lookup(root, "properties")
	if props == nil {
		return nil, errors.WithHint(
			errors.NewSchemaShapeError("schema response has no properties field"),
			"check that the id refers to a database, not a page",
		)
	}
	if props.Kind != yaml.MappingNode {
		return nil, errors.NewSchemaShapeError("schema properties field is not an object")
	}

	for i := 0; i+1 < len(props.Content); i += 2 {
		key := props.Content[i].Value
		prop, err := decodeProperty(key, props.Content[i+1])
		if err != nil {
			return nil, err
		}
		db.Properties = append(db.Properties, prop)
	}

	return db, nil
}

func decodeProperty(key string, node *yaml.Node) (Property, error) {
	if node.Kind != yaml.MappingNode {
		return Property{}, errors.NewSchemaShapeError("property %q is not an object", key)
	}

	rawKind := scalar(lookup(node, "type"))
	if rawKind == "" {
		return Property{}, errors.NewSchemaShapeError("property %q has no type", key)
	}

	prop := Property{
		Key:     key,
		ID:      scalar(lookup(node, "id")),
		Kind:    ParseKind(rawKind),
		RawKind: rawKind,
	}

	// The kind-specific payload lives under a key named after the kind:
	// {"type": "select", "select": {"options": [...]}}
	payload := lookup(node, rawKind)
	if payload == nil || payload.Kind != yaml.MappingNode {
		return prop, nil
	}
	options := lookup(payload, "options")
	if options == nil || options.Tag == "!!null" {
		return prop, nil
	}
	if options.Kind != yaml.SequenceNode {
		return Property{}, errors.NewSchemaShapeError("options of property %q is not a list", key)
	}

	prop.HasOptions = true
	prop.Options = make([]Option, 0, len(options.Content))
	for i, item := range options.Content {
		if item.Kind != yaml.MappingNode {
			return Property{}, errors.NewSchemaShapeError("option %d of property %q is not an object", i, key)
		}
		nameNode := lookup(item, "name")
		if nameNode == nil || nameNode.Kind != yaml.ScalarNode || nameNode.Tag == "!!null" {
			return Property{}, errors.NewSchemaShapeError("option %d of property %q has no name", i, key)
		}
		prop.Options = append(prop.Options, Option{
			ID:    scalar(lookup(item, "id")),
			Name:  nameNode.Value,
			Color: scalar(lookup(item, "color")),
		})
	}

	return prop, nil
}

// lookup returns the value node for key in a mapping node, or nil.
func lookup(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func scalar(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return ""
	}
	return n.Value
}

// plainText joins the plain_text of a rich text array.
func plainText(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.SequenceNode {
		return scalar(n)
	}
	var sb strings.Builder
	for _, item := range n.Content {
		sb.WriteString(scalar(lookup(item, "plain_text")))
	}
	return sb.String()
}
