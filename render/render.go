// Package render formats decoded layout values for people and for other
// tools.
//
// Decoded values are the ones the layout package produces: scalars, strings,
// byte slices, []any for sequences and *layout.Record for aggregates.
// YAML and Tree keep record labels in declaration order; CBOR uses core
// deterministic encoding, so map keys are sorted.
package render

import (
	"encoding/base64"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/buffer-layout/layout"
)

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("render: CBOR encoder initialization failed: " + err.Error())
	}
}

// Normalize replaces records with map[string]any, recursively, so the value
// can be handed to generic encoders.
func Normalize(v any) any {
	switch val := v.(type) {
	case *layout.Record:
		if val == nil {
			return nil
		}
		return val.Map()
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Normalize(e)
		}
		return out
	default:
		return v
	}
}

// CBOR encodes v with core deterministic encoding. Byte slices become CBOR
// byte strings.
func CBOR(v any) ([]byte, error) {
	return encMode.Marshal(Normalize(v))
}

// Diagnose returns the diagnostic notation of a CBOR document.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}

// YAML renders v as a YAML document. Byte slices are tagged !!binary, which
// decodes back to a string the blob layouts accept.
func YAML(v any) ([]byte, error) {
	n, err := yamlNode(v)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

func yamlNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case *layout.Record:
		n := &yaml.Node{Kind: yaml.MappingNode}
		if val == nil {
			return n, nil
		}
		for label, e := range val.All() {
			child, err := yamlNode(e)
			if err != nil {
				return nil, err
			}
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: label}
			n.Content = append(n.Content, key, child)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range val {
			child, err := yamlNode(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	case []byte:
		return &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!binary",
			Value: base64.StdEncoding.EncodeToString(val),
		}, nil
	default:
		n := &yaml.Node{}
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return n, nil
	}
}
