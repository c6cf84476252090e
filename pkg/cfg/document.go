package cfg

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// document is the on-disk form of a serialized CFG. It holds either a whole
// module under "functions" or the fields of a single CFGInfo at the top level.
type document struct {
	Source    string     `json:"source,omitempty" yaml:"source,omitempty"`
	Functions []*CFGInfo `json:"functions,omitempty" yaml:"functions,omitempty"`
	CFGInfo   `yaml:",inline"`
}

func (d *document) functions() ([]*CFGInfo, error) {
	if len(d.Functions) > 0 {
		return checkFunctions(d.Functions)
	}
	if d.FunctionName != "" || len(d.Blocks) > 0 || len(d.Edges) > 0 {
		info := d.CFGInfo
		return []*CFGInfo{&info}, nil
	}
	return nil, errors.New("document defines no functions")
}

// checkFunctions rejects null entries in a function list.
func checkFunctions(funcs []*CFGInfo) ([]*CFGInfo, error) {
	for i, f := range funcs {
		if f == nil {
			return nil, fmt.Errorf("function %d is null", i)
		}
	}
	return funcs, nil
}

// ParseJSON decodes a CFG document: a module object with "functions", a
// single function object, or an array of function objects.
func ParseJSON(content []byte) ([]*CFGInfo, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var funcs []*CFGInfo
		if err := json.Unmarshal(trimmed, &funcs); err != nil {
			return nil, fmt.Errorf("decoding JSON: %w", err)
		}
		return checkFunctions(funcs)
	}

	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}
	return doc.functions()
}

// ParseYAML decodes a CFG document in the same three shapes as ParseJSON.
func ParseYAML(content []byte) ([]*CFGInfo, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, errors.New("empty YAML document")
	}

	node := root.Content[0]
	if node.Kind == yaml.SequenceNode {
		var funcs []*CFGInfo
		if err := node.Decode(&funcs); err != nil {
			return nil, fmt.Errorf("decoding YAML: %w", err)
		}
		return checkFunctions(funcs)
	}

	var doc document
	if err := node.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}
	return doc.functions()
}
