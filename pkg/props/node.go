// Copyright 2026 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package props

import "gopkg.in/yaml.v3"

func isNull(n *yaml.Node) bool {
	return n == nil || n.Tag == "!!null"
}

func strScalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// mapGet returns the value node for key in mapping m, or nil.
func mapGet(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// mapSet replaces the value node for key in mapping m, appending the pair if absent.
func mapSet(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content, strScalar(key), value)
}

// mapDelete removes key from mapping m, reporting whether it was present.
func mapDelete(m *yaml.Node, key string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return true
		}
	}
	return false
}

// findNamed scans a sequence of mappings for the first entry whose `name`
// field equals name. It returns the entry's index, or -1.
func findNamed(seq *yaml.Node, name string) (int, *yaml.Node) {
	for i, entry := range seq.Content {
		if entry.Kind != yaml.MappingNode {
			continue
		}
		if n := mapGet(entry, "name"); n != nil && n.Value == name {
			return i, entry
		}
	}
	return -1, nil
}
