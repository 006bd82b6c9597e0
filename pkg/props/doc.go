// Copyright 2026 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

/*
Package props edits dbt properties (schema) YAML files in place.

A properties file is a mapping whose `models` key holds a sequence of model
records, each a mapping with a `name`, an optional `description` and an
optional `columns` sequence of similarly shaped column records. Documents are
kept as yaml.v3 node trees so that comments, quoting styles and key order
survive a read-modify-write cycle.

The package implements three operations: batch description updates for several
models in one file, the same updates for a single model, and relocating a
model record from one file to another. Files are only written back when a
tracked change occurred; edits that boil down to replacing existing
description scalars are spliced into the original bytes, leaving every other
byte untouched.
*/
package props

import (
	"bytes"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"dbtpatch.io/pkg/atomicfile"
)

// A Doc is a properties file loaded as a yaml.v3 node tree.
type Doc struct {
	Path string

	root *yaml.Node
	src  []byte // original file bytes, nil if the file did not exist
}

// Load reads a properties file. It fails with ErrNotFound if the file is missing.
func Load(path string) (*Doc, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("YAML file %q: %w", path, ErrNotFound)
		}
		return nil, err
	}
	return parse(path, b)
}

// LoadOrEmpty reads a properties file, treating a missing file as a fresh
// empty document.
func LoadOrEmpty(path string) (*Doc, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyDoc(path), nil
		}
		return nil, err
	}
	return parse(path, b)
}

func parse(path string, b []byte) (*Doc, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, err
	}
	// An empty or comment-only file decodes to a zero node.
	if root.Kind == 0 || len(root.Content) == 0 {
		d := emptyDoc(path)
		d.src = b
		return d, nil
	}
	if root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("YAML document %q is not a mapping: %w", path, ErrStructure)
	}
	return &Doc{Path: path, root: &root, src: b}, nil
}

func emptyDoc(path string) *Doc {
	return &Doc{
		Path: path,
		root: &yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{Kind: yaml.MappingNode, Tag: "!!map"},
			},
		},
	}
}

// mapping returns the document's root mapping node.
func (d *Doc) mapping() *yaml.Node {
	return d.root.Content[0]
}

// Empty reports whether the document carries no content worth keeping on
// disk: `models` and `sources` are each absent, null or empty, and no other
// top-level keys exist.
func (d *Doc) Empty() bool {
	m := d.mapping()
	for i := 0; i+1 < len(m.Content); i += 2 {
		key, value := m.Content[i].Value, m.Content[i+1]
		switch key {
		case "models", "sources":
			if !isNull(value) && !(value.Kind == yaml.SequenceNode && len(value.Content) == 0) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Encode renders the document with the given mapping indent. yaml.v3 indents
// block sequence dashes under a mapping key by the same amount, which for
// indent 2 yields the usual dbt layout (dash at column 2, content at 4).
func (d *Doc) Encode(indent int) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(d.root); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Doc) write(indent int, log zerolog.Logger) error {
	b, err := d.Encode(indent)
	if err != nil {
		return err
	}
	if err := atomicfile.WriteFile(d.Path, b, 0644); err != nil {
		return err
	}
	log.Debug().Str("path", d.Path).Int("bytes", len(b)).Msg("file written")
	return nil
}
