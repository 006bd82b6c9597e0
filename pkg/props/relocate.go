// Copyright 2026 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package props

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Relocate moves the named model's record from the properties file at current
// to the one at expected, creating the target document if needed and deleting
// either file if it ends up empty. It reports whether anything was moved;
// current == expected is a no-op.
func (p *Patcher) Relocate(current, expected, model string) (bool, error) {
	if _, err := os.Stat(current); os.IsNotExist(err) {
		return false, fmt.Errorf("YAML file %q: %w", current, ErrNotFound)
	}
	if filepath.Clean(current) == filepath.Clean(expected) {
		return false, nil
	}

	src, err := Load(current)
	if err != nil {
		return false, err
	}
	dst, err := LoadOrEmpty(expected)
	if err != nil {
		return false, err
	}

	node, err := removeModel(src, model)
	if err != nil {
		return false, err
	}
	if err := upsertModel(dst, node, model); err != nil {
		return false, err
	}

	if err := p.writeOrRemove(src); err != nil {
		return false, err
	}
	if err := p.writeOrRemove(dst); err != nil {
		return false, err
	}
	return true, nil
}

// removeModel pops the named model record out of the document, dropping the
// `models` key entirely when the sequence is left empty.
func removeModel(d *Doc, model string) (*yaml.Node, error) {
	root := d.mapping()
	models := mapGet(root, "models")
	if isNull(models) {
		return nil, fmt.Errorf("model %q %w in %q", model, ErrNotFound, d.Path)
	}
	if models.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected `models` key to contain a sequence: %w", ErrStructure)
	}
	i, node := findNamed(models, model)
	if node == nil {
		return nil, fmt.Errorf("model %q %w in %q", model, ErrNotFound, d.Path)
	}
	models.Content = append(models.Content[:i], models.Content[i+1:]...)
	if len(models.Content) == 0 {
		mapDelete(root, "models")
	}
	return node, nil
}

// upsertModel inserts the model record into the document's `models` sequence,
// replacing in place a same-named entry if one exists.
func upsertModel(d *Doc, node *yaml.Node, model string) error {
	root := d.mapping()
	models := mapGet(root, "models")
	if isNull(models) {
		models = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		mapSet(root, "models", models)
	} else if models.Kind != yaml.SequenceNode {
		return fmt.Errorf("expected `models` key to contain a sequence: %w", ErrStructure)
	}
	if i, existing := findNamed(models, model); existing != nil {
		models.Content[i] = node
	} else {
		models.Content = append(models.Content, node)
	}
	return nil
}

// writeOrRemove persists the document, deleting the file instead when the
// document is empty and creating parent directories as needed.
func (p *Patcher) writeOrRemove(d *Doc) error {
	if p.DryRun {
		p.Log.Debug().Str("path", d.Path).Msg("write skipped, dry run")
		return nil
	}
	if d.Empty() {
		if _, err := os.Stat(d.Path); err == nil {
			if err := os.Remove(d.Path); err != nil {
				return err
			}
			p.Log.Debug().Str("path", d.Path).Msg("empty file deleted")
		}
		return nil
	}
	if dir := filepath.Dir(d.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return d.write(p.indent(), p.Log)
}
