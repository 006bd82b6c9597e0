// Copyright 2026 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package props

import (
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// DefaultIndent matches the conventional dbt properties layout: mappings
// indented by 2, sequence dashes indented 2 with content at 4.
const DefaultIndent = 2

// A Patcher applies description updates and relocations to properties files.
type Patcher struct {
	// Indent is the mapping indent used when a file has to be re-encoded.
	Indent int
	// DryRun computes and reports changes without touching any file.
	DryRun bool
	Log    zerolog.Logger
}

// New returns a Patcher with the default indent and a no-op logger.
func New() *Patcher {
	return &Patcher{Indent: DefaultIndent, Log: zerolog.Nop()}
}

func (p *Patcher) indent() int {
	if p.Indent <= 0 {
		return DefaultIndent
	}
	return p.Indent
}

// A ColumnChange sets or removes one column's description.
// A nil Description removes the field.
type ColumnChange struct {
	Column      string
	Description *string
}

// A ModelUpdate carries the requested edits for one model.
// HasDescription distinguishes "leave the model description alone" from
// "set it to Description" (where a nil Description removes the field).
type ModelUpdate struct {
	Model          string
	Columns        []ColumnChange
	Description    *string
	HasDescription bool
}

func (u ModelUpdate) isNoop() bool {
	return len(u.Columns) == 0 && !u.HasDescription
}

// Apply applies a batch of model updates to the properties file at path and
// returns, per model, the names of columns whose description actually
// changed. Models whose update changed no columns are omitted from the
// result. The file is written back (once) only if any field changed.
func (p *Patcher) Apply(path string, updates []ModelUpdate) (map[string][]string, error) {
	results := map[string][]string{}
	if len(updates) == 0 {
		return results, nil
	}

	doc, err := Load(path)
	if err != nil {
		return nil, err
	}

	if res, ok, err := p.applySplice(doc, updates); ok || err != nil {
		return res, err
	}

	mutated := false
	for _, u := range updates {
		cols, changed, err := applyModelUpdate(doc.mapping(), u)
		if err != nil {
			return nil, err
		}
		if changed {
			mutated = true
		}
		if len(cols) > 0 {
			results[u.Model] = cols
		}
	}

	if !mutated {
		p.Log.Debug().Str("path", path).Msg("write skipped, no changes")
		return results, nil
	}
	if p.DryRun {
		p.Log.Debug().Str("path", path).Msg("write skipped, dry run")
		return results, nil
	}
	if err := doc.write(p.indent(), p.Log); err != nil {
		return nil, err
	}
	return results, nil
}

// applyModelUpdate mutates the document in memory and reports the changed
// column names plus whether anything (including the model description) changed.
func applyModelUpdate(root *yaml.Node, u ModelUpdate) ([]string, bool, error) {
	if u.isNoop() {
		return nil, false, nil
	}

	models := mapGet(root, "models")
	if isNull(models) {
		return nil, false, fmt.Errorf("model %q %w in YAML", u.Model, ErrNotFound)
	}
	if models.Kind != yaml.SequenceNode {
		return nil, false, fmt.Errorf("expected `models` to be a sequence, found %s: %w", models.Tag, ErrStructure)
	}
	_, model := findNamed(models, u.Model)
	if model == nil {
		return nil, false, fmt.Errorf("model %q %w in YAML", u.Model, ErrNotFound)
	}

	// A malformed `columns` fails the whole update, even one that only
	// touches the model description.
	columns := mapGet(model, "columns")
	if !isNull(columns) && columns.Kind != yaml.SequenceNode {
		return nil, false, fmt.Errorf("expected `columns` to be a sequence, found %s: %w", columns.Tag, ErrStructure)
	}

	changed := false
	if u.HasDescription && setDescription(model, u.Description) {
		changed = true
	}

	var updated []string
	if len(u.Columns) > 0 {
		if isNull(columns) {
			columns = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
			mapSet(model, "columns", columns)
		}

		for _, c := range u.Columns {
			if c.Column == "" {
				continue
			}
			col := ensureColumn(columns, c.Column)
			if c.Description == nil {
				if mapDelete(col, "description") {
					updated = append(updated, c.Column)
				}
			} else if setDescription(col, c.Description) {
				updated = append(updated, c.Column)
			}
		}
		if len(updated) > 0 {
			changed = true
		}
	}

	return updated, changed, nil
}

// ensureColumn finds the column record by name, appending a bare
// {name: ...} record if absent.
func ensureColumn(columns *yaml.Node, name string) *yaml.Node {
	if _, col := findNamed(columns, name); col != nil {
		return col
	}
	col := &yaml.Node{
		Kind:    yaml.MappingNode,
		Tag:     "!!map",
		Content: []*yaml.Node{strScalar("name"), strScalar(name)},
	}
	columns.Content = append(columns.Content, col)
	return col
}

// setDescription sets or removes the description field of a record,
// reporting whether the value actually changed. Mutating an existing scalar
// in place keeps its quoting style.
func setDescription(record *yaml.Node, desc *string) bool {
	if desc == nil {
		return mapDelete(record, "description")
	}
	cur := mapGet(record, "description")
	if cur != nil && cur.Kind == yaml.ScalarNode && cur.Tag == "!!str" {
		if cur.Value == *desc {
			return false
		}
		cur.Value = *desc
		return true
	}
	mapSet(record, "description", strScalar(*desc))
	return true
}
